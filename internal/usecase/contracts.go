package usecase

import (
	"context"

	"github.com/ecosort/recyclesort/internal/dto"
	"github.com/ecosort/recyclesort/internal/entity"
	"github.com/ecosort/recyclesort/internal/repo"
	"github.com/ecosort/recyclesort/internal/usecase/resolver"
)

type (
	// PipelineUseCase drives the two enrichment stages of an image record.
	PipelineUseCase interface {
		AnalyzeStored(ctx context.Context, event dto.ObjectStoredEvent) dto.AnalysisResult
		InferRecyclability(ctx context.Context, result dto.AnalysisResult) dto.InferenceResult
	}

	// MetadataUseCase serves reads over image records and the thin upload
	// surface in front of the object store.
	MetadataUseCase interface {
		GetByObjectKey(ctx context.Context, objectKey string) (*entity.ImageRecord, error)
		ListByOwner(ctx context.Context, ownerID string) ([]*entity.ImageRecord, error)
		ListClassified(ctx context.Context) ([]*entity.ImageRecord, error)
		ListStoredObjects(ctx context.Context, ownerID string) ([]repo.ObjectInfo, error)
		GeneratePresignedURL(ctx context.Context, action, fileName, contentType string, ownerID *string) (url, objectName string, err error)
		Upload(ctx context.Context, data []byte, contentType string, ownerID *string) (fileName string, err error)
	}

	// ResolverUseCase resolves a label list against the pairwise rule table.
	ResolverUseCase interface {
		Resolve(ctx context.Context, labels []entity.Label) (resolver.Resolution, error)
	}
)
