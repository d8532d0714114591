package repo

import (
	"context"
	"io"
	"time"

	"github.com/ecosort/recyclesort/internal/entity"
)

type (
	// ObjectMeta is what the object store knows about a blob.
	ObjectMeta struct {
		SizeBytes    int64
		ContentType  string
		LastModified time.Time
	}

	// ObjectInfo is one entry of a prefix listing.
	ObjectInfo struct {
		Key          string
		SizeBytes    int64
		LastModified time.Time
	}

	ObjectStore interface {
		Head(ctx context.Context, key string) (ObjectMeta, error)
		List(ctx context.Context, prefix string) ([]ObjectInfo, error)
		Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error
		PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
		PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	}

	MetadataRepo interface {
		Put(ctx context.Context, record *entity.ImageRecord) error
		GetLatestByObjectKey(ctx context.Context, objectKey string) (*entity.ImageRecord, error)
		ListByOwner(ctx context.Context, ownerID string) ([]*entity.ImageRecord, error)
		ListClassified(ctx context.Context) ([]*entity.ImageRecord, error)
		SetInferenceResults(ctx context.Context, objectKey string, createdAt time.Time, labels []entity.Label) error
		SetClassification(ctx context.Context, objectKey string, createdAt time.Time, rule *entity.PairwiseRule) error
	}

	RuleRepo interface {
		Get(ctx context.Context, itemType, materialType string) (*entity.PairwiseRule, bool, error)
	}
)
