package metadata

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ecosort/recyclesort/internal/entity"
	"github.com/ecosort/recyclesort/internal/repo"
	"github.com/ecosort/recyclesort/pkg/logger"
	"github.com/ecosort/recyclesort/pkg/retry"
	"github.com/ecosort/recyclesort/pkg/types/errs"
)

const (
	// MaxUploadSize limits direct uploads.
	MaxUploadSize int64 = 3 * 1024 * 1024

	ActionGet = "get"
	ActionPut = "put"
)

// SupportedFileTypes maps accepted content types to the extension used for
// the generated object name.
var SupportedFileTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
}

// MetadataUseCase is the read side over image records plus the thin upload
// and presigned-URL surface in front of the object store. All reads are
// side-effect free.
type MetadataUseCase struct {
	metadata    repo.MetadataRepo
	objectStore repo.ObjectStore
	retry       *retry.Policy

	presignTTL time.Duration

	logger logger.Interface
}

func New(
	metadata repo.MetadataRepo,
	objectStore repo.ObjectStore,
	retryPolicy *retry.Policy,
	presignTTL time.Duration,
	l logger.Interface,
) *MetadataUseCase {
	return &MetadataUseCase{
		metadata:    metadata,
		objectStore: objectStore,
		retry:       retryPolicy,
		presignTTL:  presignTTL,
		logger:      l,
	}
}

func (uc *MetadataUseCase) GetByObjectKey(ctx context.Context, objectKey string) (*entity.ImageRecord, error) {
	var record *entity.ImageRecord
	err := uc.retry.Do(ctx, func() error {
		var getErr error
		record, getErr = uc.metadata.GetLatestByObjectKey(ctx, objectKey)
		return getErr
	})
	if err != nil {
		return nil, fmt.Errorf("MetadataUseCase - GetByObjectKey - uc.metadata.GetLatestByObjectKey: %w", err)
	}

	return record, nil
}

// ListByOwner returns an empty slice when the owner has no records. An empty
// result set is success; NotFound is reserved for point lookups.
func (uc *MetadataUseCase) ListByOwner(ctx context.Context, ownerID string) ([]*entity.ImageRecord, error) {
	var records []*entity.ImageRecord
	err := uc.retry.Do(ctx, func() error {
		var listErr error
		records, listErr = uc.metadata.ListByOwner(ctx, ownerID)
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("MetadataUseCase - ListByOwner - uc.metadata.ListByOwner: %w", err)
	}

	return records, nil
}

func (uc *MetadataUseCase) ListClassified(ctx context.Context) ([]*entity.ImageRecord, error) {
	var records []*entity.ImageRecord
	err := uc.retry.Do(ctx, func() error {
		var listErr error
		records, listErr = uc.metadata.ListClassified(ctx)
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("MetadataUseCase - ListClassified - uc.metadata.ListClassified: %w", err)
	}

	return records, nil
}

func (uc *MetadataUseCase) ListStoredObjects(ctx context.Context, ownerID string) ([]repo.ObjectInfo, error) {
	prefix := ownerID
	if prefix == "" {
		prefix = entity.GeneralNamespace
	}

	objects, err := uc.objectStore.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("MetadataUseCase - ListStoredObjects - uc.objectStore.List: %w", err)
	}

	return objects, nil
}

// GeneratePresignedURL issues a short-lived scoped URL for one get or put on
// one object. The object name is namespaced by owner, or "general" when no
// owner is given.
func (uc *MetadataUseCase) GeneratePresignedURL(ctx context.Context, action, fileName, contentType string, ownerID *string) (string, string, error) {
	objectName := ObjectName(fileName, ownerID)

	var url string
	var err error

	switch action {
	case ActionGet:
		url, err = uc.objectStore.PresignGet(ctx, objectName, uc.presignTTL)
	case ActionPut:
		url, err = uc.objectStore.PresignPut(ctx, objectName, contentType, uc.presignTTL)
	default:
		return "", "", fmt.Errorf("MetadataUseCase - GeneratePresignedURL - invalid action %q: %w", action, errs.ErrValidation)
	}

	if err != nil {
		return "", "", fmt.Errorf("MetadataUseCase - GeneratePresignedURL: %w", err)
	}

	return url, objectName, nil
}

// Upload validates and stores an image under a generated unique name.
// Validation failures surface before any object-store write. The payload is
// buffered so a failed upload can be retried from the start.
func (uc *MetadataUseCase) Upload(ctx context.Context, data []byte, contentType string, ownerID *string) (string, error) {
	size := int64(len(data))
	if size <= 0 || size > MaxUploadSize {
		return "", fmt.Errorf("MetadataUseCase - Upload - maximum file size is %d bytes: %w", MaxUploadSize, errs.ErrValidation)
	}

	ext, ok := SupportedFileTypes[contentType]
	if !ok {
		return "", fmt.Errorf("MetadataUseCase - Upload - unsupported file type %q: %w", contentType, errs.ErrValidation)
	}

	fileName := fmt.Sprintf("%s.%s", uuid.New(), ext)
	objectName := ObjectName(fileName, ownerID)

	err := uc.retry.Do(ctx, func() error {
		return uc.objectStore.Upload(ctx, objectName, bytes.NewReader(data), contentType, size)
	})
	if err != nil {
		uc.logger.Error(err, "MetadataUseCase - Upload - uc.objectStore.Upload, key=%s", objectName)

		return "", fmt.Errorf("MetadataUseCase - Upload - uc.objectStore.Upload: %w", err)
	}

	return fileName, nil
}

// ObjectName builds the namespaced object key for a file.
func ObjectName(fileName string, ownerID *string) string {
	if ownerID != nil && *ownerID != "" {
		return fmt.Sprintf("%s/%s", *ownerID, fileName)
	}
	return fmt.Sprintf("%s/%s", entity.GeneralNamespace, fileName)
}
