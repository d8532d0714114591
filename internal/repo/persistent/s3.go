package persistent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ecosort/recyclesort/internal/repo"
	"github.com/ecosort/recyclesort/pkg/s3client"
	"github.com/ecosort/recyclesort/pkg/types/errs"
)

// ObjectStoreRepo is the object store gateway: blob metadata, prefix
// listings, direct uploads and scoped presigned URLs for one bucket.
type ObjectStoreRepo struct {
	*s3client.S3Client
	bucket string
}

func NewObjectStoreRepo(s3c *s3client.S3Client, bucket string) *ObjectStoreRepo {
	return &ObjectStoreRepo{s3c, bucket}
}

func (r *ObjectStoreRepo) Head(ctx context.Context, key string) (repo.ObjectMeta, error) {
	out, err := r.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return repo.ObjectMeta{}, fmt.Errorf("ObjectStoreRepo - Head: %w", errs.ErrObjectNotFound)
		}
		return repo.ObjectMeta{}, fmt.Errorf("ObjectStoreRepo - Head - r.Client.HeadObject: %w: %w", errs.ErrUpstreamUnavailable, err)
	}

	meta := repo.ObjectMeta{
		SizeBytes:   aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		meta.LastModified = *out.LastModified
	}

	return meta, nil
}

func (r *ObjectStoreRepo) List(ctx context.Context, prefix string) ([]repo.ObjectInfo, error) {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	out, err := r.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("ObjectStoreRepo - List - r.Client.ListObjectsV2: %w: %w", errs.ErrUpstreamUnavailable, err)
	}

	objects := make([]repo.ObjectInfo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		info := repo.ObjectInfo{
			Key:       aws.ToString(obj.Key),
			SizeBytes: aws.ToInt64(obj.Size),
		}
		if obj.LastModified != nil {
			info.LastModified = *obj.LastModified
		}
		objects = append(objects, info)
	}

	return objects, nil
}

func (r *ObjectStoreRepo) Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	_, err := r.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          data,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("ObjectStoreRepo - Upload - r.Client.PutObject: %w: %w", errs.ErrUpstreamUnavailable, err)
	}

	return nil
}

func (r *ObjectStoreRepo) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := r.Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("ObjectStoreRepo - PresignGet - r.Presign.PresignGetObject: %w: %w", errs.ErrUpstreamUnavailable, err)
	}

	return req.URL, nil
}

func (r *ObjectStoreRepo) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	req, err := r.Presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("ObjectStoreRepo - PresignPut - r.Presign.PresignPutObject: %w: %w", errs.ErrUpstreamUnavailable, err)
	}

	return req.URL, nil
}
