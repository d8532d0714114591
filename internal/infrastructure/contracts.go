package infrastructure

import (
	"context"

	"github.com/ecosort/recyclesort/internal/entity"
)

type (
	// LabelDetector is the labeling oracle: an opaque, non-deterministic
	// classification service returning ranked labels with confidence.
	LabelDetector interface {
		Detect(ctx context.Context, bucket, key string, maxLabels int32, minConfidence float32) ([]entity.Label, error)
	}

	// ResultPublisher delivers payloads to a pub/sub topic with
	// at-least-once, acknowledged delivery.
	ResultPublisher interface {
		Publish(ctx context.Context, key string, payload []byte) error
		Close() error
	}
)
