package rekognition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/ecosort/recyclesort/internal/entity"
	"github.com/ecosort/recyclesort/pkg/types/errs"
)

// Detector adapts Amazon Rekognition to the labeling oracle contract. The
// service is invoked on the object reference, never on downloaded bytes.
type Detector struct {
	client *rekognition.Client
}

func New(ctx context.Context, region, accessKey, secretKey string) (*Detector, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("Detector - New - config.LoadDefaultConfig: %w", err)
	}

	return &Detector{client: rekognition.NewFromConfig(cfg)}, nil
}

func (d *Detector) Detect(ctx context.Context, bucket, key string, maxLabels int32, minConfidence float32) ([]entity.Label, error) {
	out, err := d.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(bucket),
				Name:   aws.String(key),
			},
		},
		MaxLabels:     aws.Int32(maxLabels),
		MinConfidence: aws.Float32(minConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("Detector - Detect - d.client.DetectLabels: %w: %w", errs.ErrUpstreamUnavailable, err)
	}

	labels := make([]entity.Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		labels = append(labels, entity.Label{
			Name:       aws.ToString(l.Name),
			Confidence: float64(aws.ToFloat32(l.Confidence)),
		})
	}

	return labels, nil
}
