package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ecosort/recyclesort/internal/dto"
	"github.com/ecosort/recyclesort/internal/entity"
	"github.com/ecosort/recyclesort/internal/infrastructure"
	"github.com/ecosort/recyclesort/internal/repo"
	"github.com/ecosort/recyclesort/internal/usecase"
	"github.com/ecosort/recyclesort/internal/usecase/resolver"
	"github.com/ecosort/recyclesort/pkg/logger"
	"github.com/ecosort/recyclesort/pkg/retry"
	"github.com/ecosort/recyclesort/pkg/types/errs"
)

// PipelineUseCase runs the two enrichment stages. Each invocation is
// stateless and owns one event end-to-end; duplicate deliveries are
// tolerated because the stage-1 write is an idempotent upsert on the exact
// composite key.
type PipelineUseCase struct {
	objectStore repo.ObjectStore
	metadata    repo.MetadataRepo
	detector    infrastructure.LabelDetector
	resolver    usecase.ResolverUseCase
	results     infrastructure.ResultPublisher
	retry       *retry.Policy

	maxLabels     int32
	minConfidence float32

	logger logger.Interface

	// now is swappable in tests; records are stamped in UTC.
	now func() time.Time
}

func New(
	objectStore repo.ObjectStore,
	metadata repo.MetadataRepo,
	detector infrastructure.LabelDetector,
	rsl usecase.ResolverUseCase,
	results infrastructure.ResultPublisher,
	retryPolicy *retry.Policy,
	maxLabels int32,
	minConfidence float32,
	l logger.Interface,
) *PipelineUseCase {
	return &PipelineUseCase{
		objectStore:   objectStore,
		metadata:      metadata,
		detector:      detector,
		resolver:      rsl,
		results:       results,
		retry:         retryPolicy,
		maxLabels:     maxLabels,
		minConfidence: minConfidence,
		logger:        l,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// AnalyzeStored is stage 1: fetch object metadata, persist the initial
// record, invoke the labeling oracle and emit the typed result for stage 2.
// Failures abort the stage with a 400 result and no partial record.
func (uc *PipelineUseCase) AnalyzeStored(ctx context.Context, event dto.ObjectStoredEvent) dto.AnalysisResult {
	// 1. object metadata from the store, with bounded retries
	var meta repo.ObjectMeta
	err := uc.retry.Do(ctx, func() error {
		var headErr error
		meta, headErr = uc.objectStore.Head(ctx, event.ObjectKey)
		return headErr
	})
	if err != nil {
		uc.logger.Error(err, "PipelineUseCase - AnalyzeStored - uc.objectStore.Head, key=%s", event.ObjectKey)

		return dto.FailedAnalysis(errCode(err), fmt.Sprintf("couldn't analyze image %s: %s", event.ObjectKey, err))
	}

	// 2. derive owner and file name from the key
	owner, fileName := entity.SplitObjectKey(event.ObjectKey)

	record := &entity.ImageRecord{
		ObjectKey:   event.ObjectKey,
		CreatedAt:   uc.now(),
		BucketName:  event.BucketName,
		FileName:    fileName,
		SizeBytes:   meta.SizeBytes,
		ContentType: meta.ContentType,
		OwnerID:     owner,
	}

	// 3. create-or-replace the record on the composite key
	err = uc.retry.Do(ctx, func() error {
		return uc.metadata.Put(ctx, record)
	})
	if err != nil {
		uc.logger.Error(err, "PipelineUseCase - AnalyzeStored - uc.metadata.Put, key=%s", event.ObjectKey)

		return dto.FailedAnalysis(errCode(err), fmt.Sprintf("couldn't persist metadata for %s: %s", event.ObjectKey, err))
	}

	// 4. labeling oracle
	var labels []entity.Label
	err = uc.retry.Do(ctx, func() error {
		var detectErr error
		labels, detectErr = uc.detector.Detect(ctx, event.BucketName, event.ObjectKey, uc.maxLabels, uc.minConfidence)
		return detectErr
	})
	if err != nil {
		uc.logger.Error(err, "PipelineUseCase - AnalyzeStored - uc.detector.Detect, key=%s", event.ObjectKey)

		return dto.FailedAnalysis(errCode(err), fmt.Sprintf("couldn't analyze image %s: %s", event.ObjectKey, err))
	}

	return dto.AnalysisResult{
		StatusCode: http.StatusOK,
		Labels:     labels,
		ObjectKey:  event.ObjectKey,
		CreatedAt:  record.CreatedAt,
	}
}

// InferRecyclability is stage 2: resolve the labels against the pairwise
// rule table, publish a match and enrich the record addressed by the
// composite key carried through from stage 1.
func (uc *PipelineUseCase) InferRecyclability(ctx context.Context, result dto.AnalysisResult) dto.InferenceResult {
	// Upstream failures are surfaced as-is, not retried here.
	if result.StatusCode != http.StatusOK {
		uc.logger.Warn("PipelineUseCase - InferRecyclability - skipping failed analysis, key=%s error=%s", result.ObjectKey, result.Error)

		return dto.FailedInference(result.Error, result.ErrorMessage)
	}

	resolution, err := uc.resolver.Resolve(ctx, result.Labels)
	if err != nil {
		uc.logger.Error(err, "PipelineUseCase - InferRecyclability - uc.resolver.Resolve, key=%s", result.ObjectKey)

		return dto.FailedInference(errCode(err), fmt.Sprintf("couldn't resolve labels for %s: %s", result.ObjectKey, err))
	}

	// Labels are known regardless of the resolution outcome; set exactly
	// once before any classification write (stage ordering invariant).
	err = uc.retry.Do(ctx, func() error {
		return uc.metadata.SetInferenceResults(ctx, result.ObjectKey, result.CreatedAt, result.Labels)
	})
	if err != nil {
		uc.logger.Error(err, "PipelineUseCase - InferRecyclability - uc.metadata.SetInferenceResults, key=%s", result.ObjectKey)

		return dto.FailedInference(errCode(err), fmt.Sprintf("couldn't update metadata for %s: %s", result.ObjectKey, err))
	}

	if resolution.Outcome == resolver.OutcomeUnclassified {
		// A miss is a first-class outcome: logged, never silent.
		uc.logger.Info("PipelineUseCase - InferRecyclability - unclassified, key=%s labels=%d: %s", result.ObjectKey, len(result.Labels), errs.ErrUnclassified)

		return dto.InferenceResult{StatusCode: http.StatusOK, Outcome: string(resolver.OutcomeUnclassified)}
	}

	// 1. publish the matched rule payload to the results topic
	payload, err := json.Marshal(resolution.Rule)
	if err != nil {
		uc.logger.Error(err, "PipelineUseCase - InferRecyclability - json.Marshal, key=%s", result.ObjectKey)

		return dto.FailedInference("MarshalError", err.Error())
	}

	err = uc.retry.Do(ctx, func() error {
		return uc.results.Publish(ctx, result.ObjectKey, payload)
	})
	if err != nil {
		uc.logger.Error(err, "PipelineUseCase - InferRecyclability - uc.results.Publish, key=%s", result.ObjectKey)

		return dto.FailedInference(errCode(err), fmt.Sprintf("couldn't publish result for %s: %s", result.ObjectKey, err))
	}

	// 2. enrich the record with the classification
	err = uc.retry.Do(ctx, func() error {
		return uc.metadata.SetClassification(ctx, result.ObjectKey, result.CreatedAt, resolution.Rule)
	})
	if err != nil {
		uc.logger.Error(err, "PipelineUseCase - InferRecyclability - uc.metadata.SetClassification, key=%s", result.ObjectKey)

		return dto.FailedInference(errCode(err), fmt.Sprintf("couldn't update metadata for %s: %s", result.ObjectKey, err))
	}

	return dto.InferenceResult{StatusCode: http.StatusOK, Outcome: string(resolver.OutcomeMatched)}
}

func errCode(err error) string {
	switch {
	case errors.Is(err, errs.ErrObjectNotFound), errors.Is(err, errs.ErrRecordNotFound):
		return "NotFound"
	case errors.Is(err, errs.ErrValidation):
		return "ValidationError"
	default:
		return "UpstreamUnavailable"
	}
}
