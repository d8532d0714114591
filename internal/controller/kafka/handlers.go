package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/ecosort/recyclesort/internal/dto"
	"github.com/ecosort/recyclesort/internal/infrastructure"
	"github.com/ecosort/recyclesort/internal/metrics"
	"github.com/ecosort/recyclesort/internal/usecase"
	"github.com/ecosort/recyclesort/pkg/logger"
)

// NewAnalysisHandler reacts to object-stored events: runs stage 1 and
// forwards the typed result (success or failure envelope) to the labels
// topic, where stage 2 picks it up.
func NewAnalysisHandler(p usecase.PipelineUseCase, out infrastructure.ResultPublisher, l logger.Interface) Handler {
	return func(ctx context.Context, event kafka.Message) error {
		var stored dto.ObjectStoredEvent
		if err := json.Unmarshal(event.Value, &stored); err != nil {
			// malformed payloads never become valid on redelivery
			l.Error(err, "AnalysisHandler - json.Unmarshal")

			return nil
		}

		result := p.AnalyzeStored(ctx, stored)
		metrics.AnalysisResults.WithLabelValues(statusLabel(result.StatusCode)).Inc()

		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("AnalysisHandler - json.Marshal: %w", err)
		}

		// failure envelopes are forwarded too: stage 2 owns the
		// short-circuit policy
		if err := out.Publish(ctx, stored.ObjectKey, payload); err != nil {
			return fmt.Errorf("AnalysisHandler - out.Publish: %w", err)
		}

		return nil
	}
}

// NewInferenceHandler reacts to stage-1 results: runs the resolver, updates
// the record and publishes matched rules to the notification topic.
func NewInferenceHandler(p usecase.PipelineUseCase, l logger.Interface) Handler {
	return func(ctx context.Context, event kafka.Message) error {
		var analysis dto.AnalysisResult
		if err := json.Unmarshal(event.Value, &analysis); err != nil {
			l.Error(err, "InferenceHandler - json.Unmarshal")

			return nil
		}

		result := p.InferRecyclability(ctx, analysis)
		metrics.InferenceResults.WithLabelValues(outcomeLabel(result)).Inc()

		return nil
	}
}

func statusLabel(code int) string {
	if code == 200 {
		return "ok"
	}
	return "failed"
}

func outcomeLabel(result dto.InferenceResult) string {
	if result.Outcome != "" {
		return result.Outcome
	}
	return "failed"
}
