package dto

import (
	"time"

	"github.com/ecosort/recyclesort/internal/entity"
)

// ObjectStoredEvent is emitted by the object store when a blob lands in a
// bucket.
type ObjectStoredEvent struct {
	BucketName string `json:"bucket_name"`
	ObjectKey  string `json:"object_key"`
}

// AnalysisResult is the typed stage-1 output consumed by stage 2. StatusCode
// is routing data: stage 2 short-circuits on anything other than 200 without
// retrying upstream failures.
type AnalysisResult struct {
	StatusCode int `json:"status_code"`

	Labels    []entity.Label `json:"labels,omitempty"`
	ObjectKey string         `json:"object_key,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty"`

	Error        string `json:"error,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// InferenceResult is the stage-2 outcome envelope.
type InferenceResult struct {
	StatusCode int `json:"status_code"`

	Outcome string `json:"outcome,omitempty"` // matched, unclassified

	Error        string `json:"error,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func FailedAnalysis(code string, message string) AnalysisResult {
	return AnalysisResult{
		StatusCode:   400,
		Error:        code,
		ErrorMessage: message,
	}
}

func FailedInference(code string, message string) InferenceResult {
	return InferenceResult{
		StatusCode:   400,
		Error:        code,
		ErrorMessage: message,
	}
}
