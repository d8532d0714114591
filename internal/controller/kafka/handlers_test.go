package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	segkafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosort/recyclesort/internal/dto"
	"github.com/ecosort/recyclesort/internal/entity"
)

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(interface{}, ...interface{}) {}
func (nopLogger) Fatal(interface{}, ...interface{}) {}

type fakePipeline struct {
	analyzed       []dto.ObjectStoredEvent
	analysisResult dto.AnalysisResult

	inferred    []dto.AnalysisResult
	inferResult dto.InferenceResult
}

func (f *fakePipeline) AnalyzeStored(_ context.Context, event dto.ObjectStoredEvent) dto.AnalysisResult {
	f.analyzed = append(f.analyzed, event)
	return f.analysisResult
}

func (f *fakePipeline) InferRecyclability(_ context.Context, result dto.AnalysisResult) dto.InferenceResult {
	f.inferred = append(f.inferred, result)
	return f.inferResult
}

type fakePublisher struct {
	keys     []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, key string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func message(t *testing.T, v interface{}) segkafka.Message {
	t.Helper()

	value, err := json.Marshal(v)
	require.NoError(t, err)

	return segkafka.Message{Value: value}
}

func TestAnalysisHandler_ForwardsResultToLabelsTopic(t *testing.T) {
	p := &fakePipeline{analysisResult: dto.AnalysisResult{
		StatusCode: http.StatusOK,
		ObjectKey:  "u1/photo.png",
		Labels:     []entity.Label{{Name: "Bottle", Confidence: 91}},
	}}
	out := &fakePublisher{}

	handler := NewAnalysisHandler(p, out, nopLogger{})

	event := dto.ObjectStoredEvent{BucketName: "images", ObjectKey: "u1/photo.png"}
	err := handler(context.Background(), message(t, event))
	require.NoError(t, err)

	require.Len(t, p.analyzed, 1)
	assert.Equal(t, event, p.analyzed[0])

	require.Len(t, out.payloads, 1)
	assert.Equal(t, "u1/photo.png", out.keys[0])

	var forwarded dto.AnalysisResult
	require.NoError(t, json.Unmarshal(out.payloads[0], &forwarded))
	assert.Equal(t, p.analysisResult, forwarded)
}

func TestAnalysisHandler_ForwardsFailureEnvelope(t *testing.T) {
	p := &fakePipeline{analysisResult: dto.FailedAnalysis("NotFound", "couldn't analyze image u1/gone.png")}
	out := &fakePublisher{}

	handler := NewAnalysisHandler(p, out, nopLogger{})

	err := handler(context.Background(), message(t, dto.ObjectStoredEvent{ObjectKey: "u1/gone.png"}))
	require.NoError(t, err)

	require.Len(t, out.payloads, 1, "downstream stage owns the short-circuit policy")

	var forwarded dto.AnalysisResult
	require.NoError(t, json.Unmarshal(out.payloads[0], &forwarded))
	assert.Equal(t, http.StatusBadRequest, forwarded.StatusCode)
	assert.Equal(t, "NotFound", forwarded.Error)
}

func TestAnalysisHandler_MalformedPayloadCommitted(t *testing.T) {
	p := &fakePipeline{}
	out := &fakePublisher{}

	handler := NewAnalysisHandler(p, out, nopLogger{})

	err := handler(context.Background(), segkafka.Message{Value: []byte("{not json")})
	require.NoError(t, err, "poison messages must be committed, not redelivered")

	assert.Empty(t, p.analyzed)
	assert.Empty(t, out.payloads)
}

func TestAnalysisHandler_PublishFailureReturnsError(t *testing.T) {
	p := &fakePipeline{analysisResult: dto.AnalysisResult{StatusCode: http.StatusOK, ObjectKey: "u1/a.png"}}
	out := &fakePublisher{err: errors.New("broker down")}

	handler := NewAnalysisHandler(p, out, nopLogger{})

	err := handler(context.Background(), message(t, dto.ObjectStoredEvent{ObjectKey: "u1/a.png"}))
	require.Error(t, err)
}

func TestInferenceHandler_RunsStageTwo(t *testing.T) {
	p := &fakePipeline{inferResult: dto.InferenceResult{StatusCode: http.StatusOK, Outcome: "matched"}}

	handler := NewInferenceHandler(p, nopLogger{})

	analysis := dto.AnalysisResult{
		StatusCode: http.StatusOK,
		ObjectKey:  "u1/photo.png",
		Labels:     []entity.Label{{Name: "Bottle"}, {Name: "Plastic"}},
	}
	err := handler(context.Background(), message(t, analysis))
	require.NoError(t, err)

	require.Len(t, p.inferred, 1)
	assert.Equal(t, analysis.ObjectKey, p.inferred[0].ObjectKey)
	assert.Equal(t, analysis.Labels, p.inferred[0].Labels)
}

func TestInferenceHandler_MalformedPayloadCommitted(t *testing.T) {
	p := &fakePipeline{}

	handler := NewInferenceHandler(p, nopLogger{})

	err := handler(context.Background(), segkafka.Message{Value: []byte("???")})
	require.NoError(t, err)

	assert.Empty(t, p.inferred)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "ok", statusLabel(http.StatusOK))
	assert.Equal(t, "failed", statusLabel(http.StatusBadRequest))
}

func TestOutcomeLabel(t *testing.T) {
	assert.Equal(t, "matched", outcomeLabel(dto.InferenceResult{Outcome: "matched"}))
	assert.Equal(t, "unclassified", outcomeLabel(dto.InferenceResult{Outcome: "unclassified"}))
	assert.Equal(t, "failed", outcomeLabel(dto.InferenceResult{StatusCode: http.StatusBadRequest}))
}
