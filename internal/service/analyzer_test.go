package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sahay-api/internal/predictor"
	"sahay-api/internal/repository"
)

type stubProbabilistic struct {
	probs []float64
}

func (s *stubProbabilistic) Predict(features []float64) (int, error) {
	best := 0
	for i, p := range s.probs {
		if p > s.probs[best] {
			best = i
		}
	}
	return best, nil
}

func (s *stubProbabilistic) PredictProba(features []float64) ([]float64, error) {
	return s.probs, nil
}

type stubHardLabel struct {
	index int
}

func (s *stubHardLabel) Predict(features []float64) (int, error) { return s.index, nil }

func grievanceAdapter(probs []float64, labels ...string) *predictor.Adapter {
	return predictor.NewAdapter("grievance classification",
		&predictor.Vectorizer{Vocabulary: map[string]int{"text": 0}},
		&stubProbabilistic{probs: probs},
		func(i int) (string, error) { return labels[i], nil })
}

func spamAdapter(probs []float64) *predictor.Adapter {
	return predictor.NewAdapter("spam detection",
		&predictor.Vectorizer{Vocabulary: map[string]int{"text": 0}},
		&stubProbabilistic{probs: probs},
		nil)
}

func unavailableAdapter(subsystem string) *predictor.Adapter {
	return predictor.NewAdapter(subsystem, nil, nil, nil)
}

func newAnalyzer(grievance, spam *predictor.Adapter) *Analyzer {
	return NewAnalyzer(grievance, spam, nil, zap.NewNop())
}

func TestValidation_ShortInputRejectedRegardlessOfModelState(t *testing.T) {
	ctx := context.Background()

	// Even with every model missing, too-short input must still fail with
	// invalid input, not unavailability.
	a := newAnalyzer(unavailableAdapter("grievance classification"), unavailableAdapter("spam detection"))

	for _, text := range []string{"", "   ", "hi", "  ab  ", "1234"} {
		_, err := a.ClassifyGrievance(ctx, text)
		assert.ErrorIs(t, err, ErrInvalidInput, "ClassifyGrievance(%q)", text)

		_, err = a.DetectSpam(ctx, text)
		assert.ErrorIs(t, err, ErrInvalidInput, "DetectSpam(%q)", text)

		_, err = a.Analyze(ctx, text)
		assert.ErrorIs(t, err, ErrInvalidInput, "Analyze(%q)", text)
	}
}

func TestClassifyGrievance_Success(t *testing.T) {
	a := newAnalyzer(grievanceAdapter([]float64{0.1, 0.8, 0.1}, "billing", "water", "roads"), spamAdapter([]float64{0.5, 0.5}))

	result, err := a.ClassifyGrievance(context.Background(), "no water supply since monday")
	require.NoError(t, err)
	assert.Equal(t, "water", result.Category)
	require.NotNil(t, result.Confidence)
	assert.InDelta(t, 0.8, *result.Confidence, 1e-9)
}

func TestClassifyGrievance_Idempotent(t *testing.T) {
	a := newAnalyzer(grievanceAdapter([]float64{0.3, 0.7}, "billing", "water"), spamAdapter([]float64{0.5, 0.5}))

	first, err := a.ClassifyGrievance(context.Background(), "no water supply since monday")
	require.NoError(t, err)
	second, err := a.ClassifyGrievance(context.Background(), "no water supply since monday")
	require.NoError(t, err)

	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, *first.Confidence, *second.Confidence)
}

func TestDetectSpam_ProbabilisticScenario(t *testing.T) {
	a := newAnalyzer(unavailableAdapter("grievance classification"), spamAdapter([]float64{0.03, 0.97}))

	result, err := a.DetectSpam(context.Background(), "buy now!!! click here for free money")
	require.NoError(t, err)
	assert.True(t, result.IsSpam)
	require.NotNil(t, result.Confidence)
	assert.InDelta(t, 0.97, *result.Confidence, 1e-9)
}

func TestDetectSpam_HardLabelHasNoConfidence(t *testing.T) {
	spam := predictor.NewAdapter("spam detection",
		&predictor.Vectorizer{Vocabulary: map[string]int{"text": 0}},
		&stubHardLabel{index: 0}, nil)
	a := newAnalyzer(unavailableAdapter("grievance classification"), spam)

	result, err := a.DetectSpam(context.Background(), "please fix the streetlight on my road")
	require.NoError(t, err)
	assert.False(t, result.IsSpam)
	assert.Nil(t, result.Confidence)
}

func TestSubsystemsDegradeIndependently(t *testing.T) {
	ctx := context.Background()
	a := newAnalyzer(unavailableAdapter("grievance classification"), spamAdapter([]float64{0.9, 0.1}))

	_, err := a.ClassifyGrievance(ctx, "no water supply since monday")
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"grievance classification"}, unavailable.Subsystems)

	// The same text still passes through spam detection.
	result, err := a.DetectSpam(ctx, "no water supply since monday")
	require.NoError(t, err)
	assert.False(t, result.IsSpam)
}

func TestAnalyze_ListsAllMissingSubsystems(t *testing.T) {
	a := newAnalyzer(unavailableAdapter("grievance classification"), unavailableAdapter("spam detection"))

	_, err := a.Analyze(context.Background(), "no water supply since monday")
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"grievance classification", "spam detection"}, unavailable.Subsystems)
}

func TestAnalyze_PartialAvailabilityIsAHardFailure(t *testing.T) {
	a := newAnalyzer(grievanceAdapter([]float64{1.0}, "billing"), unavailableAdapter("spam detection"))

	result, err := a.Analyze(context.Background(), "wrong amount on my bill")
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"spam detection"}, unavailable.Subsystems)
	assert.Nil(t, result, "no partially populated result may be returned")
}

func TestAnalyze_MergesBothResults(t *testing.T) {
	a := newAnalyzer(
		grievanceAdapter([]float64{0.15, 0.85}, "billing", "roads"),
		spamAdapter([]float64{0.92, 0.08}))

	result, err := a.Analyze(context.Background(), "the road outside my house is full of potholes")
	require.NoError(t, err)
	assert.Equal(t, "roads", result.Category)
	assert.False(t, result.IsSpam)
	require.NotNil(t, result.CategoryConfidence)
	assert.InDelta(t, 0.85, *result.CategoryConfidence, 1e-9)
	require.NotNil(t, result.SpamConfidence)
	assert.InDelta(t, 0.92, *result.SpamConfidence, 1e-9)
}

type failingRecorder struct{}

func (failingRecorder) Save(rec *repository.AnalysisRecord) error {
	return errors.New("disk full")
}

type capturingRecorder struct {
	records []*repository.AnalysisRecord
}

func (c *capturingRecorder) Save(rec *repository.AnalysisRecord) error {
	c.records = append(c.records, rec)
	return nil
}

func TestRecorderFailureDoesNotFailRequest(t *testing.T) {
	a := NewAnalyzer(grievanceAdapter([]float64{1.0}, "billing"), spamAdapter([]float64{0.5, 0.5}), failingRecorder{}, zap.NewNop())

	result, err := a.ClassifyGrievance(context.Background(), "wrong amount on my bill")
	require.NoError(t, err)
	assert.Equal(t, "billing", result.Category)
}

func TestAnalyze_RecordsHistory(t *testing.T) {
	rec := &capturingRecorder{}
	a := NewAnalyzer(grievanceAdapter([]float64{1.0}, "billing"), spamAdapter([]float64{0.3, 0.7}), rec, zap.NewNop())

	_, err := a.Analyze(context.Background(), "wrong amount on my bill")
	require.NoError(t, err)

	require.Len(t, rec.records, 1)
	saved := rec.records[0]
	assert.Equal(t, "analyze", saved.Source)
	require.NotNil(t, saved.Category)
	assert.Equal(t, "billing", *saved.Category)
	require.NotNil(t, saved.IsSpam)
	assert.True(t, *saved.IsSpam)
	assert.False(t, saved.CreatedAt.IsZero())
}
