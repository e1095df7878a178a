package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHardLabel struct {
	index int
}

func (s *stubHardLabel) Predict(features []float64) (int, error) { return s.index, nil }

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

func testVectorizer() *Vectorizer {
	return &Vectorizer{Vocabulary: map[string]int{"text": 0}}
}

func TestAdapter_ProbabilisticPredictorReturnsConfidence(t *testing.T) {
	stub := &stubProbabilistic{probs: []float64{0.03, 0.97}}
	a := NewAdapter("spam detection", testVectorizer(), stub, nil)

	cls, err := a.Classify("buy now!!! click here for free money")
	require.NoError(t, err)
	assert.Equal(t, 1, cls.Index)
	require.NotNil(t, cls.Confidence)
	assert.InDelta(t, 0.97, *cls.Confidence, 1e-9)
}

func TestAdapter_HardLabelPredictorHasNoConfidence(t *testing.T) {
	a := NewAdapter("spam detection", testVectorizer(), &stubHardLabel{index: 1}, nil)

	cls, err := a.Classify("buy now!!! click here")
	require.NoError(t, err)
	assert.Equal(t, 1, cls.Index)
	assert.Nil(t, cls.Confidence, "absent confidence must stay distinguishable from zero")
}

func TestAdapter_DecodesLabels(t *testing.T) {
	labels := []string{"billing", "technical", "service"}
	decode := func(i int) (string, error) { return labels[i], nil }

	stub := &stubProbabilistic{probs: []float64{0.1, 0.7, 0.2}}
	a := NewAdapter("grievance classification", testVectorizer(), stub, decode)

	cls, err := a.Classify("my internet connection keeps dropping")
	require.NoError(t, err)
	assert.Equal(t, "technical", cls.Label)
	require.NotNil(t, cls.Confidence)
	assert.InDelta(t, 0.7, *cls.Confidence, 1e-9)
}

func TestAdapter_UnavailableWhenPredictorUnset(t *testing.T) {
	a := NewAdapter("spam detection", nil, nil, nil)
	assert.False(t, a.Available())

	_, err := a.Classify("some text that is long enough")
	var unavailable *ModelUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "spam detection", unavailable.Subsystem)
}

func TestAdapter_ClassifyIsIdempotent(t *testing.T) {
	stub := &stubProbabilistic{probs: []float64{0.2, 0.8}}
	a := NewAdapter("grievance classification", testVectorizer(), stub,
		func(i int) (string, error) { return []string{"water", "roads"}[i], nil })

	first, err := a.Classify("the road outside my house is damaged")
	require.NoError(t, err)
	second, err := a.Classify("the road outside my house is damaged")
	require.NoError(t, err)

	assert.Equal(t, first.Label, second.Label)
	assert.Equal(t, *first.Confidence, *second.Confidence)
}

func TestAdapter_ConfidenceWithinBounds(t *testing.T) {
	// A real naive-Bayes model rather than a stub, so the probability comes
	// out of the actual normalization path.
	v := &Vectorizer{Vocabulary: map[string]int{"free": 0, "money": 1, "meeting": 2}}
	m := &NaiveBayes{
		ClassLogPrior: []float64{-0.693147, -0.693147},
		FeatureLogProb: [][]float64{
			{-3.0, -3.0, -0.2},
			{-0.3, -0.4, -4.0},
		},
	}
	a := NewAdapter("spam detection", v, m, nil)

	cls, err := a.Classify("free money free money")
	require.NoError(t, err)
	require.NotNil(t, cls.Confidence)
	assert.GreaterOrEqual(t, *cls.Confidence, 0.0)
	assert.LessOrEqual(t, *cls.Confidence, 1.0)
	assert.Equal(t, 1, cls.Index)
}
