package predictor

import "fmt"

// ModelUnavailableError reports that a subsystem's predictor was never
// loaded. The orchestrator turns it into a service-unavailable response
// instead of a generic failure.
type ModelUnavailableError struct {
	Subsystem string
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("%s model not loaded", e.Subsystem)
}

// Classification is the uniform result shape the adapter produces for every
// predictor family. Confidence is nil when the underlying predictor cannot
// produce calibrated probabilities; nil is distinct from a genuine zero.
type Classification struct {
	Index      int
	Label      string
	Confidence *float64
}

// DecodeFunc turns a predicted class index back into its label. A nil
// DecodeFunc is an identity decode: the caller interprets the index
// directly (the spam detector's boolean output needs no decoding table).
type DecodeFunc func(index int) (string, error)

// Adapter wraps one predictor together with its vectorizer and label
// decoding step, exposing the best available confidence regardless of the
// predictor's capability surface. The probability capability is probed once
// at construction, not per call.
type Adapter struct {
	subsystem  string
	vectorizer *Vectorizer
	predictor  Predictor
	proba      ProbabilisticPredictor
	decode     DecodeFunc
}

// NewAdapter builds an adapter for the given subsystem. predictor and
// vectorizer may be nil when the artifacts failed to load; the adapter is
// then constructed but unavailable.
func NewAdapter(subsystem string, vectorizer *Vectorizer, p Predictor, decode DecodeFunc) *Adapter {
	a := &Adapter{
		subsystem:  subsystem,
		vectorizer: vectorizer,
		predictor:  p,
		decode:     decode,
	}
	if pp, ok := p.(ProbabilisticPredictor); ok {
		a.proba = pp
	}
	return a
}

// Subsystem returns the name used in unavailability errors.
func (a *Adapter) Subsystem() string { return a.subsystem }

// Available reports whether the underlying predictor was loaded.
func (a *Adapter) Available() bool {
	return a.predictor != nil && a.vectorizer != nil
}

// Classify runs the wrapped predictor on text. When the predictor produces
// probability distributions the winning label's probability is returned as
// confidence; otherwise confidence is absent.
func (a *Adapter) Classify(text string) (*Classification, error) {
	if !a.Available() {
		return nil, &ModelUnavailableError{Subsystem: a.subsystem}
	}

	features := a.vectorizer.Transform(text)

	var (
		index      int
		confidence *float64
	)
	if a.proba != nil {
		probs, err := a.proba.PredictProba(features)
		if err != nil {
			return nil, fmt.Errorf("%s inference failed: %w", a.subsystem, err)
		}
		index = argmax(probs)
		c := probs[index]
		confidence = &c
	} else {
		var err error
		index, err = a.predictor.Predict(features)
		if err != nil {
			return nil, fmt.Errorf("%s inference failed: %w", a.subsystem, err)
		}
	}

	result := &Classification{Index: index, Confidence: confidence}
	if a.decode != nil {
		label, err := a.decode(index)
		if err != nil {
			return nil, fmt.Errorf("%s label decode failed: %w", a.subsystem, err)
		}
		result.Label = label
	}
	return result, nil
}
