package predictor

import (
	"fmt"
	"math"
)

// Predictor is a trained classifier that produces a hard label index for a
// feature vector.
type Predictor interface {
	Predict(features []float64) (int, error)
}

// ProbabilisticPredictor is a Predictor that can additionally produce a full
// probability distribution over label indices.
type ProbabilisticPredictor interface {
	Predictor
	PredictProba(features []float64) ([]float64, error)
}

// NaiveBayes is a multinomial naive-Bayes classifier with parameters
// exported from a trained model.
type NaiveBayes struct {
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"` // [class][feature]
}

// PredictProba returns the posterior probability for each class.
func (m *NaiveBayes) PredictProba(features []float64) ([]float64, error) {
	if len(m.ClassLogPrior) == 0 || len(m.FeatureLogProb) != len(m.ClassLogPrior) {
		return nil, fmt.Errorf("naive bayes parameters are inconsistent: %d priors, %d likelihood rows",
			len(m.ClassLogPrior), len(m.FeatureLogProb))
	}

	joint := make([]float64, len(m.ClassLogPrior))
	for c := range m.ClassLogPrior {
		row := m.FeatureLogProb[c]
		if len(row) != len(features) {
			return nil, fmt.Errorf("feature vector has %d dimensions, model expects %d", len(features), len(row))
		}
		sum := m.ClassLogPrior[c]
		for i, f := range features {
			if f != 0 {
				sum += f * row[i]
			}
		}
		joint[c] = sum
	}

	// Normalize in log space to avoid underflow.
	max := joint[0]
	for _, v := range joint[1:] {
		if v > max {
			max = v
		}
	}
	var total float64
	for c, v := range joint {
		joint[c] = math.Exp(v - max)
		total += joint[c]
	}
	for c := range joint {
		joint[c] /= total
	}
	return joint, nil
}

// Predict returns the most probable class index.
func (m *NaiveBayes) Predict(features []float64) (int, error) {
	probs, err := m.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return argmax(probs), nil
}

// LinearSVC is a linear support-vector classifier. Its decision function
// yields a hard label only; the margins are not calibrated probabilities.
type LinearSVC struct {
	Coef      [][]float64 `json:"coef"` // one row for binary, one per class otherwise
	Intercept []float64   `json:"intercept"`
}

// Predict returns the class index with the highest decision score. For the
// binary case a positive score selects class 1.
func (m *LinearSVC) Predict(features []float64) (int, error) {
	if len(m.Coef) == 0 || len(m.Coef) != len(m.Intercept) {
		return 0, fmt.Errorf("linear svc parameters are inconsistent: %d weight rows, %d intercepts",
			len(m.Coef), len(m.Intercept))
	}

	scores := make([]float64, len(m.Coef))
	for c, row := range m.Coef {
		if len(row) != len(features) {
			return 0, fmt.Errorf("feature vector has %d dimensions, model expects %d", len(features), len(row))
		}
		sum := m.Intercept[c]
		for i, f := range features {
			if f != 0 {
				sum += f * row[i]
			}
		}
		scores[c] = sum
	}

	if len(scores) == 1 {
		if scores[0] > 0 {
			return 1, nil
		}
		return 0, nil
	}
	return argmax(scores), nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
