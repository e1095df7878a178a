package predictor

import (
	"strings"
	"unicode"
)

// Vectorizer maps raw text onto the fixed feature space a classifier was
// trained against. When IDF weights are present term counts are reweighted,
// otherwise plain counts are used.
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf,omitempty"`
}

// Transform converts text into a feature vector over the vocabulary.
// Unknown tokens are dropped, matching how the vectorizer behaved at
// training time.
func (v *Vectorizer) Transform(text string) []float64 {
	features := make([]float64, len(v.Vocabulary))
	for _, token := range tokenize(text) {
		idx, ok := v.Vocabulary[token]
		if !ok || idx < 0 || idx >= len(features) {
			continue
		}
		features[idx]++
	}
	if len(v.IDF) == len(features) {
		for i := range features {
			if features[i] != 0 {
				features[i] *= v.IDF[i]
			}
		}
	}
	return features
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
