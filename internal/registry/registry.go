package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"sahay-api/internal/predictor"
)

// Artifact file names inside the models directory.
const (
	artifactClassifier   = "grievance_classifier.json"
	artifactVectorizer   = "vectorizer.json"
	artifactLabelEncoder = "label_encoder.json"
	artifactSpamModel    = "spam_model.json"
)

// Subsystem names as reported in unavailability errors.
const (
	SubsystemGrievance = "grievance classification"
	SubsystemSpam      = "spam detection"
)

// LoadResult describes the outcome of a registry load. All failure is
// captured here; Load never returns an error to its caller.
type LoadResult struct {
	Loaded  []string         // artifacts that loaded successfully
	Failed  map[string]error // artifact name -> failure reason
	Missing []string         // subsystems that are not operational
}

// FullyLoaded reports whether every subsystem is operational.
func (r LoadResult) FullyLoaded() bool { return len(r.Missing) == 0 }

// FullyFailed reports whether no artifact loaded at all.
func (r LoadResult) FullyFailed() bool { return len(r.Loaded) == 0 }

// Registry loads model artifacts at startup and hands out one adapter per
// subsystem. It is constructed once, loaded once, and read-only afterwards.
type Registry struct {
	dir    string
	logger *zap.Logger

	grievance *predictor.Adapter
	spam      *predictor.Adapter
}

// New creates a registry over the given models directory.
func New(dir string, logger *zap.Logger) *Registry {
	return &Registry{dir: dir, logger: logger}
}

// modelFile is the on-disk shape shared by classifier artifacts. Kind
// selects the predictor family; a spam artifact additionally bundles its
// own vocabulary so the pipeline is self-contained.
type modelFile struct {
	Kind           string         `json:"kind"`
	ClassLogPrior  []float64      `json:"class_log_prior,omitempty"`
	FeatureLogProb [][]float64    `json:"feature_log_prob,omitempty"`
	Coef           [][]float64    `json:"coef,omitempty"`
	Intercept      []float64      `json:"intercept,omitempty"`
	Vocabulary     map[string]int `json:"vocabulary,omitempty"`
	IDF            []float64      `json:"idf,omitempty"`
}

type labelFile struct {
	Classes []string `json:"classes"`
}

// Load attempts every artifact independently: a missing spam model must not
// disable grievance classification, and vice versa. One log entry is
// emitted per attempt.
func (r *Registry) Load() LoadResult {
	result := LoadResult{Failed: make(map[string]error)}

	classifier := r.record(artifactClassifier, &result, func() (predictor.Predictor, error) {
		mf, err := r.readModel(artifactClassifier)
		if err != nil {
			return nil, err
		}
		return buildPredictor(mf)
	})

	var vectorizer *predictor.Vectorizer
	r.record(artifactVectorizer, &result, func() (predictor.Predictor, error) {
		raw, err := r.readArtifact(artifactVectorizer)
		if err != nil {
			return nil, err
		}
		v := &predictor.Vectorizer{}
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("invalid vectorizer artifact: %w", err)
		}
		if len(v.Vocabulary) == 0 {
			return nil, fmt.Errorf("vectorizer artifact has an empty vocabulary")
		}
		vectorizer = v
		return nil, nil
	})

	var labels []string
	r.record(artifactLabelEncoder, &result, func() (predictor.Predictor, error) {
		raw, err := r.readArtifact(artifactLabelEncoder)
		if err != nil {
			return nil, err
		}
		var lf labelFile
		if err := json.Unmarshal(raw, &lf); err != nil {
			return nil, fmt.Errorf("invalid label encoder artifact: %w", err)
		}
		if len(lf.Classes) == 0 {
			return nil, fmt.Errorf("label encoder artifact has no classes")
		}
		labels = lf.Classes
		return nil, nil
	})

	var spamVectorizer *predictor.Vectorizer
	spamModel := r.record(artifactSpamModel, &result, func() (predictor.Predictor, error) {
		mf, err := r.readModel(artifactSpamModel)
		if err != nil {
			return nil, err
		}
		if len(mf.Vocabulary) == 0 {
			return nil, fmt.Errorf("spam model artifact has no vocabulary")
		}
		p, err := buildPredictor(mf)
		if err != nil {
			return nil, err
		}
		spamVectorizer = &predictor.Vectorizer{Vocabulary: mf.Vocabulary, IDF: mf.IDF}
		return p, nil
	})

	// Grievance classification needs classifier, vectorizer and label
	// decoder together; any gap makes the whole subsystem unavailable.
	if classifier == nil || vectorizer == nil || labels == nil {
		classifier, vectorizer = nil, nil
		result.Missing = append(result.Missing, SubsystemGrievance)
	}
	r.grievance = predictor.NewAdapter(SubsystemGrievance, vectorizer, classifier, decodeLabels(labels))

	if spamModel == nil {
		spamVectorizer = nil
		result.Missing = append(result.Missing, SubsystemSpam)
	}
	r.spam = predictor.NewAdapter(SubsystemSpam, spamVectorizer, spamModel, nil)

	return result
}

// GrievanceAdapter returns the grievance classification adapter. It is
// always non-nil after Load; check Available before relying on it.
func (r *Registry) GrievanceAdapter() *predictor.Adapter { return r.grievance }

// SpamAdapter returns the spam detection adapter.
func (r *Registry) SpamAdapter() *predictor.Adapter { return r.spam }

// record runs one artifact load attempt, captures its outcome in the
// result, and emits the per-attempt log entry.
func (r *Registry) record(artifact string, result *LoadResult, load func() (predictor.Predictor, error)) predictor.Predictor {
	p, err := load()
	if err != nil {
		result.Failed[artifact] = err
		r.logger.Error("Failed to load model artifact",
			zap.String("artifact", artifact),
			zap.Error(err))
		return nil
	}
	result.Loaded = append(result.Loaded, artifact)
	r.logger.Info("Model artifact loaded", zap.String("artifact", artifact))
	return p
}

func (r *Registry) readArtifact(name string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(r.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	return raw, nil
}

func (r *Registry) readModel(name string) (*modelFile, error) {
	raw, err := r.readArtifact(name)
	if err != nil {
		return nil, err
	}
	mf := &modelFile{}
	if err := json.Unmarshal(raw, mf); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}
	return mf, nil
}

func buildPredictor(mf *modelFile) (predictor.Predictor, error) {
	switch mf.Kind {
	case "naive_bayes":
		if len(mf.ClassLogPrior) == 0 || len(mf.FeatureLogProb) == 0 {
			return nil, fmt.Errorf("naive_bayes artifact is missing parameters")
		}
		return &predictor.NaiveBayes{
			ClassLogPrior:  mf.ClassLogPrior,
			FeatureLogProb: mf.FeatureLogProb,
		}, nil
	case "linear_svc":
		if len(mf.Coef) == 0 || len(mf.Intercept) == 0 {
			return nil, fmt.Errorf("linear_svc artifact is missing parameters")
		}
		return &predictor.LinearSVC{Coef: mf.Coef, Intercept: mf.Intercept}, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q", mf.Kind)
	}
}

func decodeLabels(classes []string) predictor.DecodeFunc {
	if classes == nil {
		return nil
	}
	return func(index int) (string, error) {
		if index < 0 || index >= len(classes) {
			return "", fmt.Errorf("label index %d outside decoder range of %d classes", index, len(classes))
		}
		return classes[index], nil
	}
}
