package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"sahay-api/internal/models"
	"sahay-api/internal/predictor"
	"sahay-api/internal/repository"
)

// ErrInvalidInput is returned when the submitted text is too short to
// classify. It is reported before any model is consulted.
var ErrInvalidInput = errors.New("text must be at least 5 characters long")

// minTextLength is the shortest trimmed input accepted for analysis.
const minTextLength = 5

// UnavailableError reports that one or more model subsystems were never
// loaded. The combined endpoint lists every missing subsystem, not just the
// first one.
type UnavailableError struct {
	Subsystems []string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("service unavailable: %s not loaded", strings.Join(e.Subsystems, ", "))
}

// Recorder persists analysis results for the history endpoints. Failures
// are logged and swallowed; the audit trail never fails a request.
type Recorder interface {
	Save(rec *repository.AnalysisRecord) error
}

// Analyzer orchestrates the classification subsystems. It is stateless
// apart from reads of the immutable adapters, so concurrent requests need
// no coordination.
type Analyzer struct {
	grievance *predictor.Adapter
	spam      *predictor.Adapter
	history   Recorder
	logger    *zap.Logger
}

// NewAnalyzer creates an analyzer over the registry's adapters. history may
// be nil when result persistence is disabled.
func NewAnalyzer(grievance, spam *predictor.Adapter, history Recorder, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		grievance: grievance,
		spam:      spam,
		history:   history,
		logger:    logger,
	}
}

// ClassifyGrievance classifies text into one of the trained grievance
// categories.
func (a *Analyzer) ClassifyGrievance(ctx context.Context, text string) (*models.GrievanceResult, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	if !a.grievance.Available() {
		return nil, &UnavailableError{Subsystems: []string{a.grievance.Subsystem()}}
	}

	cls, err := a.grievance.Classify(text)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Grievance classified",
		zap.String("category", cls.Label),
		zap.Float64p("confidence", cls.Confidence))

	result := &models.GrievanceResult{Category: cls.Label, Confidence: cls.Confidence}
	a.record(&repository.AnalysisRecord{
		Source:             "classify",
		Text:               text,
		Category:           &result.Category,
		CategoryConfidence: result.Confidence,
	})
	return result, nil
}

// DetectSpam reports whether text looks like spam.
func (a *Analyzer) DetectSpam(ctx context.Context, text string) (*models.SpamResult, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}
	if !a.spam.Available() {
		return nil, &UnavailableError{Subsystems: []string{a.spam.Subsystem()}}
	}

	cls, err := a.spam.Classify(text)
	if err != nil {
		return nil, err
	}

	result := &models.SpamResult{IsSpam: cls.Index != 0, Confidence: cls.Confidence}
	a.logger.Info("Spam detection completed",
		zap.Bool("is_spam", result.IsSpam),
		zap.Float64p("confidence", result.Confidence))

	a.record(&repository.AnalysisRecord{
		Source:         "spam-detect",
		Text:           text,
		IsSpam:         &result.IsSpam,
		SpamConfidence: result.Confidence,
	})
	return result, nil
}

// Analyze runs both subsystems over the same text. Partial availability is
// a hard failure here: a combined result with silently missing fields would
// be worse than an explicit error, so every missing subsystem is listed up
// front and no partial result is ever returned.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*models.AnalysisResult, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	var missing []string
	if !a.grievance.Available() {
		missing = append(missing, a.grievance.Subsystem())
	}
	if !a.spam.Available() {
		missing = append(missing, a.spam.Subsystem())
	}
	if len(missing) > 0 {
		return nil, &UnavailableError{Subsystems: missing}
	}

	category, err := a.grievance.Classify(text)
	if err != nil {
		return nil, err
	}
	spam, err := a.spam.Classify(text)
	if err != nil {
		return nil, err
	}

	result := &models.AnalysisResult{
		Category:           category.Label,
		IsSpam:             spam.Index != 0,
		CategoryConfidence: category.Confidence,
		SpamConfidence:     spam.Confidence,
	}
	a.logger.Info("Combined analysis completed",
		zap.String("category", result.Category),
		zap.Bool("is_spam", result.IsSpam))

	a.record(&repository.AnalysisRecord{
		Source:             "analyze",
		Text:               text,
		Category:           &result.Category,
		CategoryConfidence: result.CategoryConfidence,
		IsSpam:             &result.IsSpam,
		SpamConfidence:     result.SpamConfidence,
	})
	return result, nil
}

func (a *Analyzer) record(rec *repository.AnalysisRecord) {
	if a.history == nil {
		return
	}
	rec.CreatedAt = time.Now()
	if err := a.history.Save(rec); err != nil {
		a.logger.Warn("Failed to record analysis result", zap.Error(err))
	}
}

func validateText(text string) error {
	if len(strings.TrimSpace(text)) < minTextLength {
		return ErrInvalidInput
	}
	return nil
}
