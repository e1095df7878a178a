// Package docqa answers questions against previously uploaded documents.
package docqa

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"sahay-api/internal/session"
)

var (
	// ErrEmptyDocument is returned when a session holds no extractable text.
	ErrEmptyDocument = errors.New("no document content found for this session")
	// ErrNotConfigured is returned when the generative backend has no
	// credential; classification paths are unaffected.
	ErrNotConfigured = errors.New("generative backend not configured")
	// ErrGenerationFailed wraps any backend-side failure, transient or
	// permanent, with no automatic retry.
	ErrGenerationFailed = errors.New("answer generation failed")
)

// DefaultContextWindowChars bounds how much document text is embedded in
// the prompt, to stay under the backend's input-token limit. Answers can
// only draw on text inside this window.
const DefaultContextWindowChars = 10000

const promptTemplate = `Based on the following document content, please answer the question accurately and concisely.

Document content:
%s

Question: %s

Please provide a clear and helpful answer based only on the information in the document.`

// Generator produces text for a prompt. *gemini.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Pipeline resolves a session's document, grounds a prompt in it and
// delegates to the generative backend.
type Pipeline struct {
	sessions *session.Store
	backend  Generator
	window   int
	logger   *zap.Logger
}

// NewPipeline creates a pipeline. backend may be nil when no credential is
// configured; Ask then fails with ErrNotConfigured. windowChars <= 0 falls
// back to DefaultContextWindowChars.
func NewPipeline(sessions *session.Store, backend Generator, windowChars int, logger *zap.Logger) *Pipeline {
	if windowChars <= 0 {
		windowChars = DefaultContextWindowChars
	}
	return &Pipeline{
		sessions: sessions,
		backend:  backend,
		window:   windowChars,
		logger:   logger,
	}
}

// Ask answers query from the document stored under sessionID. The backend's
// answer text is returned verbatim.
func (p *Pipeline) Ask(ctx context.Context, sessionID, query string) (string, error) {
	doc, err := p.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}
	if doc.Text == "" {
		return "", ErrEmptyDocument
	}
	if p.backend == nil {
		return "", ErrNotConfigured
	}

	prompt := fmt.Sprintf(promptTemplate, truncate(doc.Text, p.window), query)

	answer, err := p.backend.Generate(ctx, prompt)
	if err != nil {
		p.logger.Error("Answer generation failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	p.logger.Info("Question answered",
		zap.String("session_id", sessionID),
		zap.Int("answer_bytes", len(answer)))
	return answer, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
