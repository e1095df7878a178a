package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown session identifiers. It is an
// expected, recoverable condition, not an internal error.
var ErrSessionNotFound = errors.New("session not found")

// Document is the extracted text stored for one upload. Documents are never
// mutated after creation; a new upload always creates a new session.
type Document struct {
	Text      string
	Pages     int
	CreatedAt time.Time
}

// Store is an in-memory session map. Sessions live for the process
// lifetime; there is no eviction. See DESIGN.md for the retention tradeoff.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Document
	logger   *zap.Logger
}

// NewStore creates an empty session store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		sessions: make(map[string]Document),
		logger:   logger,
	}
}

// Create stores a document under a freshly generated identifier and returns
// the identifier. The 122 bits of UUIDv4 randomness make collisions
// negligible, so the insert never overwrites an existing session.
func (s *Store) Create(text string, pages int) string {
	id := uuid.NewString()
	doc := Document{Text: text, Pages: pages, CreatedAt: time.Now()}

	s.mu.Lock()
	s.sessions[id] = doc
	s.mu.Unlock()

	s.logger.Info("Document session created",
		zap.String("session_id", id),
		zap.Int("pages", pages),
		zap.Int("text_bytes", len(text)))
	return id
}

// Get returns the document stored under id, or ErrSessionNotFound.
func (s *Store) Get(id string) (Document, error) {
	s.mu.RLock()
	doc, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return Document{}, ErrSessionNotFound
	}
	return doc, nil
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
