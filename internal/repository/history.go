package repository

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// AnalysisRecord is one persisted analysis outcome. Nil fields were not
// computed by the endpoint that produced the record.
type AnalysisRecord struct {
	ID                 int64     `json:"id"`
	Source             string    `json:"source"` // classify, spam-detect or analyze
	Text               string    `json:"text"`
	Category           *string   `json:"category,omitempty"`
	CategoryConfidence *float64  `json:"category_confidence,omitempty"`
	IsSpam             *bool     `json:"is_spam,omitempty"`
	SpamConfidence     *float64  `json:"spam_confidence,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Stats summarizes the stored history.
type Stats struct {
	Total      int            `json:"total"`
	Spam       int            `json:"spam"`
	ByCategory map[string]int `json:"by_category"`
}

// HistoryRepository stores analysis results in SQLite.
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository opens (and migrates) the history database at path.
func NewHistoryRepository(path string, logger *zap.Logger) (*HistoryRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	repo := &HistoryRepository{db: db, logger: logger}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	logger.Info("History repository initialized", zap.String("db_path", path))
	return repo, nil
}

func (r *HistoryRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		text TEXT NOT NULL,
		category TEXT,
		category_confidence REAL,
		is_spam INTEGER,
		spam_confidence REAL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_source ON analyses(source);
	CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Save inserts one record and backfills its generated id.
func (r *HistoryRepository) Save(rec *AnalysisRecord) error {
	query := `
		INSERT INTO analyses (source, text, category, category_confidence, is_spam, spam_confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		rec.Source,
		rec.Text,
		rec.Category,
		rec.CategoryConfidence,
		rec.IsSpam,
		rec.SpamConfidence,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// List returns the most recent records, newest first. A limit <= 0 returns
// everything.
func (r *HistoryRepository) List(limit int) ([]*AnalysisRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	query := `
		SELECT id, source, text, category, category_confidence, is_spam, spam_confidence, created_at
		FROM analyses
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis records: %w", err)
	}
	defer rows.Close()

	var records []*AnalysisRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetStats aggregates totals and per-category counts.
func (r *HistoryRepository) GetStats() (*Stats, error) {
	stats := &Stats{ByCategory: make(map[string]int)}

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM analyses`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count analysis records: %w", err)
	}
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM analyses WHERE is_spam = 1`).Scan(&stats.Spam); err != nil {
		return nil, fmt.Errorf("failed to count spam records: %w", err)
	}

	rows, err := r.db.Query(`SELECT category, COUNT(*) FROM analyses WHERE category IS NOT NULL GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.ByCategory[category] = count
	}
	return stats, rows.Err()
}

// Close closes the underlying database.
func (r *HistoryRepository) Close() error {
	return r.db.Close()
}

func scanRecord(rows *sql.Rows) (*AnalysisRecord, error) {
	var (
		rec            AnalysisRecord
		category       sql.NullString
		categoryConf   sql.NullFloat64
		isSpam         sql.NullBool
		spamConfidence sql.NullFloat64
	)
	if err := rows.Scan(&rec.ID, &rec.Source, &rec.Text, &category, &categoryConf, &isSpam, &spamConfidence, &rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan analysis record: %w", err)
	}
	if category.Valid {
		rec.Category = &category.String
	}
	if categoryConf.Valid {
		rec.CategoryConfidence = &categoryConf.Float64
	}
	if isSpam.Valid {
		rec.IsSpam = &isSpam.Bool
	}
	if spamConfidence.Valid {
		rec.SpamConfidence = &spamConfidence.Float64
	}
	return &rec, nil
}
