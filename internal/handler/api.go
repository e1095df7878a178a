package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sahay-api/internal/extract"
	"sahay-api/internal/models"
	"sahay-api/internal/repository"
	"sahay-api/internal/session"
)

// AnalysisService exposes the classification operations.
type AnalysisService interface {
	ClassifyGrievance(ctx context.Context, text string) (*models.GrievanceResult, error)
	DetectSpam(ctx context.Context, text string) (*models.SpamResult, error)
	Analyze(ctx context.Context, text string) (*models.AnalysisResult, error)
}

// QAService answers questions against an uploaded document session.
type QAService interface {
	Ask(ctx context.Context, sessionID, query string) (string, error)
}

// Extractor turns uploaded document bytes into plain text.
type Extractor interface {
	Extract(filename string, data []byte) (*extract.Result, error)
}

// HistoryService reads the persisted analysis history.
type HistoryService interface {
	List(limit int) ([]*repository.AnalysisRecord, error)
	GetStats() (*repository.Stats, error)
}

// Handler handles HTTP requests.
type Handler struct {
	analyzer  AnalysisService
	sessions  *session.Store
	extractor Extractor
	qa        QAService
	history   HistoryService
	logger    *zap.Logger
}

// NewHandler creates a new API handler. history may be nil; the history
// routes are then not registered.
func NewHandler(analyzer AnalysisService, sessions *session.Store, extractor Extractor, qa QAService, history HistoryService, logger *zap.Logger) *Handler {
	return &Handler{
		analyzer:  analyzer,
		sessions:  sessions,
		extractor: extractor,
		qa:        qa,
		history:   history,
		logger:    logger,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Home)
	r.GET("/health", h.HealthCheck)

	r.POST("/classify", h.ClassifyGrievance)
	r.POST("/spam-detect", h.DetectSpam)
	r.POST("/analyze", h.Analyze)

	r.POST("/init_rag", h.InitRAG)
	r.POST("/ask_question", h.AskQuestion)

	if h.history != nil {
		api := r.Group("/api/v1")
		{
			api.GET("/history", h.GetHistory)
			api.GET("/history/stats", h.GetHistoryStats)
			api.GET("/export/csv", h.ExportCSV)
		}
	}
}

// Home reports service status and the endpoint map.
func (h *Handler) Home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "SahayAI API",
		"time":    time.Now().Format("2006-01-02 15:04:05"),
		"endpoints": gin.H{
			"grievance_classification": "/classify",
			"spam_detection":           "/spam-detect",
			"combined_analysis":        "/analyze",
			"document_upload":          "/init_rag",
			"document_question":        "/ask_question",
		},
	})
}

// HealthCheck returns service health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "sahay-api",
		"sessions": h.sessions.Count(),
	})
}

// ClassifyGrievance classifies a grievance into one of the predefined
// categories.
func (h *Handler) ClassifyGrievance(c *gin.Context) {
	var req models.GrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "description is required")
		return
	}

	result, err := h.analyzer.ClassifyGrievance(c.Request.Context(), req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DetectSpam reports whether a grievance text is spam.
func (h *Handler) DetectSpam(c *gin.Context) {
	var req models.GrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "description is required")
		return
	}

	result, err := h.analyzer.DetectSpam(c.Request.Context(), req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Analyze runs classification and spam detection together.
func (h *Handler) Analyze(c *gin.Context) {
	var req models.GrievanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "description is required")
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// InitRAG extracts text from an uploaded document and opens a new session
// for follow-up questions.
func (h *Handler) InitRAG(c *gin.Context) {
	file, err := c.FormFile("pdf_files")
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "a document file upload is required")
		return
	}

	f, err := file.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "could not read uploaded file")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "could not read uploaded file")
		return
	}

	result, err := h.extractor.Extract(file.Filename, data)
	if err != nil {
		h.respondError(c, err)
		return
	}

	sessionID := h.sessions.Create(result.Text, result.Pages)

	c.JSON(http.StatusOK, models.UploadResult{
		Message:   "PDF processed successfully",
		Pages:     result.Pages,
		SessionID: sessionID,
	})
}

// AskQuestion answers a question about a previously uploaded document.
func (h *Handler) AskQuestion(c *gin.Context) {
	var req models.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "query and session_id are required")
		return
	}

	answer, err := h.qa.Ask(c.Request.Context(), req.SessionID, req.Query)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.AnswerResult{Answer: answer})
}

// GetHistory returns recent analysis records.
func (h *Handler) GetHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 {
		respondError(c, http.StatusBadRequest, "INVALID_INPUT", "limit must be a positive integer")
		return
	}

	records, err := h.history.List(limit)
	if err != nil {
		h.logger.Error("Failed to list analysis history", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to get history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analyses": records,
		"total":    len(records),
	})
}

// GetHistoryStats returns aggregate counts over the analysis history.
func (h *Handler) GetHistoryStats(c *gin.Context) {
	stats, err := h.history.GetStats()
	if err != nil {
		h.logger.Error("Failed to get history stats", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to get stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ExportCSV exports the analysis history as CSV.
func (h *Handler) ExportCSV(c *gin.Context) {
	records, err := h.history.List(0)
	if err != nil {
		h.logger.Error("Failed to export history", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "export failed")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=analyses.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"source", "text", "category", "category_confidence", "is_spam", "spam_confidence", "created_at"})
	for _, rec := range records {
		writer.Write([]string{
			rec.Source,
			rec.Text,
			strOrEmpty(rec.Category),
			floatOrEmpty(rec.CategoryConfidence),
			boolOrEmpty(rec.IsSpam),
			floatOrEmpty(rec.SpamConfidence),
			rec.CreatedAt.Format(time.RFC3339),
		})
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func boolOrEmpty(b *bool) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("%t", *b)
}
