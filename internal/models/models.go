package models

// GrievanceRequest carries the text for classification, spam detection and
// combined analysis.
type GrievanceRequest struct {
	Description string `json:"description" binding:"required"`
}

// GrievanceResult is the single-purpose classification response.
// Confidence is omitted entirely when the model cannot produce one;
// absence must stay distinguishable from a genuine zero score.
type GrievanceResult struct {
	Category   string   `json:"grievance_category"`
	Confidence *float64 `json:"confidence_score,omitempty"`
}

// SpamResult is the single-purpose spam detection response.
type SpamResult struct {
	IsSpam     bool     `json:"is_spam"`
	Confidence *float64 `json:"confidence_score,omitempty"`
}

// AnalysisResult merges both sub-analyses. It is only produced when both
// subsystems are available, so the label fields are always populated; the
// confidences remain optional per model capability.
type AnalysisResult struct {
	Category           string   `json:"grievance_category"`
	IsSpam             bool     `json:"is_spam"`
	CategoryConfidence *float64 `json:"category_confidence,omitempty"`
	SpamConfidence     *float64 `json:"spam_confidence,omitempty"`
}

// UploadResult is returned after a document upload created a session.
type UploadResult struct {
	Message   string `json:"message"`
	Pages     int    `json:"pages"`
	SessionID string `json:"session_id"`
}

// QuestionRequest asks a question against a previously uploaded document.
type QuestionRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
}

// AnswerResult carries the generated answer text verbatim.
type AnswerResult struct {
	Answer string `json:"answer"`
}
