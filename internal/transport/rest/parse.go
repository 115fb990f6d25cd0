package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/service/parsing"
)

type parsingService interface {
	AnalyzeText(ctx context.Context, in parsing.AnalyzeInput) (*parsing.ParseResult, error)
	SubmitRecord(ctx context.Context, in parsing.SubmitInput) (*parsing.ParseResult, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error)
}

// ParseHandler serves text analysis and parse record endpoints.
type ParseHandler struct {
	svc parsingService
	log *slog.Logger
}

// NewParseHandler creates a ParseHandler.
func NewParseHandler(svc parsingService, logger *slog.Logger) *ParseHandler {
	return &ParseHandler{svc: svc, log: logger.With("handler", "parse")}
}

type analyzeRequest struct {
	Text  string `json:"text"`
	Title string `json:"title"`
}

type submitRequest struct {
	Title        string                      `json:"title"`
	ArticleTitle string                      `json:"articleTitle"`
	Sentences    []domain.SentenceAnnotation `json:"sentences"`
	RawText      string                      `json:"rawText"`
}

type recordEnvelope struct {
	Success bool           `json:"success"`
	Record  recordResponse `json:"record"`
}

// Analyze handles POST /api/v1/parse.
func (h *ParseHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.AnalyzeText(r.Context(), parsing.AnalyzeInput{
		Text:  req.Text,
		Title: req.Title,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Submit handles POST /api/v1/records.
func (h *ParseHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.SubmitRecord(r.Context(), parsing.SubmitInput{
		Title:        req.Title,
		ArticleTitle: req.ArticleTitle,
		Sentences:    req.Sentences,
		RawText:      req.RawText,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// GetRecord handles GET /api/v1/records/{id}.
func (h *ParseHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	rec, err := h.svc.GetRecord(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recordEnvelope{Success: true, Record: toRecordResponse(rec)})
}
