package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/service/learning"
)

type learningService interface {
	GetLearningWords(ctx context.Context, in learning.LearningWordsInput) (*learning.LearningWordsResult, error)
	GetSmartLearningPlan(ctx context.Context, in learning.PlanInput) (*learning.PlanResult, error)
	GetStatistics(ctx context.Context) (*domain.LibraryStatistics, error)
	ResetMastery(ctx context.Context, word string) (*domain.VocabularyAggregate, error)
	ListVocabulary(ctx context.Context, in learning.ListInput) ([]domain.VocabularyAggregate, int, error)
	ListStructures(ctx context.Context, in learning.ListInput) ([]domain.StructureAggregate, int, error)
}

// LearningHandler serves learning, statistics and browse endpoints.
type LearningHandler struct {
	svc learningService
	log *slog.Logger
}

// NewLearningHandler creates a LearningHandler.
func NewLearningHandler(svc learningService, logger *slog.Logger) *LearningHandler {
	return &LearningHandler{svc: svc, log: logger.With("handler", "learning")}
}

type planRequest struct {
	TotalCount  int    `json:"totalCount"`
	NewRatio    int    `json:"newRatio"`
	ReviewRatio int    `json:"reviewRatio"`
	Type        string `json:"type"`
	SourceTag   string `json:"sourceTag"`
}

type statisticsResponse struct {
	Success    bool                     `json:"success"`
	Statistics domain.LibraryStatistics `json:"statistics"`
}

type resetResponse struct {
	Success bool               `json:"success"`
	Word    vocabularyResponse `json:"word"`
}

// Words handles GET /api/v1/learning/words?count=.
func (h *LearningHandler) Words(w http.ResponseWriter, r *http.Request) {
	count, err := queryInt(r, "count")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	result, err := h.svc.GetLearningWords(r.Context(), learning.LearningWordsInput{Count: count})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Plan handles POST /api/v1/learning/plan.
func (h *LearningHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.GetSmartLearningPlan(r.Context(), learning.PlanInput{
		TotalCount:  req.TotalCount,
		NewRatio:    req.NewRatio,
		ReviewRatio: req.ReviewRatio,
		Type:        domain.PlanType(req.Type),
		SourceTag:   req.SourceTag,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Stats handles GET /api/v1/stats.
func (h *LearningHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStatistics(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statisticsResponse{Success: true, Statistics: *stats})
}

// ResetMastery handles POST /api/v1/vocabulary/{word}/reset-mastery.
func (h *LearningHandler) ResetMastery(w http.ResponseWriter, r *http.Request) {
	agg, err := h.svc.ResetMastery(r.Context(), r.PathValue("word"))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resetResponse{Success: true, Word: toVocabularyResponse(*agg)})
}

// Vocabulary handles GET /api/v1/vocabulary.
func (h *LearningHandler) Vocabulary(w http.ResponseWriter, r *http.Request) {
	in, err := listInput(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	items, total, err := h.svc.ListVocabulary(r.Context(), in)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse[vocabularyResponse]{
		Success: true,
		Items:   mapSlice(items, toVocabularyResponse),
		Total:   total,
	})
}

// Structures handles GET /api/v1/structures.
func (h *LearningHandler) Structures(w http.ResponseWriter, r *http.Request) {
	in, err := listInput(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	items, total, err := h.svc.ListStructures(r.Context(), in)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse[structureResponse]{
		Success: true,
		Items:   mapSlice(items, toStructureResponse),
		Total:   total,
	})
}

func listInput(r *http.Request) (learning.ListInput, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return learning.ListInput{}, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return learning.ListInput{}, err
	}
	q := r.URL.Query()
	return learning.ListInput{
		Mastery: domain.MasteryFilter(q.Get("mastery")),
		Tag:     q.Get("tag"),
		Limit:   limit,
		Offset:  offset,
	}, nil
}
