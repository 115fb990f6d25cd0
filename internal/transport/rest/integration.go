package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-backend/internal/domain"
	"github.com/heartmarshall/kotoba-backend/internal/service/integration"
)

type integrationService interface {
	IntegrateNewRecord(ctx context.Context, recordID uuid.UUID) (*integration.IntegrateResult, error)
	RebuildAll(ctx context.Context, in integration.RebuildInput) (*integration.RebuildResult, error)
	RepairDuplicates(ctx context.Context, in integration.RepairInput) (*integration.RepairResult, error)
}

// IntegrationHandler serves aggregate maintenance endpoints.
type IntegrationHandler struct {
	svc integrationService
	log *slog.Logger
}

// NewIntegrationHandler creates an IntegrationHandler.
func NewIntegrationHandler(svc integrationService, logger *slog.Logger) *IntegrationHandler {
	return &IntegrationHandler{svc: svc, log: logger.With("handler", "integration")}
}

type rebuildRequest struct {
	ContinuationToken string `json:"continuationToken"`
	MaxPages          int    `json:"maxPages"`
}

type repairRequest struct {
	Collection        string `json:"collection"`
	ContinuationToken string `json:"continuationToken"`
}

// collectionAliases accepts short collection names next to the stored ones.
var collectionAliases = map[string]domain.Collection{
	"vocabulary": domain.CollectionVocabulary,
	"structures": domain.CollectionStructures,
}

// IntegrateRecord handles POST /api/v1/integration/records/{id}.
func (h *IntegrationHandler) IntegrateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	result, err := h.svc.IntegrateNewRecord(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Rebuild handles POST /api/v1/integration/rebuild.
func (h *IntegrationHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	var req rebuildRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.RebuildAll(r.Context(), integration.RebuildInput{
		ContinuationToken: req.ContinuationToken,
		MaxPages:          req.MaxPages,
	})
	if err != nil && result != nil {
		// Interrupted mid-run: the body carries the token to resume from.
		h.log.ErrorContext(r.Context(), "rebuild interrupted",
			slog.String("error", err.Error()),
			slog.String("continuation_token", result.ContinuationToken),
		)
		writeJSON(w, interruptedStatus(err), result)
		return
	}
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Repair handles POST /api/v1/integration/repair.
func (h *IntegrationHandler) Repair(w http.ResponseWriter, r *http.Request) {
	var req repairRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	collection := domain.Collection(req.Collection)
	if alias, ok := collectionAliases[req.Collection]; ok {
		collection = alias
	}

	result, err := h.svc.RepairDuplicates(r.Context(), integration.RepairInput{
		Collection:        collection,
		ContinuationToken: req.ContinuationToken,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func interruptedStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
