package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"heterobatch/application/services"
	"heterobatch/pkg/common"
	pkgerrors "heterobatch/pkg/errors"
)

// BatchHandler handles batch-related HTTP requests
type BatchHandler struct {
	service  *services.BatchService
	errors   *pkgerrors.ErrorHandler
	validate *validator.Validate
	logger   *zap.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(
	service *services.BatchService,
	errors *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *BatchHandler {
	return &BatchHandler{
		service:  service,
		errors:   errors,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateBatch handles POST /batches
func (h *BatchHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := common.ParseJSONBody(r, &req, common.MaxBodyBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body").WithCause(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	nodePolicy, err := toNodePolicy(req.NodeAttrs)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	edgePolicy, err := toEdgePolicy(req.EdgeAttrs)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	bg, err := h.service.BatchGraphs(r.Context(), req.GraphIDs, nodePolicy, edgePolicy)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	resp, err := toGraphResponse(bg)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, resp)
}

// GetBatch handles GET /batches/{batchID}
func (h *BatchHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("batch ID is required"))
		return
	}

	g, err := h.service.GetGraph(r.Context(), batchID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if !g.IsBatch() {
		h.errors.Handle(w, r, pkgerrors.NewNotABatchError().WithDetails(map[string]interface{}{
			"graphID": batchID,
		}))
		return
	}

	resp, err := toGraphResponse(g)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// Unbatch handles POST /batches/{batchID}/unbatch
func (h *BatchHandler) Unbatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchID")
	if batchID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("batch ID is required"))
		return
	}

	gs, err := h.service.UnbatchGraph(r.Context(), batchID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	resp := UnbatchResponse{BatchID: batchID, Graphs: make([]GraphResponse, 0, len(gs))}
	for _, g := range gs {
		gr, err := toGraphResponse(g)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		resp.Graphs = append(resp.Graphs, *gr)
	}
	common.RespondJSON(w, http.StatusOK, resp)
}
