package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"heterobatch/application/services"
	"heterobatch/domain/graph"
	"heterobatch/pkg/common"
	pkgerrors "heterobatch/pkg/errors"
)

// GraphHandler handles graph-related HTTP requests
type GraphHandler struct {
	service  *services.BatchService
	errors   *pkgerrors.ErrorHandler
	validate *validator.Validate
	logger   *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(
	service *services.BatchService,
	errors *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *GraphHandler {
	return &GraphHandler{
		service:  service,
		errors:   errors,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateGraph handles POST /graphs
func (h *GraphHandler) CreateGraph(w http.ResponseWriter, r *http.Request) {
	var req CreateGraphRequest
	if err := common.ParseJSONBody(r, &req, common.MaxBodyBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body").WithCause(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	g, err := h.service.CreateGraph(r.Context(), toRelationEdges(req.Relations), toNumNodes(req.NumNodes))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	resp, err := toGraphResponse(g)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, resp)
}

// GetGraph handles GET /graphs/{graphID}
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	if graphID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("graph ID is required"))
		return
	}

	g, err := h.service.GetGraph(r.Context(), graphID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	resp, err := toGraphResponse(g)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// ListGraphs handles GET /graphs
func (h *GraphHandler) ListGraphs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.ListGraphs(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, ListGraphsResponse{
		GraphIDs: ids,
		Count:    len(ids),
	})
}

// DeleteGraph handles DELETE /graphs/{graphID}
func (h *GraphHandler) DeleteGraph(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	if graphID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("graph ID is required"))
		return
	}

	if err := h.service.DeleteGraph(r.Context(), graphID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetAttribute handles POST /graphs/{graphID}/attributes
func (h *GraphHandler) SetAttribute(w http.ResponseWriter, r *http.Request) {
	graphID := chi.URLParam(r, "graphID")
	if graphID == "" {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("graph ID is required"))
		return
	}

	var req SetAttributeRequest
	if err := common.ParseJSONBody(r, &req, common.MaxBodyBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body").WithCause(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	switch req.Target {
	case "node":
		if req.NodeType == "" {
			h.errors.Handle(w, r, pkgerrors.NewValidationError("node_type is required for node attributes"))
			return
		}
		err := h.service.SetNodeAttribute(r.Context(), graphID, graph.NodeType(req.NodeType), req.Name, req.Values)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
	case "edge":
		rel, err := parseRelationTriple(req.Relation)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		if err := h.service.SetEdgeAttribute(r.Context(), graphID, rel, req.Name, req.Values); err != nil {
			h.errors.Handle(w, r, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
