package handler

import (
	"encoding/json"
	"net/http"

	"bookd/internal/workers/service"
	httputil "bookd/pkg/http"
	"bookd/pkg/logger"
	"bookd/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type WorkerHandler struct {
	service service.WorkerService
	log     *logger.Logger
}

func NewWorkerHandler(service service.WorkerService, log *logger.Logger) *WorkerHandler {
	return &WorkerHandler{
		service: service,
		log:     log,
	}
}

func (h *WorkerHandler) Invite(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		TenantID string `json:"tenant_id"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Invite", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	invitation, err := h.service.Invite(r.Context(), middleware.PrincipalID(r.Context()), body.TenantID, body.Email, body.Role)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Invite", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, invitation); err != nil {
		h.log.Error("failed to write created response", "handler", "Invite", "operation", "WriteCreated", "error", err)
	}
}

func (h *WorkerHandler) Redeem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Redeem", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	account, err := h.service.Redeem(r.Context(), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Redeem", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, account); err != nil {
		h.log.Error("failed to write created response", "handler", "Redeem", "operation", "WriteCreated", "error", err)
	}
}

func (h *WorkerHandler) AddDirect(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req service.AddWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "AddDirect", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	account, err := h.service.AddDirect(r.Context(), middleware.PrincipalID(r.Context()), &req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "AddDirect", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, account); err != nil {
		h.log.Error("failed to write created response", "handler", "AddDirect", "operation", "WriteCreated", "error", err)
	}
}

func (h *WorkerHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID := ps.ByName("tenant_id")

	workers, err := h.service.List(r.Context(), middleware.PrincipalID(r.Context()), tenantID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, workers); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WorkerHandler) Revoke(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.Revoke(r.Context(), middleware.PrincipalID(r.Context()), id); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Revoke", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *WorkerHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/workers/invitations", h.Invite)
	router.POST("/api/v1/workers/invitations/redeem", h.Redeem)
	router.POST("/api/v1/workers", h.AddDirect)
	router.GET("/api/v1/tenants/:tenant_id/workers", h.List)
	router.DELETE("/api/v1/workers/id/:id", h.Revoke)
}
