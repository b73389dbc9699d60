package handler

import (
	"encoding/json"
	"net/http"

	"bookd/internal/discounts/service"
	httputil "bookd/pkg/http"
	"bookd/pkg/logger"
	"bookd/pkg/middleware"
	"bookd/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type DiscountHandler struct {
	service service.DiscountService
	log     *logger.Logger
}

func NewDiscountHandler(service service.DiscountService, log *logger.Logger) *DiscountHandler {
	return &DiscountHandler{
		service: service,
		log:     log,
	}
}

func (h *DiscountHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var discount model.Discount
	if err := json.NewDecoder(r.Body).Decode(&discount); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), middleware.PrincipalID(r.Context()), &discount); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, discount); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *DiscountHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID := ps.ByName("tenant_id")

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	discounts, total, err := h.service.List(r.Context(), middleware.PrincipalID(r.Context()), tenantID, limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, discounts, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *DiscountHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "SetStatus", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.SetStatus(r.Context(), middleware.PrincipalID(r.Context()), id, body.Status); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "SetStatus", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

// Validate is the public, unauthenticated check a storefront runs before
// attaching a code to a booking.
func (h *DiscountHandler) Validate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID := ps.ByName("tenant_id")
	code := r.URL.Query().Get("code")

	discount, err := h.service.ValidatePublic(r.Context(), tenantID, code)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Validate", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, discount); err != nil {
		h.log.Error("failed to write success response", "handler", "Validate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DiscountHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/discounts", h.Create)
	router.GET("/api/v1/tenants/:tenant_id/discounts", h.List)
	router.PATCH("/api/v1/discounts/id/:id/status", h.SetStatus)
	router.GET("/api/v1/tenants/:tenant_id/discounts/validate", h.Validate)
}
