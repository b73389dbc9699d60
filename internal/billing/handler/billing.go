package handler

import (
	"encoding/json"
	"net/http"

	"bookd/internal/billing/service"
	apperrors "bookd/pkg/errors"
	httputil "bookd/pkg/http"
	"bookd/pkg/logger"
	"bookd/pkg/middleware"
	"bookd/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BillingHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

func NewBillingHandler(service service.SubscriptionService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{
		service: service,
		log:     log,
	}
}

// Webhook receives billing-processor events. The signature middleware has
// already verified the payload by the time this runs. Once an event parses,
// the response is 200 even when applying it fails for business reasons: the
// processor's retry cannot fix a duplicate external id or a missing tenant,
// so redelivery would only burn attempts.
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var event model.BillingEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid event payload",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Webhook", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if event.ID == "" || event.Type == "" || event.TenantID == "" {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Event id, type and tenant_id are required",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Webhook", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	// An empty external subscription id would still be $set on the
	// subscription and collide under the unique index, so a checkout event
	// without its ids is malformed, not a business rejection.
	if event.Type == model.EventCheckoutCompleted &&
		(event.ExternalCustomerID == "" || event.ExternalSubscriptionID == "") {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Checkout events must carry external customer and subscription ids",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Webhook", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.ApplyEvent(r.Context(), &event); err != nil {
		if apperrors.IsCode(err, apperrors.CodeInternal) {
			if writeErr := httputil.WriteError(w, err); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "Webhook", "operation", "WriteError", "error", writeErr)
			}
			return
		}

		h.log.Warn("Billing event rejected",
			"event_id", event.ID,
			"type", event.Type,
			"tenant_id", event.TenantID,
			"error", err,
		)
	}

	if err := httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "received"}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Webhook", "operation", "WriteJSON", "error", err)
	}
}

func (h *BillingHandler) GetSubscription(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID := ps.ByName("tenant_id")

	sub, err := h.service.GetByTenant(r.Context(), middleware.PrincipalID(r.Context()), tenantID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetSubscription", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, sub); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSubscription", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BillingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/billing/webhook", h.Webhook)
	router.GET("/api/v1/tenants/:tenant_id/subscription", h.GetSubscription)
}
