package model

import "time"

// Billing-processor webhook event types the platform acts on. Anything else is
// acknowledged and ignored.
const (
	EventCheckoutCompleted       = "checkout.session.completed"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventInvoicePaymentFailed    = "invoice.payment_failed"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
)

// BillingEvent is the parsed webhook payload. Each event states the resulting
// subscription state; transitions are state-setting, not state-advancing, so
// out-of-order delivery cannot walk a subscription backwards through edges
// that no longer apply.
type BillingEvent struct {
	ID                     string `json:"id" validate:"required"`
	Type                   string `json:"type" validate:"required"`
	TenantID               string `json:"tenant_id" validate:"required"`
	ExternalCustomerID     string `json:"external_customer_id,omitempty"`
	ExternalSubscriptionID string `json:"external_subscription_id,omitempty"`
}

// ProcessedEvent records a webhook event id that has been applied. Inserting
// into the processed-events collection is the idempotency check: a duplicate
// key means a replay.
type ProcessedEvent struct {
	EventID     string    `bson:"_id"`
	EventType   string    `bson:"event_type"`
	TenantID    string    `bson:"tenant_id,omitempty"`
	ProcessedAt time.Time `bson:"processed_at"`
}
