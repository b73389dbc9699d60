package model

import "time"

const (
	SubscriptionStatusTrialing = "trialing"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription tracks a tenant's billing lifecycle, reconciled against the
// external billing processor. Exactly one subscription exists per tenant, and
// an external subscription id, once set, is unique across all tenants (both
// enforced by unique indexes).
type Subscription struct {
	ID                     string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID               string     `json:"tenant_id" bson:"tenant_id" validate:"required,mongodb"`
	Status                 string     `json:"status" bson:"status" validate:"required,oneof=trialing active past_due canceled"`
	TrialEndsAt            time.Time  `json:"trial_ends_at" bson:"trial_ends_at"`
	EndsAt                 *time.Time `json:"ends_at,omitempty" bson:"ends_at,omitempty"`
	ExternalCustomerID     string     `json:"external_customer_id,omitempty" bson:"external_customer_id,omitempty"`
	ExternalSubscriptionID string     `json:"external_subscription_id,omitempty" bson:"external_subscription_id,omitempty"`
	CreatedAt              time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt              time.Time  `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// Operational reports whether the tenant may operate (create bookings, invite
// workers). past_due and canceled tenants fail closed.
func (s *Subscription) Operational() bool {
	return s.Status == SubscriptionStatusTrialing || s.Status == SubscriptionStatusActive
}
