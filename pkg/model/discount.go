package model

import "time"

const (
	DiscountTypePercentage  = "percentage"
	DiscountTypeFixedAmount = "fixed_amount"

	DiscountStatusActive   = "active"
	DiscountStatusInactive = "inactive"
)

// Discount is a per-tenant code. Codes are unique per tenant and
// case-sensitive. TimesUsed is mutated only by the booking-creation path via a
// conditional increment; it never exceeds UsageLimit when a limit is set.
type Discount struct {
	ID         string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID   string     `json:"tenant_id" bson:"tenant_id" validate:"required,mongodb"`
	Code       string     `json:"code" bson:"code" validate:"required,min=2,max=50"`
	Type       string     `json:"type" bson:"type" validate:"required,oneof=percentage fixed_amount"`
	Value      string     `json:"value" bson:"value" validate:"required,decimal_amount"`
	Status     string     `json:"status" bson:"status" validate:"required,oneof=active inactive"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	UsageLimit *int       `json:"usage_limit,omitempty" bson:"usage_limit,omitempty" validate:"omitempty,min=1"`
	TimesUsed  int        `json:"times_used" bson:"times_used" validate:"omitempty,min=0"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// PublicDiscount is what the validation surface exposes: enough to present the
// saving to a customer, nothing that leaks other tenants' code books.
type PublicDiscount struct {
	Code  string `json:"code"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (d *Discount) Public() PublicDiscount {
	return PublicDiscount{Code: d.Code, Type: d.Type, Value: d.Value}
}
