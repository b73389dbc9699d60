package model

import "time"

const (
	ImpactFixed      = "fixed"
	ImpactPercentage = "percentage"
)

// ServiceOption is an add-on a customer can select with a service. A fixed
// impact is added to the line as-is; a percentage impact is computed against
// the owning service's base price, never the running subtotal.
type ServiceOption struct {
	Name        string `json:"name" bson:"name" validate:"required,min=1,max=100"`
	ImpactType  string `json:"impact_type,omitempty" bson:"impact_type,omitempty" validate:"omitempty,oneof=fixed percentage"`
	ImpactValue string `json:"impact_value,omitempty" bson:"impact_value,omitempty" validate:"omitempty,decimal_amount"`
}

// CatalogService is a bookable service in a tenant's catalog. Monetary values
// are stored as decimal strings; arithmetic happens in fixed-point decimals,
// never binary floats.
type CatalogService struct {
	ID                string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TenantID          string          `json:"tenant_id" bson:"tenant_id" validate:"required,mongodb"`
	Name              string          `json:"name" bson:"name" validate:"required,min=2,max=100"`
	BasePrice         string          `json:"base_price" bson:"base_price" validate:"required,decimal_amount"`
	DurationMinutes   int             `json:"duration_minutes" bson:"duration_minutes" validate:"required,min=5,max=1440"`
	Options           []ServiceOption `json:"options,omitempty" bson:"options,omitempty" validate:"omitempty,max=20,dive"`
	DiscountsDisabled bool            `json:"discounts_disabled" bson:"discounts_disabled"`
	Active            bool            `json:"active" bson:"active"`
	CreatedAt         time.Time       `json:"created_at" bson:"created_at" validate:"omitempty"`
}
