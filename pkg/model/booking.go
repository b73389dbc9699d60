package model

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
)

// BookingLineItem captures the selected service and options with the prices
// that were in effect at booking time, so later catalog edits never change a
// committed booking.
type BookingLineItem struct {
	ServiceID       string   `json:"service_id" bson:"service_id" validate:"required,mongodb"`
	ServiceName     string   `json:"service_name" bson:"service_name" validate:"required"`
	BasePrice       string   `json:"base_price" bson:"base_price" validate:"required,decimal_amount"`
	SelectedOptions []string `json:"selected_options,omitempty" bson:"selected_options,omitempty" validate:"omitempty,max=20,dive,required"`
	LineTotal       string   `json:"line_total" bson:"line_total" validate:"required,decimal_amount"`
}

// Booking belongs to one tenant (OwnerID). BookingReference is immutable and
// externally shareable, distinct from the internal id.
type Booking struct {
	ID               string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OwnerID          string            `json:"owner_id" bson:"owner_id" validate:"required,mongodb"`
	BookingReference string            `json:"booking_reference" bson:"booking_reference" validate:"omitempty,uuid4"`
	CustomerName     string            `json:"customer_name" bson:"customer_name" validate:"required,min=2,max=100"`
	CustomerEmail    string            `json:"customer_email" bson:"customer_email" validate:"required,email"`
	CustomerPhone    string            `json:"customer_phone,omitempty" bson:"customer_phone,omitempty" validate:"omitempty,e164"`
	CustomerAddress  string            `json:"customer_address,omitempty" bson:"customer_address,omitempty" validate:"omitempty,max=300"`
	LineItems        []BookingLineItem `json:"line_items" bson:"line_items" validate:"required,min=1,max=20,dive"`
	Subtotal         string            `json:"subtotal" bson:"subtotal" validate:"omitempty,decimal_amount"`
	DiscountCode     string            `json:"discount_code,omitempty" bson:"discount_code,omitempty"`
	DiscountID       string            `json:"discount_id,omitempty" bson:"discount_id,omitempty" validate:"omitempty,mongodb"`
	DiscountAmount   string            `json:"discount_amount,omitempty" bson:"discount_amount,omitempty" validate:"omitempty,decimal_amount"`
	Total            string            `json:"total" bson:"total" validate:"omitempty,decimal_amount"`
	Status           string            `json:"status" bson:"status" validate:"omitempty,oneof=pending confirmed completed cancelled"`
	AssignedStaffID  string            `json:"assigned_staff_id,omitempty" bson:"assigned_staff_id,omitempty" validate:"omitempty,mongodb"`
	StartTime        time.Time         `json:"start_time" bson:"start_time" validate:"required"`
	CancelReason     string            `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty" validate:"omitempty,max=500"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt        time.Time         `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// IsTerminal reports whether the booking can no longer change state.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingStatusCompleted || b.Status == BookingStatusCancelled
}

// CanTransitionTo encodes the booking state machine: pending → confirmed →
// completed forward only, and pending/confirmed → cancelled.
func CanTransitionTo(from, to string) bool {
	switch from {
	case BookingStatusPending:
		return to == BookingStatusConfirmed || to == BookingStatusCancelled
	case BookingStatusConfirmed:
		return to == BookingStatusCompleted || to == BookingStatusCancelled
	default:
		return false
	}
}
