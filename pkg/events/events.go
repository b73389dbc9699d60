// Package events publishes domain events for the external notification
// collaborator (tenant-owner emails on customer-initiated changes, worker
// invitation mails). The core only produces; nothing in this repository
// consumes.
package events

import (
	"time"

	"bookd/pkg/model"
)

const (
	TypeBookingCreated     = "booking.created"
	TypeBookingStatus      = "booking.status_changed"
	TypeBookingRescheduled = "booking.rescheduled"
	TypeBookingCancelled   = "booking.cancelled"
	TypeWorkerInvited      = "worker.invited"
)

// BookingChanged is emitted on every booking mutation. CustomerInitiated
// distinguishes self-service changes, which notify the tenant owner.
type BookingChanged struct {
	Type              string    `json:"type"`
	BookingID         string    `json:"booking_id"`
	BookingReference  string    `json:"booking_reference"`
	TenantID          string    `json:"tenant_id"`
	Status            string    `json:"status"`
	CustomerEmail     string    `json:"customer_email"`
	CustomerInitiated bool      `json:"customer_initiated"`
	OccurredAt        time.Time `json:"occurred_at"`
}

type WorkerInvited struct {
	Type            string    `json:"type"`
	TenantID        string    `json:"tenant_id"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	InvitationToken string    `json:"invitation_token"`
	ExpiresAt       time.Time `json:"expires_at"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func NewBookingChanged(eventType string, booking *model.Booking, customerInitiated bool) BookingChanged {
	return BookingChanged{
		Type:              eventType,
		BookingID:         booking.ID,
		BookingReference:  booking.BookingReference,
		TenantID:          booking.OwnerID,
		Status:            booking.Status,
		CustomerEmail:     booking.CustomerEmail,
		CustomerInitiated: customerInitiated,
		OccurredAt:        time.Now().UTC(),
	}
}
