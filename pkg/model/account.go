package model

import "time"

const (
	RoleOwner = "owner"
	RoleStaff = "staff"
	// RoleStaffAssignedOnly limits a worker's booking reads to bookings
	// explicitly assigned to them.
	RoleStaffAssignedOnly = "staff_assigned_only"
)

// Account is a principal: a tenant owner or a worker. A worker carries an
// ownership back-reference to exactly one tenant and never owns data directly;
// every authorization decision resolves through OwnerID.
type Account struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Email        string    `json:"email" bson:"email" validate:"required,email"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"`
	Role         string    `json:"role" bson:"role" validate:"required,oneof=owner staff staff_assigned_only"`
	OwnerID      string    `json:"owner_id,omitempty" bson:"owner_id,omitempty" validate:"omitempty,mongodb"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (a *Account) IsWorker() bool {
	return a.OwnerID != ""
}
