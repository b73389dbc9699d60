package model

import "time"

// Invitation is an ephemeral, token-addressed grant to join a tenant as a
// worker. Expiry is an explicit field checked at redemption time; the TTL
// index on the collection is housekeeping only, never the source of truth.
type Invitation struct {
	Token      string     `json:"token" bson:"_id" validate:"required,uuid4"`
	TenantID   string     `json:"tenant_id" bson:"tenant_id" validate:"required,mongodb"`
	Email      string     `json:"email" bson:"email" validate:"required,email"`
	Role       string     `json:"role" bson:"role" validate:"required,oneof=staff staff_assigned_only"`
	ExpiresAt  time.Time  `json:"expires_at" bson:"expires_at"`
	Redeemed   bool       `json:"redeemed" bson:"redeemed"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty" bson:"redeemed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
