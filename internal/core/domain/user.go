package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a wallet owner. Registration and authentication live outside
// this service; users exist here only as owners of wallets, including
// owners minted on the fly when an internal transfer targets an unknown
// wallet number.
type User struct {
	ID            uuid.UUID `json:"id"`
	Email         *string   `json:"email,omitempty"`
	IsProvisioned bool      `json:"is_provisioned"` // created by recipient auto-provisioning
	CreatedAt     time.Time `json:"created_at"`
}
