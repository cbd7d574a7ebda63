// Package objects tracks the ledger objects that classifications attach to.
// An object must be registered before any classification can reference it.
package objects

import (
	"time"

	"github.com/google/uuid"
)

// Object is a ledger object keyed by its canonical scope address.
type Object struct {
	Address   string    `json:"address"`
	AssetID   uuid.UUID `json:"asset_id"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterCommand registers the object derived from AssetID.
type RegisterCommand struct {
	AssetID uuid.UUID `json:"asset_id"`
	Owner   string    `json:"owner"`
}
