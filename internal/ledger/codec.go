package ledger

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/google/uuid"
)

const (
	// DefaultHRP is the human-readable prefix of scope addresses.
	DefaultHRP = "scope"

	scopeKeyPrefix byte = 0x00
)

// Codec converts between asset UUIDs and ledger object addresses.
// Implementations must be deterministic and round-trip exactly.
type Codec interface {
	Encode(id uuid.UUID) (string, error)
	Decode(addr string) (uuid.UUID, error)
}

// Resolved is an Identifier with both forms filled in.
type Resolved struct {
	AssetID uuid.UUID `json:"asset_id"`
	Address string    `json:"address"`
}

// Resolve converts id to both its UUID and address forms.
func Resolve(c Codec, id Identifier) (Resolved, error) {
	if err := id.Validate(); err != nil {
		return Resolved{}, err
	}

	var assetID uuid.UUID
	switch id.Kind {
	case KindAssetUUID:
		assetID = uuid.MustParse(id.Value)
	default:
		var err error
		if assetID, err = c.Decode(id.Value); err != nil {
			return Resolved{}, err
		}
	}

	// Addresses are always re-encoded so every spelling of the same
	// address (bech32 allows all-uppercase) maps to one storage key.
	addr, err := c.Encode(assetID)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{AssetID: assetID, Address: addr}, nil
}

// ScopeCodec encodes a UUID as a one-byte key prefix followed by the 16 UUID
// bytes, bech32-encoded under HRP.
type ScopeCodec struct {
	HRP string
}

// NewScopeCodec returns a codec for hrp, or DefaultHRP when hrp is empty.
func NewScopeCodec(hrp string) ScopeCodec {
	if hrp == "" {
		hrp = DefaultHRP
	}
	return ScopeCodec{HRP: hrp}
}

func (c ScopeCodec) Encode(id uuid.UUID) (string, error) {
	raw := make([]byte, 0, 17)
	raw = append(raw, scopeKeyPrefix)
	raw = append(raw, id[:]...)

	data, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert bits: %w", err)
	}

	addr, err := bech32.Encode(c.HRP, data)
	if err != nil {
		return "", fmt.Errorf("encode scope address: %w", err)
	}
	return addr, nil
}

func (c ScopeCodec) Decode(addr string) (uuid.UUID, error) {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	if hrp != c.HRP {
		return uuid.Nil, fmt.Errorf("%w: prefix %q, want %q", ErrInvalidIdentifier, hrp, c.HRP)
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	if len(raw) != 17 || raw[0] != scopeKeyPrefix {
		return uuid.Nil, fmt.Errorf("%w: not a scope address", ErrInvalidIdentifier)
	}

	id, err := uuid.FromBytes(raw[1:])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	return id, nil
}
