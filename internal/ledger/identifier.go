// Package ledger defines how callers refer to ledger objects and the codec that
// converts between asset UUIDs and canonical bech32 object addresses.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidIdentifier indicates an identifier could not be parsed or decoded.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// Kind discriminates the Identifier union.
type Kind string

const (
	KindAssetUUID     Kind = "asset_uuid"
	KindLedgerAddress Kind = "ledger_address"
)

// Identifier references a ledger object either by its asset UUID or by its
// canonical ledger address.
type Identifier struct {
	Kind  Kind   `json:"type"`
	Value string `json:"value"`
}

// AssetID builds an asset UUID identifier.
func AssetID(id uuid.UUID) Identifier {
	return Identifier{Kind: KindAssetUUID, Value: id.String()}
}

// Address builds a ledger address identifier.
func Address(addr string) Identifier {
	return Identifier{Kind: KindLedgerAddress, Value: addr}
}

// IdentifierFromPath maps a route segment pair such as ("asset", "<uuid>")
// or ("address", "<bech32>") to an Identifier.
func IdentifierFromPath(kind, value string) (Identifier, error) {
	switch kind {
	case "asset", string(KindAssetUUID):
		return Identifier{Kind: KindAssetUUID, Value: value}, nil
	case "address", string(KindLedgerAddress):
		return Identifier{Kind: KindLedgerAddress, Value: value}, nil
	default:
		return Identifier{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidIdentifier, kind)
	}
}

// Validate checks the kind and that the value is non-blank.
func (i Identifier) Validate() error {
	if strings.TrimSpace(i.Value) == "" {
		return fmt.Errorf("%w: value must not be blank", ErrInvalidIdentifier)
	}
	switch i.Kind {
	case KindAssetUUID:
		if _, err := uuid.Parse(i.Value); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
		}
	case KindLedgerAddress:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidIdentifier, i.Kind)
	}
	return nil
}

func (i Identifier) String() string {
	return fmt.Sprintf("%s:%s", i.Kind, i.Value)
}

// UnmarshalJSON rejects unknown kinds at decode time.
func (i *Identifier) UnmarshalJSON(data []byte) error {
	type raw Identifier
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	switch r.Kind {
	case KindAssetUUID, KindLedgerAddress:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidIdentifier, r.Kind)
	}
	*i = Identifier(r)
	return nil
}
