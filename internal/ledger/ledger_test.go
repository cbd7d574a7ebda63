package ledger_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/attest/internal/ledger"
)

const (
	knownUUID    = "a5e5a828-9a48-11ec-8193-1731fd63d6a6"
	knownAddress = "scope1qzj7t2pgnfyprmypjvtnrltr66nqd4c3cq"
)

func TestScopeCodecKnownVector(t *testing.T) {
	codec := ledger.NewScopeCodec("")

	addr, err := codec.Encode(uuid.MustParse(knownUUID))
	require.NoError(t, err)
	assert.Equal(t, knownAddress, addr)

	id, err := codec.Decode(knownAddress)
	require.NoError(t, err)
	assert.Equal(t, knownUUID, id.String())
}

func TestScopeCodecRoundTrip(t *testing.T) {
	codec := ledger.NewScopeCodec(ledger.DefaultHRP)

	for range 25 {
		id := uuid.New()
		addr, err := codec.Encode(id)
		require.NoError(t, err)

		back, err := codec.Decode(addr)
		require.NoError(t, err)
		assert.Equal(t, id, back)
	}
}

func TestScopeCodecDecodeErrors(t *testing.T) {
	codec := ledger.NewScopeCodec("")

	other, err := ledger.NewScopeCodec("record").Encode(uuid.MustParse(knownUUID))
	require.NoError(t, err)

	tests := []struct {
		name string
		addr string
	}{
		{name: "not bech32", addr: "hello"},
		{name: "bad checksum", addr: "scope1qzj7t2pgnfyprmypjvtnrltr66nqd4c3cp"},
		{name: "wrong prefix", addr: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.addr)
			assert.ErrorIs(t, err, ledger.ErrInvalidIdentifier)
		})
	}
}

func TestResolve(t *testing.T) {
	codec := ledger.NewScopeCodec("")

	byUUID, err := ledger.Resolve(codec, ledger.AssetID(uuid.MustParse(knownUUID)))
	require.NoError(t, err)
	assert.Equal(t, knownAddress, byUUID.Address)

	byAddr, err := ledger.Resolve(codec, ledger.Address(knownAddress))
	require.NoError(t, err)
	assert.Equal(t, byUUID, byAddr)

	_, err = ledger.Resolve(codec, ledger.Identifier{Kind: ledger.KindAssetUUID, Value: "nope"})
	assert.ErrorIs(t, err, ledger.ErrInvalidIdentifier)

	_, err = ledger.Resolve(codec, ledger.Identifier{Kind: ledger.KindLedgerAddress, Value: "  "})
	assert.ErrorIs(t, err, ledger.ErrInvalidIdentifier)
}

func TestResolveCanonicalizesAddress(t *testing.T) {
	codec := ledger.NewScopeCodec("")

	upper, err := ledger.Resolve(codec, ledger.Address(strings.ToUpper(knownAddress)))
	require.NoError(t, err)
	assert.Equal(t, knownAddress, upper.Address)
	assert.Equal(t, uuid.MustParse(knownUUID), upper.AssetID)

	_, err = ledger.Resolve(codec, ledger.Address("scope1QZJ7t2pgnfyprmypjvtnrltr66nqd4c3cq"))
	assert.ErrorIs(t, err, ledger.ErrInvalidIdentifier, "mixed case is rejected")
}

func TestIdentifierFromPath(t *testing.T) {
	id, err := ledger.IdentifierFromPath("asset", knownUUID)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindAssetUUID, id.Kind)

	id, err = ledger.IdentifierFromPath("address", knownAddress)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindLedgerAddress, id.Kind)

	_, err = ledger.IdentifierFromPath("scope", knownAddress)
	assert.ErrorIs(t, err, ledger.ErrInvalidIdentifier)
}

func TestIdentifierJSON(t *testing.T) {
	var id ledger.Identifier
	require.NoError(t, json.Unmarshal([]byte(`{"type":"ledger_address","value":"`+knownAddress+`"}`), &id))
	assert.Equal(t, ledger.Address(knownAddress), id)

	err := json.Unmarshal([]byte(`{"type":"bogus","value":"x"}`), &id)
	assert.ErrorIs(t, err, ledger.ErrInvalidIdentifier)
}

func TestMapHTTPStatus(t *testing.T) {
	_, err := ledger.IdentifierFromPath("x", "y")
	assert.Equal(t, http.StatusBadRequest, ledger.MapHTTPStatus(err))
}
