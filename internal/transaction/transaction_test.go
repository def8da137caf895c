package transaction

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/intent"
	"github.com/Checker-Finance/anthic-adapter/internal/manifest"
	"github.com/Checker-Finance/anthic-adapter/internal/network"
	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
	"github.com/Checker-Finance/anthic-adapter/internal/signing"
)

const testKeyHex = "0c3b9a1e5f2d4c6b8a7f0e1d2c3b4a5968778695a4b3c2d1e0f1e2d3c4b5a697"

func signedFill(t *testing.T) (SignedPartialTransaction, intent.Hash, *signing.SignatureWithPublicKey) {
	var account, usdc, btc sbor.Address
	account[0], usdc[0], btc[0] = 0xc1, 0x5d, 0x5e
	m, err := manifest.NewBuilder().AddLimitOrder(
		account,
		manifest.ResourceAmount{Resource: manifest.Resource{Symbol: "xUSDC", Address: usdc}, Amount: decimal.RequireFromString("95.85")},
		manifest.ResourceAmount{Resource: manifest.Resource{Symbol: "xwBTC", Address: btc}, Amount: decimal.RequireFromString("0.001")},
		decimal.RequireFromString("0.1"), decimal.Zero, nil,
	).Build()
	require.NoError(t, err)
	s := intent.BuildFillSubintent(network.Stokenet, m, 15*time.Second, 321, 42, time.Unix(1_760_000_000, 0))

	key, err := signing.ParsePrivateKeyHex(testKeyHex)
	require.NoError(t, err)
	sig, hash, err := signing.SignSubintent(s, key, intent.PreparationSettingsV1())
	require.NoError(t, err)
	return Assemble(s, sig), hash, &sig
}

func TestAssemble_Shape(t *testing.T) {
	tx, _, sig := signedFill(t)
	assert.Empty(t, tx.PartialTransaction.NonRootSubintents)
	assert.Empty(t, tx.NonRootSubintentSignatures)
	require.Len(t, tx.RootSubintentSignatures, 1)
	assert.Equal(t, *sig, tx.RootSubintentSignatures[0])
}

func TestToHex_RoundTrip(t *testing.T) {
	tx, hash, _ := signedFill(t)
	key, err := signing.ParsePrivateKeyHex(testKeyHex)
	require.NoError(t, err)

	h, err := tx.ToHex(intent.PreparationSettingsV1())
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(h), h)
	assert.True(t, strings.HasPrefix(h, "4d220a"), "payload prefix then enum 10, got %s", h[:6])

	back, err := FromHex(h)
	require.NoError(t, err)
	assert.Equal(t, tx, back)

	prepared, err := back.PartialTransaction.RootSubintent.Prepare(intent.PreparationSettingsV1())
	require.NoError(t, err)
	assert.Equal(t, hash, prepared.Hash)
	assert.True(t, back.RootSubintentSignatures[0].Verify(prepared.Hash, key.PubKey()))

	again, err := back.ToHex(intent.PreparationSettingsV1())
	require.NoError(t, err)
	assert.Equal(t, h, again)
}

func TestToRaw_Errors(t *testing.T) {
	tx, _, _ := signedFill(t)

	bad := intent.PreparationSettingsV1()
	bad.Version = 3
	_, err := tx.ToRaw(bad)
	assert.True(t, errors.Is(err, apperr.ErrSerialization))

	tx.NonRootSubintentSignatures = [][]signing.SignatureWithPublicKey{{}}
	_, err = tx.ToRaw(intent.PreparationSettingsV1())
	assert.True(t, errors.Is(err, apperr.ErrSerialization))
}

func TestFromHex_Errors(t *testing.T) {
	tests := map[string]string{
		"not hex":         "xyz",
		"empty":           "",
		"wrong prefix":    "5c2200",
		"wrong variant":   "4d220700",
		"truncated":       "4d220a01",
		"subintent alone": "4d2200",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromHex(in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrParse), "got %v", err)
		})
	}
}
