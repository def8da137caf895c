package filler

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/intent"
	"github.com/Checker-Finance/anthic-adapter/internal/transaction"
)

// Summary describes a signed partial transaction for operators.
type Summary struct {
	SubintentHash string     `json:"subintent_hash"`
	NetworkID     uint8      `json:"network_id"`
	StartEpoch    uint64     `json:"start_epoch"`
	EndEpoch      uint64     `json:"end_epoch"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Nonce         uint64     `json:"nonce,string"`
	Instructions  []string   `json:"instructions"`
	// RecoveredSigner is the key the root signature recovers to over the
	// recomputed hash. Any well-formed signature recovers to some key, so it
	// proves nothing unless compared to the expected signer.
	RecoveredSigner string `json:"recovered_signer_public_key,omitempty"`
	// SignatureValid is set only when an expected signer was supplied.
	SignatureValid *bool `json:"signature_valid,omitempty"`
}

// Inspect decodes a hex payload produced by SignFill and recomputes its hash.
// When expectedSigner (hex SEC1 public key) is non-empty, the root signature is
// verified against it.
func Inspect(payload, expectedSigner string, settings intent.PreparationSettings) (*Summary, error) {
	var expected *btcec.PublicKey
	if expectedSigner = strings.TrimSpace(expectedSigner); expectedSigner != "" {
		raw, err := hex.DecodeString(strings.TrimPrefix(expectedSigner, "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: signer public key is not hex", apperr.ErrParse)
		}
		if expected, err = btcec.ParsePubKey(raw); err != nil {
			return nil, fmt.Errorf("%w: signer public key: %v", apperr.ErrParse, err)
		}
	}

	tx, err := transaction.FromHex(payload)
	if err != nil {
		return nil, err
	}
	root := tx.PartialTransaction.RootSubintent
	prepared, err := root.Prepare(settings)
	if err != nil {
		return nil, err
	}
	if len(tx.RootSubintentSignatures) != 1 {
		return nil, fmt.Errorf("%w: expected one root signature, got %d", apperr.ErrParse, len(tx.RootSubintentSignatures))
	}

	h := root.Core.Header
	out := &Summary{
		SubintentHash: prepared.Hash.String(),
		NetworkID:     h.NetworkID,
		StartEpoch:    h.StartEpochInclusive,
		EndEpoch:      h.EndEpochExclusive,
		Nonce:         h.IntentDiscriminator,
	}
	if h.MaxProposerTimestampExclusive != nil {
		t := time.Unix(int64(*h.MaxProposerTimestampExclusive), 0).UTC()
		out.ExpiresAt = &t
	}
	for _, in := range root.Core.Instructions {
		out.Instructions = append(out.Instructions, in.String())
	}

	sig := tx.RootSubintentSignatures[0]
	if pub, err := sig.Recover(prepared.Hash); err == nil {
		out.RecoveredSigner = hex.EncodeToString(pub.SerializeCompressed())
	}
	if expected != nil {
		valid := sig.Verify(prepared.Hash, expected)
		out.SignatureValid = &valid
	}
	return out, nil
}
