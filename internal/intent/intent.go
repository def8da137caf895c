// Package intent wraps a manifest in the epoch- and time-bounded subintent envelope
// and prepares it into its canonical, hashable form.
package intent

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/Checker-Finance/anthic-adapter/internal/manifest"
	"github.com/Checker-Finance/anthic-adapter/internal/network"
)

const (
	// EpochWindow is the number of epochs a fill subintent stays valid for.
	EpochWindow = 2

	// MinExpiry is the shortest proposer-timestamp window the venue accepts.
	MinExpiry = 10 * time.Second
)

// Instant is a proposer timestamp in unix seconds.
type Instant int64

// Header bounds when and where the subintent may be committed.
type Header struct {
	NetworkID                     uint8
	StartEpochInclusive           uint64
	EndEpochExclusive             uint64
	MinProposerTimestampInclusive *Instant
	MaxProposerTimestampExclusive *Instant
	IntentDiscriminator           uint64
}

// Message is the intent message. Fill subintents carry none.
type Message struct{}

// Core is the signed content of a subintent.
type Core struct {
	Header       Header
	Blobs        [][]byte
	Message      Message
	Children     []manifest.ChildSubintent
	Instructions []manifest.Instruction
}

// Subintent is an independently hashable and signable part of a transaction.
type Subintent struct {
	Core Core
}

// BuildFillSubintent wraps m in an envelope valid for EpochWindow epochs from
// curEpoch and until now+expireAfter. nonce makes otherwise identical fills hash
// differently.
func BuildFillSubintent(net network.Definition, m manifest.SubintentManifest, expireAfter time.Duration, curEpoch, nonce uint64, now time.Time) Subintent {
	instructions, blobs, children := m.ForIntent()
	maxTs := Instant(now.Add(expireAfter).Unix())

	return Subintent{
		Core: Core{
			Header: Header{
				NetworkID:                     net.ID,
				StartEpochInclusive:           curEpoch,
				EndEpochExclusive:             curEpoch + EpochWindow,
				MinProposerTimestampInclusive: nil,
				MaxProposerTimestampExclusive: &maxTs,
				IntentDiscriminator:           nonce,
			},
			Blobs:        blobs,
			Message:      Message{},
			Children:     children,
			Instructions: instructions,
		},
	}
}

// ValidateExpiry rejects expiry windows shorter than the venue minimum.
func ValidateExpiry(d time.Duration) error {
	if d < MinExpiry {
		return fmt.Errorf("expiry %s is below the venue minimum %s", d, MinExpiry)
	}
	return nil
}

// NewNonce draws a fresh discriminator from crypto/rand. Safe for concurrent use.
func NewNonce() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("draw nonce: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
