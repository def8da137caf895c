package intent

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
)

// PreparationVersion pins the ruleset used to canonicalise and hash intents.
type PreparationVersion uint8

const PreparationV1 PreparationVersion = 1

// PreparationSettings are the format limits of a preparation ruleset.
type PreparationSettings struct {
	Version          PreparationVersion
	MaxSubintentSize int
	MaxInstructions  int
	MaxBlobs         int
	MaxChildren      int
	MaxDepth         int
}

// PreparationSettingsV1 returns the only ruleset this adapter signs under. It is
// referenced explicitly; there is no "latest". Each call returns a fresh copy, so
// callers cannot alter the pinned limits.
func PreparationSettingsV1() PreparationSettings {
	return PreparationSettings{
		Version:          PreparationV1,
		MaxSubintentSize: 1 << 20,
		MaxInstructions:  1000,
		MaxBlobs:         64,
		MaxChildren:      32,
		MaxDepth:         sbor.DefaultMaxDepth,
	}
}

const (
	// HashablePayloadPrefix opens every hash preimage.
	HashablePayloadPrefix byte = 0x54

	// payload discriminators
	DiscriminatorSubintent                byte = 0x07
	DiscriminatorSignedPartialTransaction byte = 0x0a
)

// Hash is a blake2b-256 content hash.
type Hash [32]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// Prepared is a subintent checked against a ruleset, with its canonical hash.
type Prepared struct {
	Hash        Hash
	PayloadSize int
}

// Prepare validates s against settings and computes its subintent hash:
// blake2b(0x54 || 0x07 || blake2b(headerHash || blobsHash || messageHash ||
// childrenHash || instructionsHash)), each component hash being blake2b of the
// component's encoding.
func (s Subintent) Prepare(settings PreparationSettings) (*Prepared, error) {
	if settings.Version != PreparationV1 {
		return nil, fmt.Errorf("%w: unsupported preparation version %d", apperr.ErrSerialization, settings.Version)
	}
	if err := s.validate(settings); err != nil {
		return nil, err
	}

	c := s.Core
	components := []sbor.Value{
		c.Header.value(),
		blobsValue(c.Blobs),
		c.Message.value(),
		childrenValue(c.Children),
		instructionsValue(c.Instructions),
	}
	summary := make([]byte, 0, len(components)*blake2b.Size256)
	for _, comp := range components {
		raw, err := sbor.EncodeWithDepth(comp, settings.MaxDepth)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrSerialization, err)
		}
		h := blake2b.Sum256(raw)
		summary = append(summary, h[:]...)
	}
	coreHash := blake2b.Sum256(summary)

	payload, err := s.ToPayload(settings)
	if err != nil {
		return nil, err
	}

	preimage := append([]byte{HashablePayloadPrefix, DiscriminatorSubintent}, coreHash[:]...)
	return &Prepared{Hash: blake2b.Sum256(preimage), PayloadSize: len(payload)}, nil
}

// ToPayload encodes the subintent as a standalone payload.
func (s Subintent) ToPayload(settings PreparationSettings) ([]byte, error) {
	raw, err := sbor.EncodeWithDepth(sbor.NewEnum(DiscriminatorSubintent, s.Value()), settings.MaxDepth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrSerialization, err)
	}
	if len(raw) > settings.MaxSubintentSize {
		return nil, fmt.Errorf("%w: subintent is %d bytes, limit %d", apperr.ErrSerialization, len(raw), settings.MaxSubintentSize)
	}
	return raw, nil
}

func (s Subintent) validate(settings PreparationSettings) error {
	h := s.Core.Header
	if h.EndEpochExclusive <= h.StartEpochInclusive {
		return fmt.Errorf("%w: end epoch %d not after start epoch %d", apperr.ErrSerialization, h.EndEpochExclusive, h.StartEpochInclusive)
	}
	if h.MinProposerTimestampInclusive != nil && h.MaxProposerTimestampExclusive != nil &&
		*h.MaxProposerTimestampExclusive <= *h.MinProposerTimestampInclusive {
		return fmt.Errorf("%w: empty proposer timestamp range", apperr.ErrSerialization)
	}
	if n := len(s.Core.Instructions); n > settings.MaxInstructions {
		return fmt.Errorf("%w: %d instructions, limit %d", apperr.ErrSerialization, n, settings.MaxInstructions)
	}
	if n := len(s.Core.Blobs); n > settings.MaxBlobs {
		return fmt.Errorf("%w: %d blobs, limit %d", apperr.ErrSerialization, n, settings.MaxBlobs)
	}
	if n := len(s.Core.Children); n > settings.MaxChildren {
		return fmt.Errorf("%w: %d children, limit %d", apperr.ErrSerialization, n, settings.MaxChildren)
	}
	return nil
}
