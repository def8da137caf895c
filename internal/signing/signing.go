// Package signing produces and checks secp256k1 signatures over subintent hashes.
package signing

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/intent"
	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
)

// Curve discriminates the signature variant.
type Curve uint8

const (
	CurveSecp256k1 Curve = 0
	CurveEd25519   Curve = 1
)

// SignatureLength is the size of a recoverable secp256k1 signature: v || r || s.
const SignatureLength = 65

// compact signatures from btcec carry 27 + 4 (compressed) + recovery id
const compactHeaderCompressed = 27 + 4

// SignatureWithPublicKey is a recoverable secp256k1 signature. The public key is
// implied by recovery.
type SignatureWithPublicKey struct {
	Curve     Curve
	Signature [SignatureLength]byte
}

// ParsePrivateKeyHex decodes a 32-byte hex private key. Whitespace and an 0x
// prefix are tolerated.
func ParsePrivateKeyHex(s string) (*btcec.PrivateKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: private key is not hex", apperr.ErrParse)
	}
	if len(raw) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", apperr.ErrParse, btcec.PrivKeyBytesLen, len(raw))
	}
	key, _ := btcec.PrivKeyFromBytes(raw)
	if key.Key.IsZero() {
		return nil, fmt.Errorf("%w: private key is zero", apperr.ErrParse)
	}
	return key, nil
}

// Sign signs hash with key.
func Sign(hash intent.Hash, key *btcec.PrivateKey) (SignatureWithPublicKey, error) {
	compact := ecdsa.SignCompact(key, hash[:], true)
	if len(compact) != SignatureLength {
		return SignatureWithPublicKey{}, fmt.Errorf("sign: unexpected signature length %d", len(compact))
	}
	sig := SignatureWithPublicKey{Curve: CurveSecp256k1}
	sig.Signature[0] = compact[0] - compactHeaderCompressed
	copy(sig.Signature[1:], compact[1:])
	return sig, nil
}

// SignSubintent prepares s under settings and signs its hash.
func SignSubintent(s intent.Subintent, key *btcec.PrivateKey, settings intent.PreparationSettings) (SignatureWithPublicKey, intent.Hash, error) {
	prepared, err := s.Prepare(settings)
	if err != nil {
		return SignatureWithPublicKey{}, intent.Hash{}, err
	}
	sig, err := Sign(prepared.Hash, key)
	if err != nil {
		return SignatureWithPublicKey{}, intent.Hash{}, err
	}
	return sig, prepared.Hash, nil
}

// Recover returns the public key that produced sig over hash.
func (s SignatureWithPublicKey) Recover(hash intent.Hash) (*btcec.PublicKey, error) {
	if s.Curve != CurveSecp256k1 {
		return nil, fmt.Errorf("unsupported curve %d", s.Curve)
	}
	if s.Signature[0] > 3 {
		return nil, fmt.Errorf("invalid recovery id %d", s.Signature[0])
	}
	compact := make([]byte, SignatureLength)
	compact[0] = s.Signature[0] + compactHeaderCompressed
	copy(compact[1:], s.Signature[1:])
	pub, _, err := ecdsa.RecoverCompact(compact, hash[:])
	if err != nil {
		return nil, fmt.Errorf("recover public key: %w", err)
	}
	return pub, nil
}

// Verify reports whether sig over hash was produced by pub.
func (s SignatureWithPublicKey) Verify(hash intent.Hash, pub *btcec.PublicKey) bool {
	got, err := s.Recover(hash)
	if err != nil {
		return false
	}
	return bytes.Equal(got.SerializeCompressed(), pub.SerializeCompressed())
}

func (s SignatureWithPublicKey) String() string {
	return hex.EncodeToString(s.Signature[:])
}

// Value encodes the signature as Enum(curve, [bytes]).
func (s SignatureWithPublicKey) Value() sbor.Value {
	return sbor.NewEnum(uint8(s.Curve), sbor.Bytes(s.Signature[:]))
}

// FromValue is the inverse of SignatureWithPublicKey.Value.
func FromValue(v sbor.Value) (SignatureWithPublicKey, error) {
	e, ok := v.(sbor.Enum)
	if !ok || len(e.Fields) != 1 {
		return SignatureWithPublicKey{}, fmt.Errorf("signature must be a single-field enum")
	}
	if Curve(e.Discriminator) != CurveSecp256k1 {
		return SignatureWithPublicKey{}, fmt.Errorf("unsupported curve %d", e.Discriminator)
	}
	raw, ok := e.Fields[0].(sbor.Bytes)
	if !ok || len(raw) != SignatureLength {
		return SignatureWithPublicKey{}, fmt.Errorf("secp256k1 signature must be %d bytes", SignatureLength)
	}
	out := SignatureWithPublicKey{Curve: CurveSecp256k1}
	copy(out.Signature[:], raw)
	return out, nil
}
