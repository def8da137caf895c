// Package transaction assembles signed subintents into the signed partial
// transaction payload the venue submits on the user's behalf.
package transaction

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/intent"
	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
	"github.com/Checker-Finance/anthic-adapter/internal/signing"
)

// PartialTransaction is a root subintent plus any non-root subintents it
// references as children.
type PartialTransaction struct {
	RootSubintent     intent.Subintent
	NonRootSubintents []intent.Subintent
}

// SignedPartialTransaction carries a partial transaction together with the
// signatures over each of its subintents.
type SignedPartialTransaction struct {
	PartialTransaction         PartialTransaction
	RootSubintentSignatures    []signing.SignatureWithPublicKey
	NonRootSubintentSignatures [][]signing.SignatureWithPublicKey
}

// Assemble wraps a single signed subintent with no children.
func Assemble(s intent.Subintent, sig signing.SignatureWithPublicKey) SignedPartialTransaction {
	return SignedPartialTransaction{
		PartialTransaction:      PartialTransaction{RootSubintent: s},
		RootSubintentSignatures: []signing.SignatureWithPublicKey{sig},
	}
}

// Value encodes the transaction body, without the payload discriminator.
func (t SignedPartialTransaction) Value() sbor.Value {
	nonRoot := make([]sbor.Value, 0, len(t.PartialTransaction.NonRootSubintents))
	for _, s := range t.PartialTransaction.NonRootSubintents {
		nonRoot = append(nonRoot, s.Value())
	}
	nonRootSigs := make([]sbor.Value, 0, len(t.NonRootSubintentSignatures))
	for _, sigs := range t.NonRootSubintentSignatures {
		nonRootSigs = append(nonRootSigs, signaturesValue(sigs))
	}
	return sbor.NewTuple(
		sbor.NewTuple(
			t.PartialTransaction.RootSubintent.Value(),
			sbor.NewArray(sbor.KindTuple, nonRoot...),
		),
		signaturesValue(t.RootSubintentSignatures),
		sbor.NewArray(sbor.KindTuple, nonRootSigs...),
	)
}

// signatures are wrapped in a single-field tuple, matching the ledger's
// IntentSignatures layout
func signaturesValue(sigs []signing.SignatureWithPublicKey) sbor.Value {
	els := make([]sbor.Value, 0, len(sigs))
	for _, s := range sigs {
		els = append(els, s.Value())
	}
	return sbor.NewTuple(sbor.NewArray(sbor.KindEnum, els...))
}

// ToRaw encodes the transaction as a discriminated payload under settings.
func (t SignedPartialTransaction) ToRaw(settings intent.PreparationSettings) ([]byte, error) {
	if settings.Version != intent.PreparationV1 {
		return nil, fmt.Errorf("%w: unsupported preparation version %d", apperr.ErrSerialization, settings.Version)
	}
	if len(t.NonRootSubintentSignatures) != len(t.PartialTransaction.NonRootSubintents) {
		return nil, fmt.Errorf("%w: %d non-root subintents but %d signature sets", apperr.ErrSerialization,
			len(t.PartialTransaction.NonRootSubintents), len(t.NonRootSubintentSignatures))
	}
	raw, err := sbor.EncodeWithDepth(sbor.NewEnum(intent.DiscriminatorSignedPartialTransaction, t.Value()), settings.MaxDepth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrSerialization, err)
	}
	return raw, nil
}

// ToHex is ToRaw rendered as lowercase hex with no prefix.
func (t SignedPartialTransaction) ToHex(settings intent.PreparationSettings) (string, error) {
	raw, err := t.ToRaw(settings)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// FromHex decodes a payload produced by ToHex.
func FromHex(s string) (SignedPartialTransaction, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return SignedPartialTransaction{}, fmt.Errorf("%w: transaction is not hex", apperr.ErrParse)
	}
	return FromRaw(raw)
}

// FromRaw decodes a payload produced by ToRaw.
func FromRaw(raw []byte) (SignedPartialTransaction, error) {
	v, err := sbor.Decode(raw)
	if err != nil {
		return SignedPartialTransaction{}, fmt.Errorf("%w: %v", apperr.ErrParse, err)
	}
	out, err := fromValue(v)
	if err != nil {
		return SignedPartialTransaction{}, fmt.Errorf("%w: %v", apperr.ErrParse, err)
	}
	return out, nil
}

func fromValue(v sbor.Value) (SignedPartialTransaction, error) {
	e, ok := v.(sbor.Enum)
	if !ok || e.Discriminator != intent.DiscriminatorSignedPartialTransaction || len(e.Fields) != 1 {
		return SignedPartialTransaction{}, fmt.Errorf("not a signed partial transaction payload")
	}
	body, ok := e.Fields[0].(sbor.Tuple)
	if !ok || len(body.Fields) != 3 {
		return SignedPartialTransaction{}, fmt.Errorf("signed partial transaction must be a 3-field tuple")
	}

	partial, ok := body.Fields[0].(sbor.Tuple)
	if !ok || len(partial.Fields) != 2 {
		return SignedPartialTransaction{}, fmt.Errorf("partial transaction must be a 2-field tuple")
	}
	root, err := intent.SubintentFromValue(partial.Fields[0])
	if err != nil {
		return SignedPartialTransaction{}, fmt.Errorf("root subintent: %w", err)
	}
	var out SignedPartialTransaction
	out.PartialTransaction.RootSubintent = root

	children, ok := partial.Fields[1].(sbor.Array)
	if !ok {
		return SignedPartialTransaction{}, fmt.Errorf("non-root subintents must be an array")
	}
	for i, c := range children.Elements {
		s, err := intent.SubintentFromValue(c)
		if err != nil {
			return SignedPartialTransaction{}, fmt.Errorf("non-root subintent %d: %w", i, err)
		}
		out.PartialTransaction.NonRootSubintents = append(out.PartialTransaction.NonRootSubintents, s)
	}

	out.RootSubintentSignatures, err = signaturesFromValue(body.Fields[1])
	if err != nil {
		return SignedPartialTransaction{}, fmt.Errorf("root signatures: %w", err)
	}

	sets, ok := body.Fields[2].(sbor.Array)
	if !ok {
		return SignedPartialTransaction{}, fmt.Errorf("non-root signatures must be an array")
	}
	for i, set := range sets.Elements {
		sigs, err := signaturesFromValue(set)
		if err != nil {
			return SignedPartialTransaction{}, fmt.Errorf("non-root signatures %d: %w", i, err)
		}
		out.NonRootSubintentSignatures = append(out.NonRootSubintentSignatures, sigs)
	}
	return out, nil
}

func signaturesFromValue(v sbor.Value) ([]signing.SignatureWithPublicKey, error) {
	t, ok := v.(sbor.Tuple)
	if !ok || len(t.Fields) != 1 {
		return nil, fmt.Errorf("signatures must be a 1-field tuple")
	}
	arr, ok := t.Fields[0].(sbor.Array)
	if !ok {
		return nil, fmt.Errorf("signatures must be an array")
	}
	var out []signing.SignatureWithPublicKey
	for _, el := range arr.Elements {
		sig, err := signing.FromValue(el)
		if err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, nil
}
