package intent

import (
	"fmt"

	"github.com/Checker-Finance/anthic-adapter/internal/manifest"
	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
)

const messageNone uint8 = 0

func (h Header) value() sbor.Value {
	return sbor.NewTuple(
		sbor.U8(h.NetworkID),
		sbor.U64(h.StartEpochInclusive),
		sbor.U64(h.EndEpochExclusive),
		instantOption(h.MinProposerTimestampInclusive),
		instantOption(h.MaxProposerTimestampExclusive),
		sbor.U64(h.IntentDiscriminator),
	)
}

func instantOption(i *Instant) sbor.Value {
	if i == nil {
		return sbor.Option(nil)
	}
	return sbor.Option(sbor.I64(*i))
}

func blobsValue(blobs [][]byte) sbor.Value {
	els := make([]sbor.Value, 0, len(blobs))
	for _, b := range blobs {
		els = append(els, sbor.Bytes(b))
	}
	return sbor.NewArray(sbor.KindArray, els...)
}

func (Message) value() sbor.Value {
	return sbor.NewEnum(messageNone)
}

func childrenValue(children []manifest.ChildSubintent) sbor.Value {
	els := make([]sbor.Value, 0, len(children))
	for _, c := range children {
		els = append(els, sbor.Bytes(c.Hash[:]))
	}
	return sbor.NewArray(sbor.KindArray, els...)
}

func instructionsValue(ins []manifest.Instruction) sbor.Value {
	els := make([]sbor.Value, 0, len(ins))
	for _, in := range ins {
		els = append(els, in.Value())
	}
	return sbor.NewArray(sbor.KindEnum, els...)
}

// Value returns the subintent core as a five-field tuple.
func (s Subintent) Value() sbor.Value {
	c := s.Core
	return sbor.NewTuple(
		c.Header.value(),
		blobsValue(c.Blobs),
		c.Message.value(),
		childrenValue(c.Children),
		instructionsValue(c.Instructions),
	)
}

// SubintentFromValue is the inverse of Subintent.Value.
func SubintentFromValue(v sbor.Value) (Subintent, error) {
	t, ok := v.(sbor.Tuple)
	if !ok || len(t.Fields) != 5 {
		return Subintent{}, fmt.Errorf("subintent must be a 5-field tuple")
	}

	header, err := headerFromValue(t.Fields[0])
	if err != nil {
		return Subintent{}, err
	}
	blobs, err := byteArrays(t.Fields[1], "blobs")
	if err != nil {
		return Subintent{}, err
	}
	if m, ok := t.Fields[2].(sbor.Enum); !ok || m.Discriminator != messageNone || len(m.Fields) != 0 {
		return Subintent{}, fmt.Errorf("unsupported intent message")
	}
	rawChildren, err := byteArrays(t.Fields[3], "children")
	if err != nil {
		return Subintent{}, err
	}
	var children []manifest.ChildSubintent
	for _, raw := range rawChildren {
		if len(raw) != 32 {
			return Subintent{}, fmt.Errorf("child hash must be 32 bytes")
		}
		var c manifest.ChildSubintent
		copy(c.Hash[:], raw)
		children = append(children, c)
	}

	arr, ok := t.Fields[4].(sbor.Array)
	if !ok || (len(arr.Elements) > 0 && arr.ElementKind != sbor.KindEnum) {
		return Subintent{}, fmt.Errorf("instructions must be an array of enums")
	}
	var instructions []manifest.Instruction
	for i, el := range arr.Elements {
		in, err := manifest.InstructionFromValue(el)
		if err != nil {
			return Subintent{}, fmt.Errorf("instruction %d: %w", i, err)
		}
		instructions = append(instructions, in)
	}

	return Subintent{Core: Core{
		Header:       header,
		Blobs:        blobs,
		Children:     children,
		Instructions: instructions,
	}}, nil
}

func headerFromValue(v sbor.Value) (Header, error) {
	t, ok := v.(sbor.Tuple)
	if !ok || len(t.Fields) != 6 {
		return Header{}, fmt.Errorf("header must be a 6-field tuple")
	}
	network, ok1 := t.Fields[0].(sbor.U8)
	start, ok2 := t.Fields[1].(sbor.U64)
	end, ok3 := t.Fields[2].(sbor.U64)
	disc, ok4 := t.Fields[5].(sbor.U64)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Header{}, fmt.Errorf("malformed header fields")
	}
	minTs, err := instantFromOption(t.Fields[3])
	if err != nil {
		return Header{}, fmt.Errorf("min timestamp: %w", err)
	}
	maxTs, err := instantFromOption(t.Fields[4])
	if err != nil {
		return Header{}, fmt.Errorf("max timestamp: %w", err)
	}
	return Header{
		NetworkID:                     uint8(network),
		StartEpochInclusive:           uint64(start),
		EndEpochExclusive:             uint64(end),
		MinProposerTimestampInclusive: minTs,
		MaxProposerTimestampExclusive: maxTs,
		IntentDiscriminator:           uint64(disc),
	}, nil
}

func instantFromOption(v sbor.Value) (*Instant, error) {
	e, ok := v.(sbor.Enum)
	if !ok {
		return nil, fmt.Errorf("expected option")
	}
	switch {
	case e.Discriminator == sbor.OptionNone && len(e.Fields) == 0:
		return nil, nil
	case e.Discriminator == sbor.OptionSome && len(e.Fields) == 1:
		i, ok := e.Fields[0].(sbor.I64)
		if !ok {
			return nil, fmt.Errorf("instant must be i64")
		}
		out := Instant(i)
		return &out, nil
	}
	return nil, fmt.Errorf("malformed option")
}

func byteArrays(v sbor.Value, what string) ([][]byte, error) {
	arr, ok := v.(sbor.Array)
	if !ok {
		return nil, fmt.Errorf("%s must be an array", what)
	}
	var out [][]byte
	for _, el := range arr.Elements {
		b, ok := el.(sbor.Bytes)
		if !ok {
			return nil, fmt.Errorf("%s entries must be byte arrays", what)
		}
		out = append(out, []byte(b))
	}
	return out, nil
}
