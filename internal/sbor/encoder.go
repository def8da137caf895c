package sbor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMaxDepthExceeded is returned when a value nests deeper than the configured limit.
var ErrMaxDepthExceeded = errors.New("sbor: max depth exceeded")

// maxLength bounds every length prefix (array, tuple, string, bytes).
const maxLength = 0xffffffff

// Encode writes v as a complete payload (prefix, kind, body) using DefaultMaxDepth.
func Encode(v Value) ([]byte, error) {
	return EncodeWithDepth(v, DefaultMaxDepth)
}

// EncodeWithDepth is Encode with an explicit nesting limit.
func EncodeWithDepth(v Value, maxDepth int) ([]byte, error) {
	e := &Encoder{maxDepth: maxDepth}
	e.buf = append(e.buf, PayloadPrefix)
	if err := e.WriteValue(v); err != nil {
		return nil, err
	}
	return e.buf, nil
}

// Encoder accumulates an encoding. The zero value has no depth limit.
type Encoder struct {
	buf      []byte
	depth    int
	maxDepth int
}

// Bytes returns the encoded bytes written so far.
func (e *Encoder) Bytes() []byte { return e.buf }

// WriteValue writes the kind byte followed by the body.
func (e *Encoder) WriteValue(v Value) error {
	if v == nil {
		return errors.New("sbor: nil value")
	}
	e.buf = append(e.buf, byte(v.Kind()))
	return e.writeBody(v)
}

func (e *Encoder) writeBody(v Value) error {
	switch x := v.(type) {
	case Bool:
		if x {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
	case I8:
		e.buf = append(e.buf, byte(x))
	case U8:
		e.buf = append(e.buf, byte(x))
	case I64:
		e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(x))
	case U32:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(x))
	case U64:
		e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(x))
	case String:
		if err := e.writeSize(len(x)); err != nil {
			return err
		}
		e.buf = append(e.buf, x...)
	case Bytes:
		e.buf = append(e.buf, byte(KindU8))
		if err := e.writeSize(len(x)); err != nil {
			return err
		}
		e.buf = append(e.buf, x...)
	case Array:
		return e.writeArray(x)
	case Tuple:
		return e.writeFields(x.Fields)
	case Enum:
		e.buf = append(e.buf, x.Discriminator)
		return e.writeFields(x.Fields)
	case Address:
		e.buf = append(e.buf, x[:]...)
	case Bucket:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(x))
	case Proof:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(x))
	case Expression:
		e.buf = append(e.buf, byte(x))
	case Blob:
		e.buf = append(e.buf, x[:]...)
	case Decimal:
		e.buf = append(e.buf, x[:]...)
	case NonFungibleLocalID:
		return e.writeLocalID(x)
	default:
		return fmt.Errorf("sbor: unsupported value %T", v)
	}
	return nil
}

func (e *Encoder) writeArray(a Array) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	e.buf = append(e.buf, byte(a.ElementKind))
	if err := e.writeSize(len(a.Elements)); err != nil {
		return err
	}
	for i, el := range a.Elements {
		if el == nil || el.Kind() != a.ElementKind {
			return fmt.Errorf("sbor: array element %d is not %s", i, a.ElementKind)
		}
		if err := e.writeBody(el); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeFields(fields []Value) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()

	if err := e.writeSize(len(fields)); err != nil {
		return err
	}
	for _, f := range fields {
		if err := e.WriteValue(f); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeLocalID(id NonFungibleLocalID) error {
	e.buf = append(e.buf, byte(id.Type))
	switch id.Type {
	case LocalIDString:
		if err := e.writeSize(len(id.Str)); err != nil {
			return err
		}
		e.buf = append(e.buf, id.Str...)
	case LocalIDInteger:
		e.buf = binary.BigEndian.AppendUint64(e.buf, id.Integer)
	case LocalIDBytes:
		if err := e.writeSize(len(id.Raw)); err != nil {
			return err
		}
		e.buf = append(e.buf, id.Raw...)
	case LocalIDRUID:
		if len(id.Raw) != ruidLength {
			return fmt.Errorf("sbor: ruid must be %d bytes", ruidLength)
		}
		e.buf = append(e.buf, id.Raw...)
	default:
		return fmt.Errorf("sbor: unknown local id type %d", id.Type)
	}
	return nil
}

// writeSize writes an unsigned LEB128 length.
func (e *Encoder) writeSize(n int) error {
	if n < 0 || uint64(n) > maxLength {
		return fmt.Errorf("sbor: length %d out of range", n)
	}
	e.buf = binary.AppendUvarint(e.buf, uint64(n))
	return nil
}

func (e *Encoder) enter() error {
	e.depth++
	if e.maxDepth > 0 && e.depth > e.maxDepth {
		return ErrMaxDepthExceeded
	}
	return nil
}

func (e *Encoder) leave() { e.depth-- }
