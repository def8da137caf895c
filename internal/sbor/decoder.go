package sbor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrUnexpectedEOF is returned when the payload ends inside a value.
var ErrUnexpectedEOF = errors.New("sbor: unexpected end of payload")

// Decode parses a complete payload produced by Encode using DefaultMaxDepth.
// Trailing bytes are an error.
func Decode(payload []byte) (Value, error) {
	return DecodeWithDepth(payload, DefaultMaxDepth)
}

// DecodeWithDepth is Decode with an explicit nesting limit.
func DecodeWithDepth(payload []byte, maxDepth int) (Value, error) {
	if len(payload) == 0 || payload[0] != PayloadPrefix {
		return nil, fmt.Errorf("sbor: missing payload prefix 0x%02x", PayloadPrefix)
	}
	d := &decoder{buf: payload, pos: 1, maxDepth: maxDepth}
	v, err := d.readValue()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.buf) {
		return nil, fmt.Errorf("sbor: %d trailing bytes", len(d.buf)-d.pos)
	}
	return v, nil
}

type decoder struct {
	buf      []byte
	pos      int
	depth    int
	maxDepth int
}

func (d *decoder) readValue() (Value, error) {
	k, err := d.readByte()
	if err != nil {
		return nil, err
	}
	return d.readBody(ValueKind(k))
}

func (d *decoder) readBody(kind ValueKind) (Value, error) {
	switch kind {
	case KindBool:
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		switch b {
		case 0:
			return Bool(false), nil
		case 1:
			return Bool(true), nil
		}
		return nil, fmt.Errorf("sbor: invalid bool byte 0x%02x", b)
	case KindI8:
		b, err := d.readByte()
		return I8(b), err
	case KindU8:
		b, err := d.readByte()
		return U8(b), err
	case KindI64:
		raw, err := d.read(8)
		if err != nil {
			return nil, err
		}
		return I64(binary.LittleEndian.Uint64(raw)), nil
	case KindU32:
		raw, err := d.read(4)
		if err != nil {
			return nil, err
		}
		return U32(binary.LittleEndian.Uint32(raw)), nil
	case KindU64:
		raw, err := d.read(8)
		if err != nil {
			return nil, err
		}
		return U64(binary.LittleEndian.Uint64(raw)), nil
	case KindString:
		raw, err := d.readSized()
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(raw) {
			return nil, errors.New("sbor: string is not valid utf-8")
		}
		return String(raw), nil
	case KindArray:
		return d.readArray()
	case KindTuple:
		fields, err := d.readFields()
		if err != nil {
			return nil, err
		}
		return Tuple{Fields: fields}, nil
	case KindEnum:
		disc, err := d.readByte()
		if err != nil {
			return nil, err
		}
		fields, err := d.readFields()
		if err != nil {
			return nil, err
		}
		return Enum{Discriminator: disc, Fields: fields}, nil
	case KindAddress:
		var a Address
		raw, err := d.read(AddressLength)
		if err != nil {
			return nil, err
		}
		copy(a[:], raw)
		return a, nil
	case KindBucket:
		raw, err := d.read(4)
		if err != nil {
			return nil, err
		}
		return Bucket(binary.LittleEndian.Uint32(raw)), nil
	case KindProof:
		raw, err := d.read(4)
		if err != nil {
			return nil, err
		}
		return Proof(binary.LittleEndian.Uint32(raw)), nil
	case KindExpression:
		b, err := d.readByte()
		if err != nil {
			return nil, err
		}
		if Expression(b) > ExpressionEntireAuthZone {
			return nil, fmt.Errorf("sbor: unknown expression %d", b)
		}
		return Expression(b), nil
	case KindBlob:
		var b Blob
		raw, err := d.read(len(b))
		if err != nil {
			return nil, err
		}
		copy(b[:], raw)
		return b, nil
	case KindDecimal:
		var dec Decimal
		raw, err := d.read(DecimalLength)
		if err != nil {
			return nil, err
		}
		copy(dec[:], raw)
		return dec, nil
	case KindNonFungibleLocalID:
		return d.readLocalID()
	}
	return nil, fmt.Errorf("sbor: unknown value kind 0x%02x at offset %d", byte(kind), d.pos-1)
}

func (d *decoder) readArray() (Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	ek, err := d.readByte()
	if err != nil {
		return nil, err
	}
	elementKind := ValueKind(ek)

	if elementKind == KindU8 {
		raw, err := d.readSized()
		if err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return Bytes(nil), nil
		}
		out := make([]byte, len(raw))
		copy(out, raw)
		return Bytes(out), nil
	}

	n, err := d.readSize()
	if err != nil {
		return nil, err
	}
	arr := Array{ElementKind: elementKind}
	if n == 0 {
		return arr, nil
	}
	arr.Elements = make([]Value, 0, min(n, len(d.buf)-d.pos))
	for i := 0; i < n; i++ {
		el, err := d.readBody(elementKind)
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, el)
	}
	return arr, nil
}

func (d *decoder) readFields() ([]Value, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	n, err := d.readSize()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	fields := make([]Value, 0, min(n, len(d.buf)-d.pos))
	for i := 0; i < n; i++ {
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		fields = append(fields, v)
	}
	return fields, nil
}

func (d *decoder) readLocalID() (Value, error) {
	t, err := d.readByte()
	if err != nil {
		return nil, err
	}
	switch LocalIDType(t) {
	case LocalIDString:
		raw, err := d.readSized()
		if err != nil {
			return nil, err
		}
		return NonFungibleLocalID{Type: LocalIDString, Str: string(raw)}, nil
	case LocalIDInteger:
		raw, err := d.read(8)
		if err != nil {
			return nil, err
		}
		return NonFungibleLocalID{Type: LocalIDInteger, Integer: binary.BigEndian.Uint64(raw)}, nil
	case LocalIDBytes:
		raw, err := d.readSized()
		if err != nil {
			return nil, err
		}
		return NonFungibleLocalID{Type: LocalIDBytes, Raw: append([]byte(nil), raw...)}, nil
	case LocalIDRUID:
		raw, err := d.read(ruidLength)
		if err != nil {
			return nil, err
		}
		return NonFungibleLocalID{Type: LocalIDRUID, Raw: append([]byte(nil), raw...)}, nil
	}
	return nil, fmt.Errorf("sbor: unknown local id type %d", t)
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrUnexpectedEOF
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) read(n int) ([]byte, error) {
	if n < 0 || len(d.buf)-d.pos < n {
		return nil, ErrUnexpectedEOF
	}
	out := d.buf[d.pos : d.pos+n]
	d.pos += n
	return out, nil
}

func (d *decoder) readSized() ([]byte, error) {
	n, err := d.readSize()
	if err != nil {
		return nil, err
	}
	return d.read(n)
}

func (d *decoder) readSize() (int, error) {
	n, read := binary.Uvarint(d.buf[d.pos:])
	if read == 0 {
		return 0, ErrUnexpectedEOF
	}
	if read < 0 || n > maxLength {
		return 0, errors.New("sbor: size overflow")
	}
	d.pos += read
	return int(n), nil
}

func (d *decoder) enter() error {
	d.depth++
	if d.maxDepth > 0 && d.depth > d.maxDepth {
		return ErrMaxDepthExceeded
	}
	return nil
}

func (d *decoder) leave() { d.depth-- }
