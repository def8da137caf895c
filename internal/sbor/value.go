// Package sbor implements the manifest flavour of the ledger's canonical binary
// object representation: a self-describing, length-prefixed value encoding used for
// intents, signatures and the signed partial transaction payload.
//
// Every encoded payload starts with PayloadPrefix. Every value is written as its
// ValueKind byte followed by the kind's body; array elements omit the kind byte
// because the array header carries the element kind once.
package sbor

import "fmt"

// PayloadPrefix opens every manifest-SBOR payload.
const PayloadPrefix byte = 0x4d

// DefaultMaxDepth bounds nesting for encode and decode.
const DefaultMaxDepth = 24

// ValueKind identifies the body layout that follows it.
type ValueKind byte

const (
	KindBool   ValueKind = 0x01
	KindI8     ValueKind = 0x02
	KindI64    ValueKind = 0x05
	KindU8     ValueKind = 0x07
	KindU32    ValueKind = 0x09
	KindU64    ValueKind = 0x0a
	KindString ValueKind = 0x0c
	KindArray  ValueKind = 0x20
	KindTuple  ValueKind = 0x21
	KindEnum   ValueKind = 0x22

	// manifest custom kinds
	KindAddress            ValueKind = 0x80
	KindBucket             ValueKind = 0x81
	KindProof              ValueKind = 0x82
	KindExpression         ValueKind = 0x83
	KindBlob               ValueKind = 0x84
	KindDecimal            ValueKind = 0x85
	KindNonFungibleLocalID ValueKind = 0x87
)

func (k ValueKind) String() string {
	switch k {
	case KindBool:
		return "Bool"
	case KindI8:
		return "I8"
	case KindI64:
		return "I64"
	case KindU8:
		return "U8"
	case KindU32:
		return "U32"
	case KindU64:
		return "U64"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindTuple:
		return "Tuple"
	case KindEnum:
		return "Enum"
	case KindAddress:
		return "Address"
	case KindBucket:
		return "Bucket"
	case KindProof:
		return "Proof"
	case KindExpression:
		return "Expression"
	case KindBlob:
		return "Blob"
	case KindDecimal:
		return "Decimal"
	case KindNonFungibleLocalID:
		return "NonFungibleLocalId"
	default:
		return fmt.Sprintf("Kind(0x%02x)", byte(k))
	}
}

// Value is any encodable manifest value.
type Value interface {
	Kind() ValueKind
}

type (
	Bool   bool
	I8     int8
	I64    int64
	U8     uint8
	U32    uint32
	U64    uint64
	String string

	// Bytes is an Array<U8>. Decoding always yields Bytes for byte arrays.
	Bytes []byte

	// Bucket and Proof are transaction-local handles, numbered in allocation order.
	Bucket uint32
	Proof  uint32

	// Address is a 30-byte ledger node id.
	Address [AddressLength]byte

	// Blob references a blob by its hash.
	Blob [32]byte

	// Expression selects a well-known worktop/auth-zone expression.
	Expression uint8
)

// AddressLength is the byte length of a ledger node id.
const AddressLength = 30

const (
	ExpressionEntireWorktop  Expression = 0
	ExpressionEntireAuthZone Expression = 1
)

func (Bool) Kind() ValueKind       { return KindBool }
func (I8) Kind() ValueKind         { return KindI8 }
func (I64) Kind() ValueKind        { return KindI64 }
func (U8) Kind() ValueKind         { return KindU8 }
func (U32) Kind() ValueKind        { return KindU32 }
func (U64) Kind() ValueKind        { return KindU64 }
func (String) Kind() ValueKind     { return KindString }
func (Bytes) Kind() ValueKind      { return KindArray }
func (Bucket) Kind() ValueKind     { return KindBucket }
func (Proof) Kind() ValueKind      { return KindProof }
func (Address) Kind() ValueKind    { return KindAddress }
func (Blob) Kind() ValueKind       { return KindBlob }
func (Expression) Kind() ValueKind { return KindExpression }

// Array is a homogeneous sequence. Every element must have ElementKind.
type Array struct {
	ElementKind ValueKind
	Elements    []Value
}

func (Array) Kind() ValueKind { return KindArray }

// Tuple is a fixed, heterogeneous sequence of fields.
type Tuple struct {
	Fields []Value
}

func (Tuple) Kind() ValueKind { return KindTuple }

// Enum is a discriminated tuple.
type Enum struct {
	Discriminator uint8
	Fields        []Value
}

func (Enum) Kind() ValueKind { return KindEnum }

// NewTuple builds a tuple, keeping an empty field list nil so encoded and decoded
// values compare equal.
func NewTuple(fields ...Value) Tuple {
	if len(fields) == 0 {
		return Tuple{}
	}
	return Tuple{Fields: fields}
}

// NewEnum builds an enum variant, keeping an empty field list nil.
func NewEnum(discriminator uint8, fields ...Value) Enum {
	if len(fields) == 0 {
		return Enum{Discriminator: discriminator}
	}
	return Enum{Discriminator: discriminator, Fields: fields}
}

// NewArray builds an array of the given element kind, keeping an empty list nil.
func NewArray(elementKind ValueKind, elements ...Value) Array {
	if len(elements) == 0 {
		return Array{ElementKind: elementKind}
	}
	return Array{ElementKind: elementKind, Elements: elements}
}

// Option encodes v as Some(v), or None when v is nil.
func Option(v Value) Enum {
	if v == nil {
		return NewEnum(OptionNone)
	}
	return NewEnum(OptionSome, v)
}

const (
	OptionNone uint8 = 0
	OptionSome uint8 = 1
)
