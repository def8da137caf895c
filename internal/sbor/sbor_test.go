package sbor

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustDecimal(t *testing.T, d decimal.Decimal) Decimal {
	t.Helper()
	out, err := NewDecimal(d)
	require.NoError(t, err)
	return out
}

func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	raw, err := Encode(v)
	require.NoError(t, err)
	require.Equal(t, PayloadPrefix, raw[0])

	got, err := Decode(raw)
	require.NoError(t, err)
	return got
}

func TestEncode_KnownLayout(t *testing.T) {
	raw, err := Encode(NewTuple(U8(2), U64(1), String("ab")))
	require.NoError(t, err)

	want := []byte{
		0x4d,       // prefix
		0x21, 0x03, // tuple, 3 fields
		0x07, 0x02, // u8
		0x0a, 0x01, 0, 0, 0, 0, 0, 0, 0, // u64 little endian
		0x0c, 0x02, 'a', 'b', // string
	}
	assert.Equal(t, want, raw)
}

func TestRoundTrip_AllKinds(t *testing.T) {
	var addr Address
	addr[0] = 0xc1
	addr[29] = 0x7f

	var blob Blob
	blob[3] = 9

	v := NewTuple(
		Bool(true),
		I8(-3),
		I64(-1700000000),
		U8(7),
		U32(42),
		U64(1<<63+5),
		String("deposit_batch"),
		Bytes{0xde, 0xad},
		NewArray(KindBucket, Bucket(0), Bucket(1)),
		NewArray(KindArray, Bytes{1}, Bytes{2, 3}),
		NewEnum(1, Option(I64(99))),
		Option(nil),
		addr,
		Proof(4),
		ExpressionEntireWorktop,
		blob,
		mustDecimal(t, decimal.RequireFromString("-95.95")),
		NonFungibleLocalID{Type: LocalIDInteger, Integer: 12},
		NonFungibleLocalID{Type: LocalIDString, Str: "badge_1"},
		NewTuple(),
	)

	assert.Equal(t, v, roundTrip(t, v))
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"wrong prefix", []byte{0x5c, 0x07, 0x01}},
		{"truncated u64", []byte{0x4d, 0x0a, 0x01, 0x02}},
		{"trailing bytes", []byte{0x4d, 0x07, 0x01, 0x00}},
		{"unknown kind", []byte{0x4d, 0x99}},
		{"bad bool", []byte{0x4d, 0x01, 0x02}},
		{"invalid utf8", []byte{0x4d, 0x0c, 0x01, 0xff}},
		{"size past end", []byte{0x4d, 0x0c, 0x05, 'a'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestEncode_DepthLimit(t *testing.T) {
	var v Value = U8(1)
	for i := 0; i < 5; i++ {
		v = NewTuple(v)
	}

	_, err := EncodeWithDepth(v, 4)
	assert.ErrorIs(t, err, ErrMaxDepthExceeded)

	raw, err := EncodeWithDepth(v, 5)
	require.NoError(t, err)

	_, err = DecodeWithDepth(raw, 4)
	assert.ErrorIs(t, err, ErrMaxDepthExceeded)
}

func TestEncode_ArrayKindMismatch(t *testing.T) {
	_, err := Encode(NewArray(KindU32, U32(1), U64(2)))
	assert.Error(t, err)
}

func TestDecimal_Conversions(t *testing.T) {
	tests := []string{"0", "1", "-1", "95.85", "0.000000000000000001", "-123456789.123456789"}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			d := decimal.RequireFromString(s)
			enc, err := NewDecimal(d)
			require.NoError(t, err)
			assert.True(t, d.Equal(enc.Decimal()), "got %s", enc.Decimal())
		})
	}
}

func TestDecimal_OneIsScaled(t *testing.T) {
	enc := mustDecimal(t, decimal.NewFromInt(1))
	// 10^18 = 0x0de0b6b3a7640000, little endian
	assert.Equal(t, []byte{0x00, 0x00, 0x64, 0xa7, 0xb3, 0xb6, 0xe0, 0x0d}, enc[:8])
	for _, b := range enc[8:] {
		assert.Zero(t, b)
	}
}

func TestDecimal_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"19 fractional digits", "0.0000000000000000001"},
		{"out of range", "1e60"},
		{"just above max", "3138550867693340381917894711603833208051.177722232017256448"},
		{"huge exponent", "1e2000000"},
		{"huge negative exponent", "1e-2000000"},
		{"negative huge exponent", "-7e2000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			_, err := NewDecimal(decimal.RequireFromString(tt.in))
			require.Error(t, err)
			assert.Less(t, len(err.Error()), 100)
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}

func TestDecimal_BoundaryValues(t *testing.T) {
	tests := []string{
		"3138550867693340381917894711603833208051.177722232017256447",
		"-3138550867693340381917894711603833208051.177722232017256448",
		"0e-2000000",
		"1.500000000000000000000",
		"2e39",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			d := decimal.RequireFromString(s)
			enc, err := NewDecimal(d)
			require.NoError(t, err)
			assert.True(t, d.Equal(enc.Decimal()), "got %s", enc.Decimal())
		})
	}
}

func TestProperty_DecimalRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		units := rapid.Int64().Draw(t, "units")
		exp := rapid.Int32Range(-18, 10).Draw(t, "exp")
		d := decimal.New(units, exp)

		enc, err := NewDecimal(d)
		if err != nil {
			t.Fatalf("NewDecimal(%s): %v", d, err)
		}
		if !enc.Decimal().Equal(d) {
			t.Fatalf("round trip %s -> %s", d, enc.Decimal())
		}
	})
}

func TestParseNonFungibleLocalID(t *testing.T) {
	tests := []struct {
		in      string
		want    NonFungibleLocalID
		wantErr bool
	}{
		{in: "#1#", want: NonFungibleLocalID{Type: LocalIDInteger, Integer: 1}},
		{in: "<customer_7>", want: NonFungibleLocalID{Type: LocalIDString, Str: "customer_7"}},
		{in: "[0a0b]", want: NonFungibleLocalID{Type: LocalIDBytes, Raw: []byte{0x0a, 0x0b}}},
		{in: "{0000000000000001-0000000000000002-0000000000000003-0000000000000004}", want: NonFungibleLocalID{
			Type: LocalIDRUID,
			Raw: []byte{
				0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 2,
				0, 0, 0, 0, 0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 4,
			},
		}},
		{in: "#x#", wantErr: true},
		{in: "<bad-char>", wantErr: true},
		{in: "<>", wantErr: true},
		{in: "[zz]", wantErr: true},
		{in: "{00}", wantErr: true},
		{in: "1", wantErr: true},
		{in: "plain", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNonFungibleLocalID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
			assert.Equal(t, Value(got), roundTrip(t, got))
		})
	}
}
