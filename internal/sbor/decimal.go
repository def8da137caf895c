package sbor

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// DecimalScale is the number of fractional digits carried by the ledger decimal.
const DecimalScale = 18

// DecimalLength is the byte length of the encoded 192-bit decimal.
const DecimalLength = 24

var (
	decimalModulus = new(big.Int).Lsh(big.NewInt(1), DecimalLength*8)
	decimalMax     = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), DecimalLength*8-1), big.NewInt(1))
	decimalMin     = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), DecimalLength*8-1))
)

// Decimal is a signed 192-bit fixed-point number with 18 fractional digits,
// stored little-endian two's complement.
type Decimal [DecimalLength]byte

func (Decimal) Kind() ValueKind { return KindDecimal }

// decimalMaxIntegerDigits is the number of integer digits of the largest decimal.
const decimalMaxIntegerDigits = 40

// NewDecimal converts d to the ledger decimal. It fails when d carries more than 18
// fractional digits or falls outside the 192-bit range. The exponent is bounded
// before any rescaling, so huge exponents fail without expanding the value.
func NewDecimal(d decimal.Decimal) (Decimal, error) {
	coeff := d.Coefficient()
	if coeff.Sign() == 0 {
		return Decimal{}, nil
	}
	digits := len(coeff.Text(10))
	if coeff.Sign() < 0 {
		digits--
	}
	exp := int64(d.Exponent())
	if exp+int64(digits) > decimalMaxIntegerDigits {
		return Decimal{}, fmt.Errorf("decimal out of range")
	}
	// Trailing zeros can absorb at most digits-1 places beyond the scale.
	if exp < -int64(DecimalScale) && -exp-int64(DecimalScale) >= int64(digits) {
		return Decimal{}, fmt.Errorf("decimal has more than %d fractional digits", DecimalScale)
	}

	scaled := d.Shift(DecimalScale)
	if !scaled.Equal(scaled.Truncate(0)) {
		return Decimal{}, fmt.Errorf("decimal has more than %d fractional digits", DecimalScale)
	}

	n := scaled.BigInt()
	if n.Cmp(decimalMax) > 0 || n.Cmp(decimalMin) < 0 {
		return Decimal{}, fmt.Errorf("decimal out of range")
	}
	if n.Sign() < 0 {
		n.Add(n, decimalModulus)
	}

	var be [DecimalLength]byte
	n.FillBytes(be[:])

	var out Decimal
	for i := range be {
		out[i] = be[DecimalLength-1-i]
	}
	return out, nil
}

// Decimal returns the value as a shopspring decimal.
func (d Decimal) Decimal() decimal.Decimal {
	var be [DecimalLength]byte
	for i := range d {
		be[i] = d[DecimalLength-1-i]
	}
	n := new(big.Int).SetBytes(be[:])
	if be[0]&0x80 != 0 {
		n.Sub(n, decimalModulus)
	}
	return decimal.NewFromBigInt(n, -DecimalScale)
}

func (d Decimal) String() string {
	return d.Decimal().String()
}
