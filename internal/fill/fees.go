package fill

import "github.com/shopspring/decimal"

// VenueFeePolicy computes the venue (maker) fee charged on a fill, in the sold token.
type VenueFeePolicy interface {
	VenueFee(sell, buy TokenAmount) decimal.Decimal
}

// ZeroVenueFee is the current venue policy: maker fees are zero.
type ZeroVenueFee struct{}

func (ZeroVenueFee) VenueFee(TokenAmount, TokenAmount) decimal.Decimal {
	return decimal.Zero
}

// FlatVenueFee charges a fixed amount per fill regardless of size.
type FlatVenueFee decimal.Decimal

func (f FlatVenueFee) VenueFee(TokenAmount, TokenAmount) decimal.Decimal {
	return decimal.Decimal(f)
}
