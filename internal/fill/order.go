package fill

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
)

// TokenAmount is an amount of a token identified by symbol.
type TokenAmount struct {
	Symbol string
	Amount decimal.Decimal
}

func (t TokenAmount) String() string {
	return t.Amount.String() + " " + t.Symbol
}

// ParseTokenAmount parses a decimal string amount. Malformed, non-positive, or
// over-precise amounts are parse errors, never defaulted.
func ParseTokenAmount(symbol, amount string) (TokenAmount, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return TokenAmount{}, fmt.Errorf("%w: symbol is required", apperr.ErrParse)
	}

	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return TokenAmount{}, fmt.Errorf("%w: amount for %s is not a decimal", apperr.ErrParse, symbol)
	}
	if !d.IsPositive() {
		return TokenAmount{}, fmt.Errorf("%w: amount for %s must be positive", apperr.ErrParse, symbol)
	}
	if _, err := sbor.NewDecimal(d); err != nil {
		return TokenAmount{}, fmt.Errorf("%w: amount for %s: %v", apperr.ErrParse, symbol, err)
	}
	return TokenAmount{Symbol: symbol, Amount: d}, nil
}

// UserOrder is the counterparty's resting order: what they want to receive (Buy)
// and what they give up (Sell).
type UserOrder struct {
	Buy  TokenAmount
	Sell TokenAmount
}

// NewUserOrder parses the four string fields of a fill request.
func NewUserOrder(buySymbol, buyAmount, sellSymbol, sellAmount string) (UserOrder, error) {
	buy, err := ParseTokenAmount(buySymbol, buyAmount)
	if err != nil {
		return UserOrder{}, err
	}
	sell, err := ParseTokenAmount(sellSymbol, sellAmount)
	if err != nil {
		return UserOrder{}, err
	}
	return UserOrder{Buy: buy, Sell: sell}, nil
}
