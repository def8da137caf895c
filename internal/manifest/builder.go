package manifest

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
)

// Builder accumulates operations in order and lowers each into instructions.
// It is consumed once by Build; the first lowering error is reported there.
type Builder struct {
	ops          []Operation
	instructions []Instruction
	nextBucket   uint32
	err          error
	built        bool
}

// NewBuilder returns an empty subintent manifest builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// InstamintIntoAccount appends a funding step: prove the customer badge, mint, and
// deposit everything on the worktop into the account.
func (b *Builder) InstamintIntoAccount(instamint Instamint, account sbor.Address, badgeLocalID sbor.NonFungibleLocalID, toMint ResourceAmount) *Builder {
	amount := b.decimal(toMint.Amount)
	if b.err != nil {
		return b
	}

	b.ops = append(b.ops, FundingOperation{
		Account:      account,
		Instamint:    instamint,
		BadgeLocalID: badgeLocalID,
		ToMint:       toMint,
	})
	b.instructions = append(b.instructions,
		callMethod(account, "create_proof_of_non_fungibles",
			instamint.BadgeResource,
			sbor.NewArray(sbor.KindNonFungibleLocalID, badgeLocalID)),
		callMethod(instamint.Component, "mint", toMint.Resource.Address, amount),
		callMethod(account, "deposit_batch", sbor.ExpressionEntireWorktop),
		dropAuthZoneProofs(),
	)
	return b
}

// AddLimitOrder appends the fill: withdraw the sold amount plus fees, yield the sell
// and fee buckets to the parent, then assert and deposit what comes back.
func (b *Builder) AddLimitOrder(account sbor.Address, sell, buy ResourceAmount, settlementFee, venueFee decimal.Decimal, parentBadge *sbor.Address) *Builder {
	fees := settlementFee.Add(venueFee)
	withdraw := b.decimal(sell.Amount.Add(fees))
	feeAmount := b.decimal(fees)
	sellAmount := b.decimal(sell.Amount)
	buyAmount := b.decimal(buy.Amount)
	if b.err != nil {
		return b
	}

	b.ops = append(b.ops, FillOperation{
		Account:       account,
		Sell:          sell,
		Buy:           buy,
		SettlementFee: settlementFee,
		VenueFee:      venueFee,
		ParentBadge:   parentBadge,
	})

	if parentBadge != nil {
		b.instructions = append(b.instructions, verifyParent(requireResource(*parentBadge)))
	}
	b.instructions = append(b.instructions,
		callMethod(account, "withdraw", sell.Resource.Address, withdraw),
		takeFromWorktop(sell.Resource.Address, feeAmount),
	)
	feeBucket := b.newBucket()
	b.instructions = append(b.instructions, takeFromWorktop(sell.Resource.Address, sellAmount))
	sellBucket := b.newBucket()
	b.instructions = append(b.instructions,
		yieldToParent(sellBucket, feeBucket),
		assertWorktopContains(buy.Resource.Address, buyAmount),
		callMethod(account, "deposit_batch", sbor.ExpressionEntireWorktop),
		yieldToParent(),
	)
	return b
}

// Build finalises the manifest. A subintent must end by yielding to its parent.
func (b *Builder) Build() (SubintentManifest, error) {
	if b.built {
		return SubintentManifest{}, errors.New("manifest builder already consumed")
	}
	b.built = true
	if b.err != nil {
		return SubintentManifest{}, b.err
	}
	if n := len(b.instructions); n == 0 || b.instructions[n-1].Kind != YieldToParent {
		return SubintentManifest{}, fmt.Errorf("%w: subintent manifest must end with %s", apperr.ErrSerialization, YieldToParent)
	}

	return SubintentManifest{
		Operations:   b.ops,
		Instructions: b.instructions,
	}, nil
}

// newBucket returns the id the engine assigns to the bucket created by the
// instruction just appended.
func (b *Builder) newBucket() sbor.Bucket {
	id := sbor.Bucket(b.nextBucket)
	b.nextBucket++
	return id
}

func (b *Builder) decimal(d decimal.Decimal) sbor.Decimal {
	if b.err != nil {
		return sbor.Decimal{}
	}
	out, err := sbor.NewDecimal(d)
	if err != nil {
		b.err = fmt.Errorf("%w: %v", apperr.ErrParse, err)
	}
	return out
}
