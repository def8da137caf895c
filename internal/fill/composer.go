// Package fill turns a counterparty's order into the manifest that fills it.
package fill

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/anthic-adapter/internal/anthic"
	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/manifest"
	"github.com/Checker-Finance/anthic-adapter/internal/network"
	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
)

// Inputs carries the read-only venue snapshots a composition needs.
type Inputs struct {
	Network   network.Definition
	Config    anthic.Config
	Instamint anthic.InstamintConfig
	Account   anthic.Account
	Fees      VenueFeePolicy
}

// ComposeFillManifest builds the manifest filling order. Filling takes the opposite
// side: the filler sells what the order buys and buys what it sells. When
// useInstamint is set, a funding step minting sell + settlement fee + venue fee
// precedes the fill.
func ComposeFillManifest(in Inputs, order UserOrder, useInstamint bool) (manifest.SubintentManifest, error) {
	buy := order.Sell
	sell := order.Buy

	settlementFee, ok := in.Config.SettlementFeePerResource[sell.Symbol]
	if !ok {
		return manifest.SubintentManifest{}, fmt.Errorf("%w: no settlement fee for %s", apperr.ErrConfiguration, sell.Symbol)
	}

	fees := in.Fees
	if fees == nil {
		fees = ZeroVenueFee{}
	}
	venueFee := fees.VenueFee(sell, buy)
	if err := checkFee("settlement fee", sell.Symbol, settlementFee); err != nil {
		return manifest.SubintentManifest{}, err
	}
	if err := checkFee("venue fee", sell.Symbol, venueFee); err != nil {
		return manifest.SubintentManifest{}, err
	}

	var badge *sbor.NonFungibleLocalID
	if useInstamint {
		if in.Account.InstamintCustomerBadgeLocalID == nil {
			return manifest.SubintentManifest{}, fmt.Errorf("%w: cannot fund without credential", apperr.ErrMissingCredential)
		}
		id, err := sbor.ParseNonFungibleLocalID(*in.Account.InstamintCustomerBadgeLocalID)
		if err != nil {
			return manifest.SubintentManifest{}, fmt.Errorf("%w: instamint badge: %v", apperr.ErrParse, err)
		}
		badge = &id
	}

	account, err := manifest.ParseAddress(in.Network, in.Account.Address)
	if err != nil {
		return manifest.SubintentManifest{}, fmt.Errorf("account: %w", err)
	}
	sellRes, err := resolve(in, sell)
	if err != nil {
		return manifest.SubintentManifest{}, err
	}
	buyRes, err := resolve(in, buy)
	if err != nil {
		return manifest.SubintentManifest{}, err
	}

	b := manifest.NewBuilder()

	if badge != nil {
		instamint, err := resolveInstamint(in)
		if err != nil {
			return manifest.SubintentManifest{}, err
		}
		toMint := manifest.ResourceAmount{
			Resource: sellRes.Resource,
			Amount:   sell.Amount.Add(settlementFee).Add(venueFee),
		}
		b.InstamintIntoAccount(instamint, account, *badge, toMint)
	}

	var parentBadge *sbor.Address
	if in.Config.ParentBadge != "" {
		pb, err := manifest.ParseAddress(in.Network, in.Config.ParentBadge)
		if err != nil {
			return manifest.SubintentManifest{}, fmt.Errorf("parent badge: %w", err)
		}
		parentBadge = &pb
	}

	return b.AddLimitOrder(account, sellRes, buyRes, settlementFee, venueFee, parentBadge).Build()
}

// checkFee rejects venue-supplied fees the ledger decimal cannot carry. They are
// configuration defects, not malformed requests.
func checkFee(name, symbol string, fee decimal.Decimal) error {
	if fee.IsNegative() {
		return fmt.Errorf("%w: %s for %s is negative", apperr.ErrConfiguration, name, symbol)
	}
	if _, err := sbor.NewDecimal(fee); err != nil {
		return fmt.Errorf("%w: %s for %s: %v", apperr.ErrConfiguration, name, symbol, err)
	}
	return nil
}

func resolve(in Inputs, t TokenAmount) (manifest.ResourceAmount, error) {
	raw, ok := in.Config.Tokens[t.Symbol]
	if !ok {
		return manifest.ResourceAmount{}, fmt.Errorf("%w: unknown token %s", apperr.ErrConfiguration, t.Symbol)
	}
	addr, err := manifest.ParseAddress(in.Network, raw)
	if err != nil {
		return manifest.ResourceAmount{}, fmt.Errorf("token %s: %w", t.Symbol, err)
	}
	return manifest.ResourceAmount{
		Resource: manifest.Resource{Symbol: t.Symbol, Address: addr},
		Amount:   t.Amount,
	}, nil
}

func resolveInstamint(in Inputs) (manifest.Instamint, error) {
	component, err := manifest.ParseAddress(in.Network, in.Instamint.ComponentAddress)
	if err != nil {
		return manifest.Instamint{}, fmt.Errorf("instamint component: %w", err)
	}
	badgeResource, err := manifest.ParseAddress(in.Network, in.Instamint.CustomerBadgeResource)
	if err != nil {
		return manifest.Instamint{}, fmt.Errorf("instamint badge resource: %w", err)
	}
	return manifest.Instamint{Component: component, BadgeResource: badgeResource}, nil
}
