package fill

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Checker-Finance/anthic-adapter/internal/anthic"
	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/manifest"
	"github.com/Checker-Finance/anthic-adapter/internal/network"
	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
)

func testAddress(t require.TestingT, hrp string, seed byte) string {
	var a sbor.Address
	for i := range a {
		a[i] = seed ^ byte(i*7)
	}
	s, err := manifest.FormatAddress(hrp+network.Stokenet.HRPSuffix, a)
	require.NoError(t, err)
	return s
}

func testInputs(t require.TestingT) Inputs {
	badge := "#42#"
	return Inputs{
		Network: network.Stokenet,
		Config: anthic.Config{
			SettlementFeePerResource: map[string]decimal.Decimal{
				"xUSDC": decimal.RequireFromString("0.10"),
				"xwBTC": decimal.RequireFromString("0.000001"),
			},
			Tokens: map[string]string{
				"xUSDC": testAddress(t, "resource_", 0x01),
				"xwBTC": testAddress(t, "resource_", 0x02),
			},
		},
		Instamint: anthic.InstamintConfig{
			ComponentAddress:      testAddress(t, "component_", 0x03),
			CustomerBadgeResource: testAddress(t, "resource_", 0x04),
		},
		Account: anthic.Account{
			Address:                       testAddress(t, "account_", 0x05),
			InstamintCustomerBadgeLocalID: &badge,
		},
		Fees: ZeroVenueFee{},
	}
}

// order whose fill sells 95.85 xUSDC and buys 0.001 xwBTC
func usdcForBTC(t *testing.T) UserOrder {
	order, err := NewUserOrder("xUSDC", "95.85", "xwBTC", "0.001")
	require.NoError(t, err)
	return order
}

func TestComposeFillManifest_WithoutFunding(t *testing.T) {
	m, err := ComposeFillManifest(testInputs(t), usdcForBTC(t), false)
	require.NoError(t, err)

	require.Len(t, m.Operations, 1)
	fill, ok := m.Operations[0].(manifest.FillOperation)
	require.True(t, ok)

	assert.Equal(t, "xUSDC", fill.Sell.Resource.Symbol)
	assert.Equal(t, "95.85", fill.Sell.Amount.String())
	assert.Equal(t, "xwBTC", fill.Buy.Resource.Symbol)
	assert.Equal(t, "0.001", fill.Buy.Amount.String())
	assert.Equal(t, "0.1", fill.SettlementFee.String())
	assert.True(t, fill.VenueFee.IsZero())
	assert.Nil(t, fill.ParentBadge)
}

func TestComposeFillManifest_WithFunding(t *testing.T) {
	m, err := ComposeFillManifest(testInputs(t), usdcForBTC(t), true)
	require.NoError(t, err)

	require.Len(t, m.Operations, 2)
	funding, ok := m.Operations[0].(manifest.FundingOperation)
	require.True(t, ok, "funding must precede the fill")
	_, ok = m.Operations[1].(manifest.FillOperation)
	require.True(t, ok)

	assert.Equal(t, "xUSDC", funding.ToMint.Resource.Symbol)
	assert.Equal(t, "95.95", funding.ToMint.Amount.String())
	assert.Equal(t, sbor.NonFungibleLocalID{Type: sbor.LocalIDInteger, Integer: 42}, funding.BadgeLocalID)
}

func TestComposeFillManifest_ParentBadge(t *testing.T) {
	in := testInputs(t)
	in.Config.ParentBadge = testAddress(t, "resource_", 0x09)

	m, err := ComposeFillManifest(in, usdcForBTC(t), false)
	require.NoError(t, err)
	fill := m.Operations[0].(manifest.FillOperation)
	require.NotNil(t, fill.ParentBadge)
	assert.Equal(t, manifest.VerifyParent, m.Instructions[0].Kind)
}

func TestComposeFillManifest_VenueFeePolicy(t *testing.T) {
	in := testInputs(t)
	in.Fees = FlatVenueFee(decimal.RequireFromString("0.25"))

	m, err := ComposeFillManifest(in, usdcForBTC(t), true)
	require.NoError(t, err)

	funding := m.Operations[0].(manifest.FundingOperation)
	fill := m.Operations[1].(manifest.FillOperation)
	assert.Equal(t, "96.2", funding.ToMint.Amount.String())
	assert.Equal(t, "0.25", fill.VenueFee.String())
}

func TestComposeFillManifest_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(in *Inputs)
		instamint bool
		want      error
	}{
		{
			name:   "no settlement fee for sold token",
			mutate: func(in *Inputs) { delete(in.Config.SettlementFeePerResource, "xUSDC") },
			want:   apperr.ErrConfiguration,
		},
		{
			name: "over-precise settlement fee",
			mutate: func(in *Inputs) {
				in.Config.SettlementFeePerResource["xUSDC"] = decimal.RequireFromString("0.0000000000000000001")
			},
			want: apperr.ErrConfiguration,
		},
		{
			name:   "negative settlement fee",
			mutate: func(in *Inputs) { in.Config.SettlementFeePerResource["xUSDC"] = decimal.NewFromInt(-1) },
			want:   apperr.ErrConfiguration,
		},
		{
			name:   "over-precise venue fee",
			mutate: func(in *Inputs) { in.Fees = FlatVenueFee(decimal.New(1, -30)) },
			want:   apperr.ErrConfiguration,
		},
		{
			name:   "unknown bought token",
			mutate: func(in *Inputs) { delete(in.Config.Tokens, "xwBTC") },
			want:   apperr.ErrConfiguration,
		},
		{
			name:      "funding without credential",
			mutate:    func(in *Inputs) { in.Account.InstamintCustomerBadgeLocalID = nil },
			instamint: true,
			want:      apperr.ErrMissingCredential,
		},
		{
			name: "funding without credential wins over bad addresses",
			mutate: func(in *Inputs) {
				in.Account.InstamintCustomerBadgeLocalID = nil
				in.Account.Address = "garbage"
			},
			instamint: true,
			want:      apperr.ErrMissingCredential,
		},
		{
			name:   "malformed account address",
			mutate: func(in *Inputs) { in.Account.Address = "account_tdx_2_1nope" },
			want:   apperr.ErrParse,
		},
		{
			name: "malformed badge id",
			mutate: func(in *Inputs) {
				bad := "42"
				in.Account.InstamintCustomerBadgeLocalID = &bad
			},
			instamint: true,
			want:      apperr.ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testInputs(t)
			tt.mutate(&in)

			m, err := ComposeFillManifest(in, usdcForBTC(t), tt.instamint)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, m.Operations)
			assert.Empty(t, m.Instructions)
		})
	}
}

func TestParseTokenAmount(t *testing.T) {
	tests := []struct {
		symbol, amount string
		wantErr        bool
	}{
		{"xUSDC", "95.85", false},
		{"xUSDC", " 1 ", false},
		{"xUSDC", "1e-3", false},
		{"xUSDC", "abc", true},
		{"xUSDC", "", true},
		{"xUSDC", "0", true},
		{"xUSDC", "-1", true},
		{"xUSDC", "0.0000000000000000001", true},
		{"xUSDC", "1e2000000", true},
		{"xUSDC", "1e-2000000", true},
		{"", "1", true},
	}
	for _, tt := range tests {
		t.Run(tt.symbol+"/"+tt.amount, func(t *testing.T) {
			start := time.Now()
			got, err := ParseTokenAmount(tt.symbol, tt.amount)
			assert.Less(t, time.Since(start), time.Second)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrParse)
				assert.NotContains(t, err.Error(), "000000")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, got.Symbol)
		})
	}
}

func drawAmount(t *rapid.T, label string) decimal.Decimal {
	units := rapid.Int64Range(1, 1_000_000_000_000).Draw(t, label+"_units")
	exp := rapid.Int32Range(-18, 0).Draw(t, label+"_exp")
	return decimal.New(units, exp)
}

func TestProperty_FillInvertsOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		in := testInputs(rt)
		fee := drawAmount(rt, "fee")
		if rapid.Bool().Draw(rt, "zero_fee") {
			fee = decimal.Zero
		}
		in.Config.SettlementFeePerResource["xUSDC"] = fee
		in.Fees = FlatVenueFee(decimal.New(rapid.Int64Range(0, 1000).Draw(rt, "venue"), -2))

		order := UserOrder{
			Buy:  TokenAmount{Symbol: "xUSDC", Amount: drawAmount(rt, "buy")},
			Sell: TokenAmount{Symbol: "xwBTC", Amount: drawAmount(rt, "sell")},
		}
		useInstamint := rapid.Bool().Draw(rt, "instamint")

		m, err := ComposeFillManifest(in, order, useInstamint)
		if err != nil {
			rt.Fatalf("compose: %v", err)
		}

		fill := m.Operations[len(m.Operations)-1].(manifest.FillOperation)
		if !fill.Buy.Amount.Equal(order.Sell.Amount) || fill.Buy.Resource.Symbol != order.Sell.Symbol {
			rt.Fatalf("bought %s, order sold %s", fill.Buy.Amount, order.Sell)
		}
		if !fill.Sell.Amount.Equal(order.Buy.Amount) || fill.Sell.Resource.Symbol != order.Buy.Symbol {
			rt.Fatalf("sold %s, order bought %s", fill.Sell.Amount, order.Buy)
		}

		if !useInstamint {
			if len(m.Operations) != 1 {
				rt.Fatalf("expected a single fill operation, got %d", len(m.Operations))
			}
			return
		}
		funding := m.Operations[0].(manifest.FundingOperation)
		want := order.Buy.Amount.Add(fill.SettlementFee).Add(fill.VenueFee)
		if !funding.ToMint.Amount.Equal(want) {
			rt.Fatalf("funded %s, want %s", funding.ToMint.Amount, want)
		}
	})
}
