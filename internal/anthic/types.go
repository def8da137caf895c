package anthic

import (
	"context"

	"github.com/shopspring/decimal"
)

//
// ────────────────────────────────────────────────
//   Client Configuration (per-client, from AWS SM)
// ────────────────────────────────────────────────
//

// ClientConfig holds per-client Anthic credentials resolved from AWS Secrets Manager
// (or the static environment fallback).
// Secret format: {"api_key": "...", "private_key": "<hex secp256k1 key>"}
type ClientConfig struct {
	APIKey        string `mapstructure:"api_key"`
	PrivateKeyHex string `mapstructure:"private_key"`
	BaseURL       string `mapstructure:"base_url"` // optional, overrides the configured trade API URL
}

// rateLimitKey isolates rate limits per API key.
func (c *ClientConfig) rateLimitKey() string {
	if len(c.APIKey) > 8 {
		return "anthic_api:" + c.APIKey[:8]
	}
	return "anthic_api:" + c.APIKey
}

// ConfigResolver resolves per-client Anthic configuration.
type ConfigResolver interface {
	Resolve(ctx context.Context, clientID string) (*ClientConfig, error)
}

//
// ────────────────────────────────────────────────
//   ANTHIC → CANONICAL : venue reference data
// ────────────────────────────────────────────────
//

// Config is the venue configuration: fee schedule and token registry.
// GET /v1/config
type Config struct {
	// SettlementFeePerResource is the flat per-fill settlement fee, by token symbol.
	SettlementFeePerResource map[string]decimal.Decimal `json:"settlement_fee_per_resource"`
	// Tokens maps token symbols to resource addresses.
	Tokens map[string]string `json:"tokens"`
	// ParentBadge, when set, is the resource the parent intent must prove.
	ParentBadge string `json:"parent_badge,omitempty"`
}

// InstamintConfig locates the instant-mint component.
// GET /v1/instamint/config
type InstamintConfig struct {
	ComponentAddress      string `json:"component_address"`
	CustomerBadgeResource string `json:"customer_badge_resource"`
}

// Account is the filler's account record.
// GET /v1/account
type Account struct {
	Address string `json:"address"`
	// InstamintCustomerBadgeLocalID is absent for accounts not onboarded to instamint.
	InstamintCustomerBadgeLocalID *string `json:"instamint_customer_badge_local_id,omitempty"`
}

// NetworkStatus is the venue's view of the ledger.
// GET /v1/network/status
type NetworkStatus struct {
	CurEpoch uint64 `json:"cur_epoch"`
}

// ErrorResponse is the venue's error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
