// Package network holds the ledger network definitions the adapter can sign for.
package network

import (
	"fmt"
	"strings"
)

// Definition identifies a ledger network: the id baked into every intent header and
// the suffix used in bech32m address prefixes.
type Definition struct {
	ID          uint8  `json:"id"`
	LogicalName string `json:"logical_name"`
	HRPSuffix   string `json:"hrp_suffix"`
}

var (
	Mainnet   = Definition{ID: 0x01, LogicalName: "mainnet", HRPSuffix: "rdx"}
	Stokenet  = Definition{ID: 0x02, LogicalName: "stokenet", HRPSuffix: "tdx_2_"}
	Simulator = Definition{ID: 0xf2, LogicalName: "simulator", HRPSuffix: "sim"}
	Localnet  = Definition{ID: 0xf0, LogicalName: "localnet", HRPSuffix: "loc"}
)

var byName = map[string]Definition{
	Mainnet.LogicalName:   Mainnet,
	Stokenet.LogicalName:  Stokenet,
	Simulator.LogicalName: Simulator,
	Localnet.LogicalName:  Localnet,
}

// FromName resolves a logical network name (case-insensitive).
func FromName(name string) (Definition, error) {
	def, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Definition{}, fmt.Errorf("unknown network %q", name)
	}
	return def, nil
}

// All lists the supported networks ordered by id.
func All() []Definition {
	return []Definition{Mainnet, Stokenet, Localnet, Simulator}
}

// AccountHRP returns the human-readable prefix for account addresses on this network.
func (d Definition) AccountHRP() string {
	return "account_" + d.HRPSuffix
}

func (d Definition) String() string {
	return fmt.Sprintf("%s(0x%02x)", d.LogicalName, d.ID)
}
