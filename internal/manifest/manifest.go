// Package manifest models subintent manifests: the ordered ledger operations a fill
// performs and their lowering into V2 manifest instructions.
package manifest

import (
	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
)

// Resource is a token symbol together with its resolved resource address.
type Resource struct {
	Symbol  string
	Address sbor.Address
}

// ResourceAmount is an amount of a resolved resource.
type ResourceAmount struct {
	Resource Resource
	Amount   decimal.Decimal
}

// OperationKind names a high-level ledger operation.
type OperationKind string

const (
	OperationFunding OperationKind = "funding"
	OperationFill    OperationKind = "fill"
)

// Operation is one high-level step of a manifest.
type Operation interface {
	Kind() OperationKind
}

// FundingOperation mints ToMint into Account through the instamint component,
// authorised by the account's customer badge.
type FundingOperation struct {
	Account      sbor.Address
	Instamint    Instamint
	BadgeLocalID sbor.NonFungibleLocalID
	ToMint       ResourceAmount
}

func (FundingOperation) Kind() OperationKind { return OperationFunding }

// FillOperation gives Sell (plus fees) to the parent intent and receives Buy.
type FillOperation struct {
	Account       sbor.Address
	Sell          ResourceAmount
	Buy           ResourceAmount
	SettlementFee decimal.Decimal
	VenueFee      decimal.Decimal
	ParentBadge   *sbor.Address
}

func (FillOperation) Kind() OperationKind { return OperationFill }

// Instamint locates the funding component and the badge resource it checks.
type Instamint struct {
	Component     sbor.Address
	BadgeResource sbor.Address
}

// ChildSubintent references a child subintent by hash. Fill manifests never have any.
type ChildSubintent struct {
	Hash [32]byte
}

// SubintentManifest is the immutable result of Builder.Build.
type SubintentManifest struct {
	Operations   []Operation
	Instructions []Instruction
	Blobs        [][]byte
	Children     []ChildSubintent
}

// ForIntent decomposes the manifest into the parts an intent core carries.
func (m SubintentManifest) ForIntent() ([]Instruction, [][]byte, []ChildSubintent) {
	return m.Instructions, m.Blobs, m.Children
}
