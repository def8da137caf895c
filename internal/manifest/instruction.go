package manifest

import (
	"fmt"

	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
)

// InstructionKind is the enum discriminator of a V2 manifest instruction.
type InstructionKind uint8

const (
	TakeFromWorktop       InstructionKind = 0x00
	AssertWorktopContains InstructionKind = 0x04
	DropAuthZoneProofs    InstructionKind = 0x12
	CallMethod            InstructionKind = 0x41
	YieldToParent         InstructionKind = 0x60
	VerifyParent          InstructionKind = 0x62
)

var instructionNames = map[InstructionKind]string{
	TakeFromWorktop:       "TAKE_FROM_WORKTOP",
	AssertWorktopContains: "ASSERT_WORKTOP_CONTAINS",
	DropAuthZoneProofs:    "DROP_AUTH_ZONE_PROOFS",
	CallMethod:            "CALL_METHOD",
	YieldToParent:         "YIELD_TO_PARENT",
	VerifyParent:          "VERIFY_PARENT",
}

func (k InstructionKind) String() string {
	if n, ok := instructionNames[k]; ok {
		return n
	}
	return fmt.Sprintf("INSTRUCTION(0x%02x)", uint8(k))
}

// Instruction is a single manifest instruction: its kind and encoded fields.
type Instruction struct {
	Kind   InstructionKind
	Fields []sbor.Value
}

// Value returns the instruction as its enum value.
func (i Instruction) Value() sbor.Value {
	return sbor.NewEnum(uint8(i.Kind), i.Fields...)
}

// InstructionFromValue is the inverse of Instruction.Value.
func InstructionFromValue(v sbor.Value) (Instruction, error) {
	e, ok := v.(sbor.Enum)
	if !ok {
		return Instruction{}, fmt.Errorf("instruction must be an enum, got %s", v.Kind())
	}
	kind := InstructionKind(e.Discriminator)
	if _, known := instructionNames[kind]; !known {
		return Instruction{}, fmt.Errorf("unknown instruction %s", kind)
	}
	return Instruction{Kind: kind, Fields: e.Fields}, nil
}

func (i Instruction) String() string { return i.Kind.String() }

// global address reference used by CALL_METHOD
const addressStatic uint8 = 0

func callMethod(address sbor.Address, method string, args ...sbor.Value) Instruction {
	return Instruction{
		Kind: CallMethod,
		Fields: []sbor.Value{
			sbor.NewEnum(addressStatic, address),
			sbor.String(method),
			sbor.NewTuple(args...),
		},
	}
}

func takeFromWorktop(resource sbor.Address, amount sbor.Decimal) Instruction {
	return Instruction{Kind: TakeFromWorktop, Fields: []sbor.Value{resource, amount}}
}

func assertWorktopContains(resource sbor.Address, amount sbor.Decimal) Instruction {
	return Instruction{Kind: AssertWorktopContains, Fields: []sbor.Value{resource, amount}}
}

func yieldToParent(args ...sbor.Value) Instruction {
	return Instruction{Kind: YieldToParent, Fields: []sbor.Value{sbor.NewTuple(args...)}}
}

func dropAuthZoneProofs() Instruction {
	return Instruction{Kind: DropAuthZoneProofs}
}

// access rule discriminators
const (
	accessRuleProtected        uint8 = 2
	compositeBasicRequirement  uint8 = 0
	basicRequire               uint8 = 0
	resourceOrNonFungibleByRes uint8 = 1
)

// requireResource is the access rule "a proof of any amount of resource".
func requireResource(resource sbor.Address) sbor.Value {
	return sbor.NewEnum(accessRuleProtected,
		sbor.NewEnum(compositeBasicRequirement,
			sbor.NewEnum(basicRequire,
				sbor.NewEnum(resourceOrNonFungibleByRes, resource))))
}

func verifyParent(rule sbor.Value) Instruction {
	return Instruction{Kind: VerifyParent, Fields: []sbor.Value{rule}}
}
