package sbor

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// LocalIDType selects the representation of a non-fungible local id.
type LocalIDType uint8

const (
	LocalIDString  LocalIDType = 0
	LocalIDInteger LocalIDType = 1
	LocalIDBytes   LocalIDType = 2
	LocalIDRUID    LocalIDType = 3
)

const (
	maxLocalIDLength = 64
	ruidLength       = 32
)

// NonFungibleLocalID identifies a single non-fungible within its resource.
type NonFungibleLocalID struct {
	Type    LocalIDType
	Str     string
	Integer uint64
	Raw     []byte
}

func (NonFungibleLocalID) Kind() ValueKind { return KindNonFungibleLocalID }

// ParseNonFungibleLocalID parses the canonical text forms:
// <string>, #integer#, [hex bytes] and {ruid hex with dashes}.
func ParseNonFungibleLocalID(s string) (NonFungibleLocalID, error) {
	if len(s) < 2 {
		return NonFungibleLocalID{}, fmt.Errorf("local id %q too short", s)
	}
	body := s[1 : len(s)-1]

	switch {
	case s[0] == '<' && s[len(s)-1] == '>':
		if body == "" || len(body) > maxLocalIDLength {
			return NonFungibleLocalID{}, fmt.Errorf("string local id %q must be 1..%d chars", s, maxLocalIDLength)
		}
		for _, r := range body {
			if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return NonFungibleLocalID{}, fmt.Errorf("string local id %q has invalid char %q", s, r)
			}
		}
		return NonFungibleLocalID{Type: LocalIDString, Str: body}, nil

	case s[0] == '#' && s[len(s)-1] == '#':
		n, err := strconv.ParseUint(body, 10, 64)
		if err != nil {
			return NonFungibleLocalID{}, fmt.Errorf("integer local id %q: %w", s, err)
		}
		return NonFungibleLocalID{Type: LocalIDInteger, Integer: n}, nil

	case s[0] == '[' && s[len(s)-1] == ']':
		raw, err := hex.DecodeString(body)
		if err != nil {
			return NonFungibleLocalID{}, fmt.Errorf("bytes local id %q: %w", s, err)
		}
		if len(raw) == 0 || len(raw) > maxLocalIDLength {
			return NonFungibleLocalID{}, fmt.Errorf("bytes local id %q must be 1..%d bytes", s, maxLocalIDLength)
		}
		return NonFungibleLocalID{Type: LocalIDBytes, Raw: raw}, nil

	case s[0] == '{' && s[len(s)-1] == '}':
		raw, err := hex.DecodeString(strings.ReplaceAll(body, "-", ""))
		if err != nil || len(raw) != ruidLength {
			return NonFungibleLocalID{}, fmt.Errorf("ruid local id %q must be %d hex bytes", s, ruidLength)
		}
		return NonFungibleLocalID{Type: LocalIDRUID, Raw: raw}, nil
	}

	return NonFungibleLocalID{}, fmt.Errorf("unrecognised local id %q", s)
}

// String renders the canonical text form.
func (id NonFungibleLocalID) String() string {
	switch id.Type {
	case LocalIDString:
		return "<" + id.Str + ">"
	case LocalIDInteger:
		return "#" + strconv.FormatUint(id.Integer, 10) + "#"
	case LocalIDBytes:
		return "[" + hex.EncodeToString(id.Raw) + "]"
	case LocalIDRUID:
		h := hex.EncodeToString(id.Raw)
		return "{" + h[0:16] + "-" + h[16:32] + "-" + h[32:48] + "-" + h[48:64] + "}"
	default:
		return fmt.Sprintf("?%d?", id.Type)
	}
}
