package manifest

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/network"
	"github.com/Checker-Finance/anthic-adapter/internal/sbor"
)

// ParseAddress decodes a bech32m ledger address and checks that it belongs to net.
func ParseAddress(net network.Definition, s string) (sbor.Address, error) {
	hrp, data, version, err := bech32.DecodeGeneric(s)
	if err != nil {
		return sbor.Address{}, fmt.Errorf("%w: address %q: %v", apperr.ErrParse, s, err)
	}
	if version != bech32.VersionM {
		return sbor.Address{}, fmt.Errorf("%w: address %q is not bech32m", apperr.ErrParse, s)
	}
	if !strings.HasSuffix(hrp, "_"+net.HRPSuffix) {
		return sbor.Address{}, fmt.Errorf("%w: address %q is not on %s", apperr.ErrParse, s, net.LogicalName)
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return sbor.Address{}, fmt.Errorf("%w: address %q: %v", apperr.ErrParse, s, err)
	}
	if len(raw) != sbor.AddressLength {
		return sbor.Address{}, fmt.Errorf("%w: address %q decodes to %d bytes", apperr.ErrParse, s, len(raw))
	}

	var addr sbor.Address
	copy(addr[:], raw)
	return addr, nil
}

// FormatAddress renders addr as bech32m under the given human-readable prefix.
func FormatAddress(hrp string, addr sbor.Address) (string, error) {
	conv, err := bech32.ConvertBits(addr[:], 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.EncodeM(hrp, conv)
}
