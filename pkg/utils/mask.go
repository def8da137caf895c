package utils

import "strings"

// MaskSecret keeps the first and last four characters of s. Shorter values are
// fully masked.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

// MaskHex masks a hex payload for logs, keeping its length visible.
func MaskHex(s string) string {
	s = strings.TrimPrefix(s, "0x")
	if len(s) <= 16 {
		return MaskSecret(s)
	}
	return s[:8] + "..." + s[len(s)-8:]
}
