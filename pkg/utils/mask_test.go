package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"abc", "***"},
		{"12345678", "********"},
		{"1234567890", "1234**7890"},
		{"ak_live_0123456789", "ak_l**********6789"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskSecret(tt.in), tt.in)
	}
}

func TestMaskHex(t *testing.T) {
	assert.Equal(t, "4d220a01...deadbeef", MaskHex("0x4d220a0100000000000000deadbeef"))
	assert.Equal(t, "******", MaskHex("abcdef"))
}
