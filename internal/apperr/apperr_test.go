package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "ok"},
		{"configuration", fmt.Errorf("%w: no fee for xUSDC", ErrConfiguration), "configuration_error"},
		{"missing credential", fmt.Errorf("%w: cannot fund without credential", ErrMissingCredential), "missing_credential"},
		{"parse", fmt.Errorf("%w: bad amount", ErrParse), "parse_error"},
		{"serialization", fmt.Errorf("%w: too many instructions", ErrSerialization), "serialization_error"},
		{"upstream double wrap", fmt.Errorf("load config: %w", fmt.Errorf("%w: 503", ErrUpstream)), "upstream_error"},
		{"unknown", errors.New("boom"), "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}
