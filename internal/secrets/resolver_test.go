package secrets

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/anthic-adapter/internal/anthic"
	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	pkgsecrets "github.com/Checker-Finance/anthic-adapter/pkg/secrets"
)

type mockProvider struct {
	secrets map[string]map[string]string
	err     error
	calls   int
}

func (m *mockProvider) GetSecret(_ context.Context, name string) (map[string]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.secrets[name]
	if !ok {
		return nil, pkgsecrets.ErrNotFound
	}
	return s, nil
}

func newResolver(p pkgsecrets.Provider) *AWSResolver[anthic.ClientConfig] {
	return NewAWSResolver(zap.NewNop(), "Staging", "anthic", p, pkgsecrets.NewCache[anthic.ClientConfig](time.Hour))
}

func TestAWSResolver_DecodesAndCaches(t *testing.T) {
	p := &mockProvider{secrets: map[string]map[string]string{
		"staging/acme/anthic": {"api_key": "key-1", "private_key": "abcd", "base_url": "https://x"},
	}}
	r := newResolver(p)

	cfg, err := r.Resolve(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, anthic.ClientConfig{APIKey: "key-1", PrivateKeyHex: "abcd", BaseURL: "https://x"}, cfg)

	_, err = r.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls, "second resolve served from cache")

	r.Bust("acme")
	_, err = r.Resolve(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestAWSResolver_Errors(t *testing.T) {
	_, err := newResolver(&mockProvider{}).Resolve(context.Background(), "nobody")
	assert.True(t, errors.Is(err, apperr.ErrMissingCredential))

	_, err = newResolver(&mockProvider{err: errors.New("timeout")}).Resolve(context.Background(), "acme")
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
}

func TestAnthicResolver(t *testing.T) {
	p := &mockProvider{secrets: map[string]map[string]string{
		"staging/acme/anthic":     {"api_key": "key-1", "private_key": "abcd"},
		"staging/nokey/anthic":    {"api_key": "key-2"},
		"staging/noapikey/anthic": {"private_key": "abcd"},
	}}
	static := &anthic.ClientConfig{APIKey: "static", PrivateKeyHex: "ff"}

	tests := []struct {
		name     string
		resolver *AnthicResolver
		clientID string
		wantKey  string
		wantErr  error
	}{
		{"client from secrets", NewAnthicResolver(newResolver(p), static), "acme", "key-1", nil},
		{"static fallback", NewAnthicResolver(newResolver(p), static), "", "static", nil},
		{"missing private key", NewAnthicResolver(newResolver(p), nil), "nokey", "", apperr.ErrMissingCredential},
		{"missing api key", NewAnthicResolver(newResolver(p), nil), "noapikey", "", apperr.ErrMissingCredential},
		{"no sources", NewAnthicResolver(nil, nil), "", "", apperr.ErrMissingCredential},
		{"client without secrets manager", NewAnthicResolver(nil, static), "acme", "", apperr.ErrMissingCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.resolver.Resolve(context.Background(), tt.clientID)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, cfg.APIKey)
		})
	}
}
