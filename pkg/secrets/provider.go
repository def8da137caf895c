package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Provider when the named secret does not exist.
var ErrNotFound = errors.New("secret not found")

// Provider reads JSON-object secrets from a secrets manager.
type Provider interface {
	// GetSecret retrieves a secret by name and returns its fields.
	GetSecret(ctx context.Context, name string) (map[string]string, error)
}
