package secrets

import (
	"context"
	"fmt"

	"github.com/Checker-Finance/anthic-adapter/internal/anthic"
	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
)

// AnthicResolver implements anthic.ConfigResolver. Requests naming a client are
// resolved through the secrets manager; requests without one use the static
// credentials from the environment.
type AnthicResolver struct {
	aws    *AWSResolver[anthic.ClientConfig]
	static *anthic.ClientConfig
}

// NewAnthicResolver wires the two sources. Either may be nil.
func NewAnthicResolver(aws *AWSResolver[anthic.ClientConfig], static *anthic.ClientConfig) *AnthicResolver {
	return &AnthicResolver{aws: aws, static: static}
}

func (r *AnthicResolver) Resolve(ctx context.Context, clientID string) (*anthic.ClientConfig, error) {
	var cfg anthic.ClientConfig
	switch {
	case clientID != "" && r.aws != nil:
		resolved, err := r.aws.Resolve(ctx, clientID)
		if err != nil {
			return nil, err
		}
		cfg = resolved
	case clientID != "":
		return nil, fmt.Errorf("%w: no secrets manager configured for client %q", apperr.ErrMissingCredential, clientID)
	case r.static != nil:
		cfg = *r.static
	default:
		return nil, fmt.Errorf("%w: no client_id and no static credentials", apperr.ErrMissingCredential)
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api_key", apperr.ErrMissingCredential)
	}
	if cfg.PrivateKeyHex == "" {
		return nil, fmt.Errorf("%w: private_key", apperr.ErrMissingCredential)
	}
	return &cfg, nil
}

// Invalidate drops a client's cached credentials.
func (r *AnthicResolver) Invalidate(clientID string) {
	if r.aws != nil && clientID != "" {
		r.aws.Bust(clientID)
	}
}
