// Package secrets resolves per-client venue credentials.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	pkgsecrets "github.com/Checker-Finance/anthic-adapter/pkg/secrets"
)

// AWSResolver resolves a client's config T from a secrets manager and caches it.
// Secret fields are decoded into T through its mapstructure tags.
//
// Secret naming convention: {env}/{clientID}/{venue}
type AWSResolver[T any] struct {
	logger   *zap.Logger
	env      string
	venue    string
	provider pkgsecrets.Provider
	cache    *pkgsecrets.Cache[T]
}

func NewAWSResolver[T any](
	logger *zap.Logger,
	env string,
	venue string,
	provider pkgsecrets.Provider,
	cache *pkgsecrets.Cache[T],
) *AWSResolver[T] {
	return &AWSResolver[T]{
		logger:   logger,
		env:      env,
		venue:    venue,
		provider: provider,
		cache:    cache,
	}
}

func (r *AWSResolver[T]) cacheKey(clientID string) string {
	return strings.ToLower(clientID + "|" + r.venue)
}

// SecretName is {env}/{clientID}/{venue}, lowercased.
func (r *AWSResolver[T]) SecretName(clientID string) string {
	return strings.ToLower(fmt.Sprintf("%s/%s/%s", r.env, clientID, r.venue))
}

// Resolve returns the cached config for clientID or fetches and decodes it. A
// missing secret is apperr.ErrMissingCredential; an undecodable one is
// apperr.ErrConfiguration.
func (r *AWSResolver[T]) Resolve(ctx context.Context, clientID string) (T, error) {
	var zero T
	key := r.cacheKey(clientID)
	if cfg, ok := r.cache.Get(key); ok {
		return cfg, nil
	}

	name := r.SecretName(clientID)
	raw, err := r.provider.GetSecret(ctx, name)
	if err != nil {
		r.logger.Warn("aws.secret_fetch_failed",
			zap.String("key", name),
			zap.Error(err))
		if errors.Is(err, pkgsecrets.ErrNotFound) {
			return zero, fmt.Errorf("%w: no secret for client %q", apperr.ErrMissingCredential, clientID)
		}
		return zero, fmt.Errorf("%w: resolve client config for %q: %v", apperr.ErrUpstream, clientID, err)
	}

	var cfg T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return zero, fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}
	if err := dec.Decode(raw); err != nil {
		return zero, fmt.Errorf("%w: decode secret %q: %v", apperr.ErrConfiguration, name, err)
	}

	r.cache.Put(key, cfg)
	r.logger.Info("aws.client_config_resolved",
		zap.String("client", clientID),
		zap.String("venue", r.venue))
	return cfg, nil
}

// Bust drops a client's cached config so the next Resolve refetches it.
func (r *AWSResolver[T]) Bust(clientID string) {
	r.cache.Bust(r.cacheKey(clientID))
}
