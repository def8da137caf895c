// Package store keeps signed fills for lookup: Redis holds them for a fixed
// TTL, Postgres (optional) archives them.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Checker-Finance/anthic-adapter/pkg/model"
)

// Store defines the contract for recording and looking up signed fills.
type Store interface {
	RecordFill(ctx context.Context, rec model.FillRecord) error
	GetFill(ctx context.Context, hash string) (*model.FillRecord, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

var _ Store = (*HybridStore)(nil)

type HybridStore struct {
	redis  *redis.Client
	PG     *pgxpool.Pool
	ttl    time.Duration
	logger *zap.Logger
}

type PGPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// NewHybrid connects the fill store. ttl bounds how long a fill stays in Redis;
// pgURL may be empty, in which case fills are only cached.
func NewHybrid(redisAddr string, redisDB int, pgURL string, pool PGPoolConfig, ttl time.Duration, logger *zap.Logger) (*HybridStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr, DB: redisDB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	s := &HybridStore{redis: rdb, ttl: ttl, logger: logger}
	if pgURL == "" {
		return s, nil
	}

	cfg, err := pgxpool.ParseConfig(pgURL)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("invalid pg config: %w", err)
	}
	pool.apply(cfg)
	if s.PG, err = pgxpool.NewWithConfig(ctx, cfg); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return s, nil
}

// apply overrides the pgxpool defaults with every non-zero field.
func (c PGPoolConfig) apply(cfg *pgxpool.Config) {
	if c.MaxConns > 0 {
		cfg.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		cfg.MinConns = c.MinConns
	}
	if c.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = c.MaxConnIdleTime
	}
	if c.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = c.HealthCheckPeriod
	}
}

func fillKey(hash string) string {
	return "anthic:fill:" + hash
}

// RecordFill caches rec under its subintent hash and archives it when Postgres
// is configured. A fill is immutable, so re-recording the same hash is a no-op
// in Postgres.
func (s *HybridStore) RecordFill(ctx context.Context, rec model.FillRecord) error {
	if err := s.cache(ctx, rec); err != nil {
		return fmt.Errorf("redis set fill: %w", err)
	}
	if s.PG == nil {
		return nil
	}
	_, err := s.PG.Exec(ctx, `
		INSERT INTO activity.anthic_fill (
			subintent_hash, client_id, correlation_id, network, nonce,
			start_epoch, end_epoch, expires_at,
			buy_symbol, buy_amount, sell_symbol, sell_amount,
			instamint, signer_public_key, signed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (subintent_hash) DO NOTHING;
	`, rec.SubintentHash, rec.ClientID, rec.CorrelationID.String(), rec.Network, fmt.Sprint(rec.Nonce),
		int64(rec.StartEpoch), int64(rec.EndEpoch), rec.ExpiresAt,
		rec.BuySymbol, rec.BuyAmount, rec.SellSymbol, rec.SellAmount,
		rec.Instamint, rec.SignerPublicKey, rec.SignedAt)
	if err != nil {
		s.logger.Error("store.pg.insert_fill_failed", zap.String("subintent_hash", rec.SubintentHash), zap.Error(err))
	}
	return err
}

// GetFill returns the fill with the given subintent hash, or nil when neither
// Redis nor Postgres knows it.
func (s *HybridStore) GetFill(ctx context.Context, hash string) (*model.FillRecord, error) {
	rec, err := s.cached(ctx, hash)
	switch {
	case err == nil:
		return rec, nil
	case !errors.Is(err, redis.Nil):
		return nil, err
	case s.PG == nil:
		return nil, nil
	}

	rec = &model.FillRecord{}
	var (
		correlationID, nonce string
		startEpoch, endEpoch int64
	)
	row := s.PG.QueryRow(ctx, `
		SELECT subintent_hash, client_id, correlation_id, network, nonce,
			start_epoch, end_epoch, expires_at,
			buy_symbol, buy_amount, sell_symbol, sell_amount,
			instamint, signer_public_key, signed_at
		FROM activity.anthic_fill
		WHERE subintent_hash = $1
		LIMIT 1;
	`, hash)
	if err := row.Scan(&rec.SubintentHash, &rec.ClientID, &correlationID, &rec.Network, &nonce,
		&startEpoch, &endEpoch, &rec.ExpiresAt,
		&rec.BuySymbol, &rec.BuyAmount, &rec.SellSymbol, &rec.SellAmount,
		&rec.Instamint, &rec.SignerPublicKey, &rec.SignedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("GetFill scan failed: %w", err)
	}
	rec.StartEpoch = uint64(startEpoch)
	rec.EndEpoch = uint64(endEpoch)
	if _, err := fmt.Sscan(nonce, &rec.Nonce); err != nil {
		return nil, fmt.Errorf("GetFill nonce %q: %w", nonce, err)
	}
	if err := rec.CorrelationID.UnmarshalText([]byte(correlationID)); err != nil {
		return nil, fmt.Errorf("GetFill correlation id %q: %w", correlationID, err)
	}
	return rec, nil
}

func (s *HybridStore) cache(ctx context.Context, rec model.FillRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, fillKey(rec.SubintentHash), data, s.ttl).Err()
}

func (s *HybridStore) cached(ctx context.Context, hash string) (*model.FillRecord, error) {
	data, err := s.redis.Get(ctx, fillKey(hash)).Bytes()
	if err != nil {
		return nil, err
	}
	var rec model.FillRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode cached fill %s: %w", hash, err)
	}
	return &rec, nil
}

// HealthCheck pings Redis and, when configured, Postgres.
func (s *HybridStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if s.PG == nil {
		return nil
	}
	if err := s.PG.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

// Close releases both connections.
func (s *HybridStore) Close() error {
	if s.PG != nil {
		s.PG.Close()
	}
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}
