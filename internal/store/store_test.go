package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/anthic-adapter/pkg/model"
)

func newTestStore(t *testing.T, ttl time.Duration) (*HybridStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &HybridStore{redis: rdb, ttl: ttl, logger: zap.NewNop()}, mr
}

func testRecord() model.FillRecord {
	return model.FillRecord{
		FillSignedEvent: model.FillSignedEvent{
			SubintentHash: "ab12",
			Network:       "stokenet",
			Nonce:         18446744073709551615,
			StartEpoch:    7000,
			EndEpoch:      7002,
			ExpiresAt:     time.Date(2026, 10, 16, 12, 0, 15, 0, time.UTC),
			BuySymbol:     "xwBTC",
			BuyAmount:     "0.001",
			SellSymbol:    "xUSDC",
			SellAmount:    "95.85",
			Instamint:     true,
		},
		ClientID:      "client-1",
		CorrelationID: uuid.New(),
		SignedAt:      time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordAndGetFill(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, time.Minute)
	defer mr.Close()

	rec := testRecord()
	require.NoError(t, store.RecordFill(ctx, rec))

	got, err := store.GetFill(ctx, rec.SubintentHash)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Nonce, got.Nonce)
	assert.Equal(t, rec.CorrelationID, got.CorrelationID)
	assert.Equal(t, rec.SignerPublicKey, got.SignerPublicKey)
	assert.True(t, rec.ExpiresAt.Equal(got.ExpiresAt))
	assert.True(t, mr.Exists(fillKey(rec.SubintentHash)))
}

func TestGetFill_UnknownHash(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	defer mr.Close()

	got, err := store.GetFill(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecordFill_ExpiresFromRedis(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, 30*time.Second)
	defer mr.Close()

	rec := testRecord()
	require.NoError(t, store.RecordFill(ctx, rec))
	mr.FastForward(31 * time.Second)

	got, err := store.GetFill(ctx, rec.SubintentHash)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetFill_RedisDown(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	mr.Close()

	_, err := store.GetFill(context.Background(), "ab12")
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	require.NoError(t, store.HealthCheck(context.Background()))

	mr.Close()
	err := store.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")

	err = (&HybridStore{}).HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis not initialized")
}

func TestClose(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	defer mr.Close()

	require.NoError(t, store.Close())
	require.NoError(t, (&HybridStore{}).Close())
}

func TestNewHybrid_RedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = NewHybrid(addr, 0, "", PGPoolConfig{}, time.Minute, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestNewHybrid_InvalidPostgresURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	_, err = NewHybrid(mr.Addr(), 0, "postgres://%zz", PGPoolConfig{}, time.Minute, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pg config")
}

func TestRecordFill_StoresNoPayload(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, time.Minute)
	defer mr.Close()

	var s Store = store
	rec := testRecord()
	require.NoError(t, s.RecordFill(ctx, rec))

	raw, err := mr.Get(fillKey(rec.SubintentHash))
	require.NoError(t, err)
	assert.NotContains(t, raw, "payload")
	assert.Contains(t, raw, rec.SubintentHash)
}
