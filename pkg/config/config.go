package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds the runtime configuration of the adapter.
type Config struct {
	ServiceName string // e.g. "anthic-adapter"
	Env         string // "dev", "uat", "prod"; also the secret name prefix
	Venue       string
	LogLevel    string
	Port        int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	// Anthic trade API
	Network          string // mainnet | stokenet | simulator | localnet
	TradeAPIURL      string
	APITimeout       time.Duration
	APIRetries       int
	APIRatePerSecond float64
	APIRateBurst     int

	// Fill policy
	ExpireAfter  time.Duration
	UseInstamint bool
	VenueFee     decimal.Decimal // flat venue fee per fill, zero disables

	// Static credentials, used when a request names no client.
	// Per-client credentials ({env}/{clientID}/anthic) come from AWS Secrets Manager.
	APIKey        string
	PrivateKeyHex string
	AWSRegion     string
	UseAWSSecrets bool
	CacheTTL      time.Duration

	// Fill store is optional; an empty Redis address disables fill lookup.
	RedisAddr         string
	RedisDB           int
	FillTTL           time.Duration
	PGURL             string
	PGMaxConns        int32
	PGMinConns        int32
	PGMaxConnLifetime time.Duration
	PGMaxConnIdleTime time.Duration
	FillRetention     time.Duration
	PruneInterval     time.Duration

	// NATS is optional; an empty URL disables the request/reply handler and events.
	NATSURL         string
	InboundSubject  string
	OutboundSubject string
	QueueGroup      string
	// NATSRequestTimeout bounds one fill signed on behalf of a NATS request.
	NATSRequestTimeout time.Duration
}

// Load reads configuration from the environment and a .env file if present.
func Load() (*Config, error) {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	venueFee, err := decimal.NewFromString(GetEnv("ANTHIC_VENUE_FEE", "0"))
	if err != nil {
		return nil, fmt.Errorf("ANTHIC_VENUE_FEE: %w", err)
	}

	cfg := &Config{
		ServiceName:      GetEnv("SERVICE_NAME", "anthic-adapter"),
		Env:              GetEnv("ENV", "dev"),
		Venue:            "anthic",
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		Port:             GetEnvInt("ANTHIC_PORT", 9030),
		HTTPReadTimeout:  GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		HTTPIdleTimeout:  GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:    GetEnvInt("HTTP_BODY_LIMIT", 64*1024),

		Network:          GetEnv("ANTHIC_NETWORK", "stokenet"),
		TradeAPIURL:      GetEnv("ANTHIC_TRADE_API_URL", "https://trade-api.staging.anthic.io"),
		APITimeout:       GetEnvDuration("ANTHIC_API_TIMEOUT", 10*time.Second),
		APIRetries:       GetEnvInt("ANTHIC_API_RETRIES", 1),
		APIRatePerSecond: GetEnvFloat("ANTHIC_API_RPS", 10),
		APIRateBurst:     GetEnvInt("ANTHIC_API_BURST", 20),

		ExpireAfter:  GetEnvDuration("ANTHIC_EXPIRE_AFTER", 15*time.Second),
		UseInstamint: GetEnvBool("ANTHIC_USE_INSTAMINT", true),
		VenueFee:     venueFee,

		APIKey:        GetEnv("ANTHIC_API_KEY", ""),
		PrivateKeyHex: GetEnv("PRIVATE_KEY", ""),
		AWSRegion:     GetEnv("AWS_REGION", "us-east-2"),
		UseAWSSecrets: GetEnvBool("USE_AWS_SECRETS", false),
		CacheTTL:      GetEnvDuration("CACHE_TTL", 15*time.Minute),

		RedisAddr:         GetEnv("REDIS_ADDR", ""),
		RedisDB:           GetEnvInt("REDIS_DB", 0),
		FillTTL:           GetEnvDuration("FILL_TTL", 24*time.Hour),
		PGURL:             GetEnv("PG_URL", ""),
		PGMaxConns:        int32(GetEnvInt("PG_MAX_CONNS", 10)),
		PGMinConns:        int32(GetEnvInt("PG_MIN_CONNS", 1)),
		PGMaxConnLifetime: GetEnvDuration("PG_MAX_CONN_LIFETIME", time.Hour),
		PGMaxConnIdleTime: GetEnvDuration("PG_MAX_CONN_IDLE_TIME", 30*time.Minute),
		FillRetention:     GetEnvDuration("FILL_RETENTION", 30*24*time.Hour),
		PruneInterval:     GetEnvDuration("FILL_PRUNE_INTERVAL", time.Hour),

		NATSURL:            GetEnv("NATS_URL", ""),
		InboundSubject:     GetEnv("INBOUND_SUBJECT", "cmd.anthic.fill_sign.v1"),
		OutboundSubject:    GetEnv("OUTBOUND_SUBJECT", "evt.anthic.fill_signed.v1"),
		QueueGroup:         GetEnv("QUEUE_GROUP", "anthic-adapter"),
		NATSRequestTimeout: GetEnvDuration("NATS_REQUEST_TIMEOUT", 10*time.Second),
	}

	if cfg.VenueFee.IsNegative() {
		return nil, fmt.Errorf("ANTHIC_VENUE_FEE must not be negative")
	}
	return cfg, nil
}
