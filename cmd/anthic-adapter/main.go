package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/Checker-Finance/anthic-adapter/internal/anthic"
	"github.com/Checker-Finance/anthic-adapter/internal/api"
	"github.com/Checker-Finance/anthic-adapter/internal/fill"
	"github.com/Checker-Finance/anthic-adapter/internal/filler"
	"github.com/Checker-Finance/anthic-adapter/internal/handler"
	"github.com/Checker-Finance/anthic-adapter/internal/intent"
	"github.com/Checker-Finance/anthic-adapter/internal/jobs"
	"github.com/Checker-Finance/anthic-adapter/internal/metrics"
	"github.com/Checker-Finance/anthic-adapter/internal/network"
	"github.com/Checker-Finance/anthic-adapter/internal/publisher"
	"github.com/Checker-Finance/anthic-adapter/internal/rate"
	internalsecrets "github.com/Checker-Finance/anthic-adapter/internal/secrets"
	"github.com/Checker-Finance/anthic-adapter/internal/store"
	"github.com/Checker-Finance/anthic-adapter/pkg/config"
	"github.com/Checker-Finance/anthic-adapter/pkg/logger"
	"github.com/Checker-Finance/anthic-adapter/pkg/secrets"
	"github.com/Checker-Finance/anthic-adapter/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [anthic-adapter]...")

	net, err := network.FromName(cfg.Network)
	if err != nil {
		logg.Fatalw("invalid network", "error", err)
	}

	// --- Credentials: AWS Secrets Manager per client, static env as fallback ---
	var awsResolver *internalsecrets.AWSResolver[anthic.ClientConfig]
	if cfg.UseAWSSecrets {
		awsProvider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to create AWS Secrets Manager provider", "error", err)
		}
		awsResolver = internalsecrets.NewAWSResolver(
			logger.L(),
			cfg.Env,
			cfg.Venue,
			awsProvider,
			secrets.NewCache[anthic.ClientConfig](cfg.CacheTTL),
		)
	}
	var static *anthic.ClientConfig
	if cfg.APIKey != "" {
		static = &anthic.ClientConfig{APIKey: cfg.APIKey, PrivateKeyHex: cfg.PrivateKeyHex}
		logg.Infow("static credentials configured", "api_key", utils.MaskSecret(cfg.APIKey))
	}
	resolver := internalsecrets.NewAnthicResolver(awsResolver, static)

	// --- Anthic trade API client ---
	rateMgr := rate.NewManager(rate.Config{
		RequestsPerSecond: cfg.APIRatePerSecond,
		Burst:             cfg.APIRateBurst,
	})
	anthicClient := anthic.NewClient(
		logger.L(),
		rateMgr,
		&http.Client{Timeout: cfg.APITimeout},
		cfg.TradeAPIURL,
		cfg.APIRetries,
		metrics.ObserveAnthicRequest,
	)

	// --- NATS (optional) ---
	var nc *nats.Conn
	var events filler.EventPublisher
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL, nats.Name(cfg.ServiceName))
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		pub, err := publisher.New(logger.L(), nc, cfg.OutboundSubject, cfg.ServiceName)
		if err != nil {
			logg.Warnw("JetStream unavailable; fill events disabled", "error", err)
		} else {
			events = pub
		}
	} else {
		logg.Warn("NATS_URL not configured; NATS handler and events disabled")
	}

	// --- Fill store (optional) ---
	var fillStore store.Store
	var recorder filler.FillRecorder
	var lookup api.FillLookup
	var pruner *jobs.FillPruner
	if cfg.RedisAddr != "" {
		hybrid, err := store.NewHybrid(cfg.RedisAddr, cfg.RedisDB, cfg.PGURL, store.PGPoolConfig{
			MaxConns:        cfg.PGMaxConns,
			MinConns:        cfg.PGMinConns,
			MaxConnLifetime: cfg.PGMaxConnLifetime,
			MaxConnIdleTime: cfg.PGMaxConnIdleTime,
		}, cfg.FillTTL, logger.L())
		if err != nil {
			logg.Fatalw("failed to init fill store", "error", err)
		}
		fillStore = hybrid
		recorder, lookup = fillStore, fillStore
		if hybrid.PG != nil {
			pruner = jobs.NewFillPruner(logger.L(), hybrid.PG, cfg.PruneInterval, cfg.FillRetention)
			go pruner.Start(ctx)
		}
	} else {
		logg.Warn("REDIS_ADDR not configured; fill lookup disabled")
	}

	// --- Fill service ---
	var fees fill.VenueFeePolicy = fill.ZeroVenueFee{}
	if !cfg.VenueFee.IsZero() {
		fees = fill.FlatVenueFee(cfg.VenueFee)
	}
	svc, err := filler.NewService(logger.L(), anthicClient, resolver, events, filler.Options{
		Network:      net,
		ExpireAfter:  cfg.ExpireAfter,
		UseInstamint: cfg.UseInstamint,
		Fees:         fees,
		Settings:     intent.PreparationSettingsV1(),
		Recorder:     recorder,
	})
	if err != nil {
		logg.Fatalw("failed to init fill service", "error", err)
	}

	var natsHandler *handler.Handler
	if nc != nil {
		natsHandler = handler.NewHandler(ctx, logger.L(), nc, svc, cfg.InboundSubject, cfg.QueueGroup, cfg.NATSRequestTimeout)
		if err := natsHandler.Start(); err != nil {
			logg.Fatalw("failed to start NATS handler", "error", err)
		}
	}

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})
	api.RegisterRoutes(app, nc, net, api.NewFillHandler(logger.L(), svc, lookup, intent.PreparationSettingsV1()))

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[anthic-adapter] running",
		"network", net.LogicalName,
		"trade_api", cfg.TradeAPIURL,
		"expire_after", cfg.ExpireAfter,
		"use_instamint", cfg.UseInstamint,
		"nats", cfg.NATSURL != "",
		"aws_secrets", cfg.UseAWSSecrets,
		"fill_store", fillStore != nil)

	<-ctx.Done()
	logg.Info("shutting down [anthic-adapter]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if natsHandler != nil {
		if err := natsHandler.Stop(); err != nil {
			logg.Warnw("nats.handler_stop_failed", "error", err)
		}
	}
	if nc != nil {
		if err := nc.Drain(); err != nil {
			logg.Warnw("nats.drain_failed", "error", err)
		}
	}
	if pruner != nil {
		pruner.Stop()
	}
	if fillStore != nil {
		if err := fillStore.Close(); err != nil {
			logg.Warnw("store.close_failed", "error", err)
		}
	}
}
