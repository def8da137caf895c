// Package filler runs the fill pipeline end to end, from credential resolution
// to the signed payload and its fill_signed announcement.
package filler

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Checker-Finance/anthic-adapter/internal/anthic"
	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/fill"
	"github.com/Checker-Finance/anthic-adapter/internal/intent"
	"github.com/Checker-Finance/anthic-adapter/internal/metrics"
	"github.com/Checker-Finance/anthic-adapter/internal/network"
	"github.com/Checker-Finance/anthic-adapter/internal/signing"
	"github.com/Checker-Finance/anthic-adapter/internal/transaction"
	"github.com/Checker-Finance/anthic-adapter/pkg/model"
	"github.com/Checker-Finance/anthic-adapter/pkg/utils"
)

// VenueClient reads the venue snapshots a fill is composed from.
type VenueClient interface {
	LoadConfig(ctx context.Context, cfg *anthic.ClientConfig) (*anthic.Config, error)
	LoadInstamintConfig(ctx context.Context, cfg *anthic.ClientConfig) (*anthic.InstamintConfig, error)
	LoadAccount(ctx context.Context, cfg *anthic.ClientConfig) (*anthic.Account, error)
	NetworkStatus(ctx context.Context, cfg *anthic.ClientConfig) (*anthic.NetworkStatus, error)
}

// EventPublisher announces signed fills.
type EventPublisher interface {
	PublishFillSigned(ctx context.Context, clientID string, correlationID uuid.UUID, evt model.FillSignedEvent) error
}

// FillRecorder keeps signed fills for later lookup.
type FillRecorder interface {
	RecordFill(ctx context.Context, rec model.FillRecord) error
}

// Options is the fill policy of a Service.
type Options struct {
	Network      network.Definition
	ExpireAfter  time.Duration
	UseInstamint bool
	Fees         fill.VenueFeePolicy
	Settings     intent.PreparationSettings
	Recorder     FillRecorder // optional
}

// Request is one fill to sign.
type Request struct {
	Order         fill.UserOrder
	ClientID      string
	UseInstamint  *bool // nil uses the service default
	CorrelationID uuid.UUID
}

// Result is a signed fill.
type Result struct {
	Hex       string
	Hash      intent.Hash
	Subintent intent.Subintent
	Signer    *btcec.PublicKey
}

// Service signs fills. It holds no per-request state and is safe for concurrent use.
type Service struct {
	logger *zap.Logger
	venue  VenueClient
	creds  anthic.ConfigResolver
	events EventPublisher
	opts   Options
	now    func() time.Time
	nonce  func() (uint64, error)
}

// NewService validates opts and builds a Service. events may be nil.
func NewService(logger *zap.Logger, venue VenueClient, creds anthic.ConfigResolver, events EventPublisher, opts Options) (*Service, error) {
	if err := intent.ValidateExpiry(opts.ExpireAfter); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}
	if opts.Fees == nil {
		opts.Fees = fill.ZeroVenueFee{}
	}
	if opts.Settings.Version == 0 {
		opts.Settings = intent.PreparationSettingsV1()
	}
	return &Service{
		logger: logger,
		venue:  venue,
		creds:  creds,
		events: events,
		opts:   opts,
		now:    time.Now,
		nonce:  intent.NewNonce,
	}, nil
}

type snapshots struct {
	config    *anthic.Config
	instamint *anthic.InstamintConfig
	account   *anthic.Account
	status    *anthic.NetworkStatus
}

// SignFill runs the pipeline for req and returns the signed partial transaction.
// Any failure aborts the request; no partial result is returned.
func (s *Service) SignFill(ctx context.Context, req Request) (*Result, error) {
	useInstamint := s.opts.UseInstamint
	if req.UseInstamint != nil {
		useInstamint = *req.UseInstamint
	}
	log := s.logger.With(
		zap.String("client_id", req.ClientID),
		zap.String("correlation_id", req.CorrelationID.String()),
		zap.Stringer("buy", req.Order.Buy),
		zap.Stringer("sell", req.Order.Sell),
		zap.Bool("instamint", useInstamint))

	cfg, err := s.creds.Resolve(ctx, req.ClientID)
	if err != nil {
		log.Warn("filler.credentials_failed", zap.Error(err))
		return nil, err
	}
	key, err := signing.ParsePrivateKeyHex(cfg.PrivateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: signing key: %w", apperr.ErrConfiguration, err)
	}

	start := time.Now()
	snap, err := s.fetch(ctx, cfg, useInstamint)
	metrics.ObserveStage("fetch", start)
	if err != nil {
		log.Warn("filler.fetch_failed", zap.Error(err))
		return nil, err
	}

	start = time.Now()
	inputs := fill.Inputs{
		Network: s.opts.Network,
		Config:  *snap.config,
		Account: *snap.account,
		Fees:    s.opts.Fees,
	}
	if snap.instamint != nil {
		inputs.Instamint = *snap.instamint
	}
	m, err := fill.ComposeFillManifest(inputs, req.Order, useInstamint)
	metrics.ObserveStage("compose", start)
	if err != nil {
		log.Warn("filler.compose_failed", zap.Error(err))
		return nil, err
	}

	nonce, err := s.nonce()
	if err != nil {
		return nil, err
	}
	now := s.now()
	sub := intent.BuildFillSubintent(s.opts.Network, m, s.opts.ExpireAfter, snap.status.CurEpoch, nonce, now)

	start = time.Now()
	sig, hash, err := signing.SignSubintent(sub, key, s.opts.Settings)
	metrics.ObserveStage("sign", start)
	if err != nil {
		log.Warn("filler.sign_failed", zap.Error(err))
		return nil, err
	}

	start = time.Now()
	payload, err := transaction.Assemble(sub, sig).ToHex(s.opts.Settings)
	metrics.ObserveStage("assemble", start)
	if err != nil {
		log.Warn("filler.assemble_failed", zap.Error(err))
		return nil, err
	}

	h := sub.Core.Header
	log.Info("filler.fill_signed",
		zap.Stringer("subintent_hash", hash),
		zap.Uint64("start_epoch", h.StartEpochInclusive),
		zap.Uint64("end_epoch", h.EndEpochExclusive),
		zap.Int("instructions", len(sub.Core.Instructions)),
		zap.String("payload", utils.MaskHex(payload)))

	res := &Result{Hex: payload, Hash: hash, Subintent: sub, Signer: key.PubKey()}
	s.announce(ctx, log, req, res, useInstamint)
	return res, nil
}

// fetch reads the venue snapshots concurrently. The instamint config is only
// read when funding is requested.
func (s *Service) fetch(ctx context.Context, cfg *anthic.ClientConfig, useInstamint bool) (*snapshots, error) {
	var snap snapshots
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.config, err = s.venue.LoadConfig(gctx, cfg)
		return err
	})
	g.Go(func() (err error) {
		snap.account, err = s.venue.LoadAccount(gctx, cfg)
		return err
	})
	g.Go(func() (err error) {
		snap.status, err = s.venue.NetworkStatus(gctx, cfg)
		return err
	})
	if useInstamint {
		g.Go(func() (err error) {
			snap.instamint, err = s.venue.LoadInstamintConfig(gctx, cfg)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// announce records the fill and publishes the fill_signed event. Failures are
// logged, never returned: the signed payload is already valid.
func (s *Service) announce(ctx context.Context, log *zap.Logger, req Request, res *Result, useInstamint bool) {
	if s.events == nil && s.opts.Recorder == nil {
		return
	}
	h := res.Subintent.Core.Header
	evt := model.FillSignedEvent{
		SubintentHash:   res.Hash.String(),
		Network:         s.opts.Network.LogicalName,
		Nonce:           h.IntentDiscriminator,
		StartEpoch:      h.StartEpochInclusive,
		EndEpoch:        h.EndEpochExclusive,
		BuySymbol:       req.Order.Buy.Symbol,
		BuyAmount:       req.Order.Buy.Amount.String(),
		SellSymbol:      req.Order.Sell.Symbol,
		SellAmount:      req.Order.Sell.Amount.String(),
		Instamint:       useInstamint,
		SignerPublicKey: hex.EncodeToString(res.Signer.SerializeCompressed()),
	}
	if h.MaxProposerTimestampExclusive != nil {
		evt.ExpiresAt = time.Unix(int64(*h.MaxProposerTimestampExclusive), 0).UTC()
	}

	if s.opts.Recorder != nil {
		rec := model.FillRecord{
			FillSignedEvent: evt,
			ClientID:        req.ClientID,
			CorrelationID:   req.CorrelationID,
			SignedAt:        s.now().UTC(),
		}
		if err := s.opts.Recorder.RecordFill(ctx, rec); err != nil {
			log.Warn("filler.record_failed", zap.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.PublishFillSigned(ctx, req.ClientID, req.CorrelationID, evt); err != nil {
			log.Warn("filler.event_publish_failed", zap.Error(err))
		}
	}
}

// RequestFromCommand validates a transport request and parses its order.
func RequestFromCommand(cmd model.FillSignRequest, correlationID uuid.UUID) (Request, error) {
	order, err := fill.NewUserOrder(cmd.BuySymbol, cmd.BuyAmount, cmd.SellSymbol, cmd.SellAmount)
	if err != nil {
		return Request{}, err
	}
	if order.Buy.Symbol == order.Sell.Symbol {
		return Request{}, fmt.Errorf("%w: buy and sell token are both %s", apperr.ErrParse, order.Buy.Symbol)
	}
	if correlationID == uuid.Nil {
		correlationID = uuid.New()
	}
	return Request{
		Order:         order,
		ClientID:      cmd.ClientID,
		UseInstamint:  cmd.UseInstamint,
		CorrelationID: correlationID,
	}, nil
}
