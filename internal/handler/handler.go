// Package handler serves fill signing commands received over NATS.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/filler"
	"github.com/Checker-Finance/anthic-adapter/internal/metrics"
	"github.com/Checker-Finance/anthic-adapter/pkg/model"
)

// FillSigner signs fills.
type FillSigner interface {
	SignFill(ctx context.Context, req filler.Request) (*filler.Result, error)
}

// Handler answers fill signing requests on a NATS queue subscription. Commands
// arrive either as a canonical envelope with a FillSignRequest payload or as a
// bare FillSignRequest; the reply is a FillSignResponse.
type Handler struct {
	ctx     context.Context
	logger  *zap.Logger
	nc      *nats.Conn
	service FillSigner
	subject string
	queue   string
	timeout time.Duration
	sub     *nats.Subscription
}

func NewHandler(ctx context.Context, logger *zap.Logger, nc *nats.Conn, service FillSigner, subject, queue string, timeout time.Duration) *Handler {
	return &Handler{
		ctx:     ctx,
		logger:  logger,
		nc:      nc,
		service: service,
		subject: subject,
		queue:   queue,
		timeout: timeout,
	}
}

// Start subscribes and begins serving requests.
func (h *Handler) Start() error {
	sub, err := h.nc.QueueSubscribe(h.subject, h.queue, h.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", h.subject, err)
	}
	h.sub = sub
	h.logger.Info("handler.subscribed",
		zap.String("subject", h.subject),
		zap.String("queue", h.queue))
	return nil
}

// Stop drains the subscription so in-flight requests finish.
func (h *Handler) Stop() error {
	if h.sub == nil {
		return nil
	}
	return h.sub.Drain()
}

func (h *Handler) handleMessage(msg *nats.Msg) {
	start := time.Now()
	resp := h.process(msg.Data)

	result := "ok"
	if resp.Error != "" {
		result = "error"
	}
	metrics.IncNATSMessage(h.subject, result)

	if msg.Reply == "" {
		h.logger.Warn("handler.no_reply_subject", zap.String("code", resp.Code))
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		metrics.IncError("handler", "marshal_failed")
		return
	}
	if err := msg.Respond(data); err != nil {
		h.logger.Warn("handler.respond_failed", zap.Error(err))
		metrics.IncError("handler", "respond_failed")
	}

	h.logger.Debug("handler.message_handled",
		zap.String("code", resp.Code),
		zap.Duration("latency", time.Since(start)))
}

// process turns one command payload into its reply.
func (h *Handler) process(data []byte) model.FillSignResponse {
	cmd, correlationID, err := decodeCommand(data)
	if err == nil {
		var req filler.Request
		req, err = filler.RequestFromCommand(cmd, correlationID)
		if err == nil {
			ctx, cancel := context.WithTimeout(h.ctx, h.timeout)
			defer cancel()

			var res *filler.Result
			res, err = h.service.SignFill(ctx, req)
			if err == nil {
				metrics.IncFill("nats", apperr.Code(nil))
				return model.FillSignResponse{Data: res.Hex}
			}
		}
	}

	code := apperr.Code(err)
	metrics.IncFill("nats", code)
	h.logger.Warn("handler.sign_fill.failed",
		zap.String("client", cmd.ClientID),
		zap.String("code", code),
		zap.Error(err))
	return model.FillSignResponse{Error: err.Error(), Code: code}
}

func decodeCommand(data []byte) (model.FillSignRequest, uuid.UUID, error) {
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.FillSignRequest{}, uuid.Nil, fmt.Errorf("%w: invalid command: %v", apperr.ErrParse, err)
	}

	var cmd model.FillSignRequest
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return model.FillSignRequest{}, uuid.Nil, fmt.Errorf("%w: invalid payload: %v", apperr.ErrParse, err)
		}
		if cmd.ClientID == "" {
			cmd.ClientID = env.ClientID
		}
		return cmd, env.CorrelationID, nil
	}

	if err := json.Unmarshal(data, &cmd); err != nil {
		return model.FillSignRequest{}, uuid.Nil, fmt.Errorf("%w: invalid command: %v", apperr.ErrParse, err)
	}
	return cmd, uuid.Nil, nil
}
