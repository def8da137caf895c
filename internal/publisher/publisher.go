// Package publisher emits fill events to NATS JetStream.
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/anthic-adapter/internal/metrics"
	"github.com/Checker-Finance/anthic-adapter/pkg/model"
)

const eventFillSigned = "anthic.fill_signed"

// jetStream is the part of nats.JetStreamContext the publisher needs.
type jetStream interface {
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Publisher wraps a JetStream context and publishes canonical envelopes.
type Publisher struct {
	logger  *zap.Logger
	js      jetStream
	subject string
	service string
	now     func() time.Time
}

// New creates a Publisher on nc's JetStream context.
func New(logger *zap.Logger, nc *nats.Conn, subject, service string) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	return newPublisher(logger, js, subject, service), nil
}

func newPublisher(logger *zap.Logger, js jetStream, subject, service string) *Publisher {
	return &Publisher{
		logger:  logger,
		js:      js,
		subject: subject,
		service: service,
		now:     time.Now,
	}
}

// PublishEnvelope serializes env and publishes it. An empty subject uses the
// publisher's default.
func (p *Publisher) PublishEnvelope(ctx context.Context, subject string, env *model.Envelope) error {
	if subject == "" {
		subject = p.subject
	}
	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("publisher.marshal_failed",
			zap.String("subject", subject),
			zap.String("event_type", env.EventType),
			zap.Error(err))
		metrics.IncError("publisher", "marshal_failed")
		return err
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{env.EventType},
			"correlation_id": []string{env.CorrelationID.String()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
			"client_id":      []string{env.ClientID},
		},
	}
	// dedupe redeliveries of the same envelope on the stream
	msg.Header.Set(nats.MsgIdHdr, env.ID.String())

	start := time.Now()
	_, err = p.js.PublishMsg(msg, nats.Context(ctx))
	metrics.ObserveDuration(metrics.NATSMessageLatency, start, subject)
	if err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", subject),
			zap.String("event_type", env.EventType),
			zap.String("client_id", env.ClientID),
			zap.Error(err))
		metrics.IncNATSMessage(subject, "error")
		return err
	}

	p.logger.Debug("publisher.publish_success",
		zap.String("subject", subject),
		zap.String("event_type", env.EventType))
	metrics.IncNATSMessage(subject, "ok")
	return nil
}

// PublishFillSigned emits an anthic.fill_signed event.
func (p *Publisher) PublishFillSigned(ctx context.Context, clientID string, correlationID uuid.UUID, evt model.FillSignedEvent) error {
	env, err := model.NewEnvelope(p.subject, eventFillSigned, clientID, correlationID, evt, p.now())
	if err != nil {
		metrics.IncError("publisher", "marshal_failed")
		return err
	}
	return p.PublishEnvelope(ctx, p.subject, env)
}
