// Package model holds the JSON shapes exchanged over NATS.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the canonical event envelope. Everything published to NATS uses it.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	ClientID      string          `json:"client_id,omitempty"`
	Topic         string          `json:"topic"`
	EventType     string          `json:"event_type"`
	Version       string          `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload with fresh ids.
func NewEnvelope(topic, eventType, clientID string, correlationID uuid.UUID, payload any, now time.Time) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if correlationID == uuid.Nil {
		correlationID = uuid.New()
	}
	return &Envelope{
		ID:            uuid.New(),
		CorrelationID: correlationID,
		ClientID:      clientID,
		Topic:         topic,
		EventType:     eventType,
		Version:       "1.0.0",
		Timestamp:     now.UTC(),
		Payload:       data,
	}, nil
}

// FillSignedEvent announces a signed fill. It carries identifiers only; the
// signed payload itself is never published.
type FillSignedEvent struct {
	SubintentHash   string    `json:"subintent_hash"`
	Network         string    `json:"network"`
	Nonce           uint64    `json:"nonce,string"`
	StartEpoch      uint64    `json:"start_epoch"`
	EndEpoch        uint64    `json:"end_epoch"`
	ExpiresAt       time.Time `json:"expires_at"`
	BuySymbol       string    `json:"buy_symbol"`
	BuyAmount       string    `json:"buy_amount"`
	SellSymbol      string    `json:"sell_symbol"`
	SellAmount      string    `json:"sell_amount"`
	Instamint       bool      `json:"instamint"`
	SignerPublicKey string    `json:"signer_public_key"`
}

// FillSignRequest is the command body accepted over HTTP and NATS.
type FillSignRequest struct {
	BuySymbol    string `json:"buy_symbol"`
	BuyAmount    string `json:"buy_amount"`
	SellSymbol   string `json:"sell_symbol"`
	SellAmount   string `json:"sell_amount"`
	ClientID     string `json:"client_id,omitempty"`
	UseInstamint *bool  `json:"use_instamint,omitempty"`
}

// FillSignResponse carries either the hex payload or an error.
type FillSignResponse struct {
	Data  string `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// FillRecord is the stored form of a signed fill, looked up by subintent hash.
// It carries what the fill_signed event announces; the submittable payload is
// never stored.
type FillRecord struct {
	FillSignedEvent
	ClientID      string    `json:"client_id,omitempty"`
	CorrelationID uuid.UUID `json:"correlation_id"`
	SignedAt      time.Time `json:"signed_at"`
}
