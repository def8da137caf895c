// Package api exposes the fill pipeline over HTTP.
package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/filler"
	"github.com/Checker-Finance/anthic-adapter/internal/intent"
	"github.com/Checker-Finance/anthic-adapter/internal/metrics"
	"github.com/Checker-Finance/anthic-adapter/pkg/model"
)

const correlationHeader = "X-Correlation-ID"

// FillSigner signs fills.
type FillSigner interface {
	SignFill(ctx context.Context, req filler.Request) (*filler.Result, error)
}

// FillLookup finds previously signed fills by subintent hash. A nil record
// means the fill is unknown or has aged out.
type FillLookup interface {
	GetFill(ctx context.Context, hash string) (*model.FillRecord, error)
	HealthCheck(ctx context.Context) error
}

// FillHandler serves the fill endpoints.
type FillHandler struct {
	logger   *zap.Logger
	service  FillSigner
	lookup   FillLookup
	settings intent.PreparationSettings
}

// NewFillHandler builds the handler. lookup may be nil when no store is configured.
func NewFillHandler(logger *zap.Logger, service FillSigner, lookup FillLookup, settings intent.PreparationSettings) *FillHandler {
	return &FillHandler{
		logger:   logger,
		service:  service,
		lookup:   lookup,
		settings: settings,
	}
}

// SignFill handles POST /anthic-call and POST /api/v1/fills.
func (h *FillHandler) SignFill(c *fiber.Ctx) error {
	var body model.FillSignRequest
	if err := c.BodyParser(&body); err != nil {
		metrics.IncFill("http", apperr.Code(apperr.ErrParse))
		return c.Status(fiber.StatusBadRequest).JSON(model.FillSignResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  apperr.Code(apperr.ErrParse),
		})
	}

	correlationID, _ := uuid.Parse(c.Get(correlationHeader))
	req, err := filler.RequestFromCommand(body, correlationID)
	if err != nil {
		return h.fail(c, body, err)
	}
	c.Set(correlationHeader, req.CorrelationID.String())

	res, err := h.service.SignFill(c.UserContext(), req)
	if err != nil {
		return h.fail(c, body, err)
	}

	metrics.IncFill("http", apperr.Code(nil))
	return c.Status(fiber.StatusOK).JSON(model.FillSignResponse{Data: res.Hex})
}

func (h *FillHandler) fail(c *fiber.Ctx, body model.FillSignRequest, err error) error {
	code := apperr.Code(err)
	status := StatusFor(err)
	metrics.IncFill("http", code)

	log := h.logger.Warn
	if status >= fiber.StatusInternalServerError {
		log = h.logger.Error
	}
	log("api.sign_fill.failed",
		zap.String("client", body.ClientID),
		zap.String("code", code),
		zap.Error(err))

	return c.Status(status).JSON(model.FillSignResponse{Error: err.Error(), Code: code})
}

// DecodeRequest is the body of POST /api/v1/fills/decode.
// SignerPublicKey, when set, is the hex public key the root signature must verify against.
type DecodeRequest struct {
	Data            string `json:"data"`
	SignerPublicKey string `json:"signer_public_key,omitempty"`
}

// DecodeFill handles POST /api/v1/fills/decode.
func (h *FillHandler) DecodeFill(c *fiber.Ctx) error {
	var body DecodeRequest
	if err := c.BodyParser(&body); err != nil || strings.TrimSpace(body.Data) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(model.FillSignResponse{
			Error: "data is required",
			Code:  apperr.Code(apperr.ErrParse),
		})
	}

	summary, err := filler.Inspect(body.Data, body.SignerPublicKey, h.settings)
	if err != nil {
		return c.Status(StatusFor(err)).JSON(model.FillSignResponse{Error: err.Error(), Code: apperr.Code(err)})
	}
	return c.Status(fiber.StatusOK).JSON(summary)
}

// GetFill handles GET /api/v1/fills/:hash.
func (h *FillHandler) GetFill(c *fiber.Ctx) error {
	if h.lookup == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "fill store not configured"})
	}
	hash := strings.ToLower(c.Params("hash"))
	rec, err := h.lookup.GetFill(c.UserContext(), hash)
	if err != nil {
		h.logger.Error("api.get_fill.failed", zap.String("subintent_hash", hash), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if rec == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "fill not found"})
	}
	return c.Status(fiber.StatusOK).JSON(rec)
}
