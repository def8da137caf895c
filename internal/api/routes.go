package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Checker-Finance/anthic-adapter/internal/network"
)

// RegisterRoutes mounts every endpoint. nc may be nil when NATS is disabled.
func RegisterRoutes(app *fiber.App, nc *nats.Conn, net network.Definition, fills *FillHandler) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/health", func(c *fiber.Ctx) error {
		checks := map[string]string{"nats": "ok", "store": "ok"}
		status := "ok"
		code := fiber.StatusOK

		switch {
		case nc == nil:
			checks["nats"] = "disabled"
		case !nc.IsConnected():
			checks["nats"] = "disconnected"
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		default:
			if err := nc.FlushTimeout(1 * time.Second); err != nil {
				checks["nats"] = err.Error()
				status = "degraded"
				code = fiber.StatusServiceUnavailable
			}
		}

		if fills.lookup == nil {
			checks["store"] = "disabled"
		} else if err := fills.lookup.HealthCheck(c.UserContext()); err != nil {
			checks["store"] = err.Error()
			status = "degraded"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status":  status,
			"network": net.LogicalName,
			"checks":  checks,
		})
	})

	// legacy single-endpoint path
	app.Post("/anthic-call", fills.SignFill)

	v1 := app.Group("/api/v1")
	v1.Post("/fills", fills.SignFill)
	v1.Post("/fills/decode", fills.DecodeFill)
	v1.Get("/fills/:hash", fills.GetFill)
	v1.Get("/networks", func(c *fiber.Ctx) error {
		return c.JSON(network.All())
	})
}
