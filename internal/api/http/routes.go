package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/today-widgets/internal/dashboard"
	"github.com/i474232898/today-widgets/internal/store"
	"github.com/i474232898/today-widgets/internal/weather"
)

const (
	requestTimeout   = 10 * time.Second
	readinessTimeout = 2 * time.Second
)

var validate = validator.New()

// Dashboard is what the routes need from the dashboard service.
type Dashboard interface {
	Payload(ctx context.Context) ([]byte, error)
	WeatherSummary(ctx context.Context) ([]weather.Summary, error)
	Widget(ctx context.Context, id string) (json.RawMessage, error)
	CheckReadiness(ctx context.Context) error
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Dashboard) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "today-widgets",
		})
	})

	app.Get("/readyz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
		defer cancel()

		if err := svc.CheckReadiness(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// The dashboard front-end loads everything from the root path.
	app.Get("/", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()

		body, err := svc.Payload(ctx)
		if err != nil {
			return toFiberError(err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Send(body)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()

		summary, err := svc.WeatherSummary(ctx)
		if err != nil {
			return toFiberError(err)
		}
		return c.JSON(summary)
	})

	v1.Get("/widgets/:id", func(c *fiber.Ctx) error {
		req := widgetRequest{ID: c.Params("id")}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid widget id")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()

		doc, err := svc.Widget(ctx, req.ID)
		if err != nil {
			return toFiberError(err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.Send(doc)
	})
}

// widgetRequest holds the path parameters of the widget endpoint.
type widgetRequest struct {
	ID string `validate:"required,max=64,printascii"`
}

// toFiberError maps service errors to HTTP statuses. When several reads
// failed, the most severe status wins: an unreachable store (503) over bad
// stored data (500) over a missing document (404).
func toFiberError(err error) error {
	switch statusFor(err) {
	case fiber.StatusNotFound:
		return fiber.NewError(fiber.StatusNotFound, "widget not found")
	case fiber.StatusInternalServerError:
		return fiber.NewError(fiber.StatusInternalServerError, "stored weather widget is invalid")
	default:
		return fiber.NewError(fiber.StatusServiceUnavailable, "widget store unavailable")
	}
}

func statusFor(err error) int {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		status := 0
		for _, e := range joined.Unwrap() {
			status = max(status, statusFor(e))
		}
		return status
	}

	switch {
	case errors.Is(err, dashboard.ErrUnknownWidget), errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, weather.ErrMalformedInput), errors.Is(err, weather.ErrUnknownTimeLabel):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusServiceUnavailable
	}
}
