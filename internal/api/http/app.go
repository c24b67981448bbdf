package httpapi

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

// Options configures the Fiber app.
type Options struct {
	AllowOrigins string
	AccessLog    bool
	Logger       *slog.Logger
}

// NewApp builds the Fiber app with middleware and all routes registered.
func NewApp(svc Dashboard, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "today-widgets",
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
		ErrorHandler:          errorHandler(opts.Logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Accept,Authorization,Content-Type",
		MaxAge:       300,
	}))

	RegisterRoutes(app, svc)
	return app
}

// errorHandler renders every error as {"error": true, "message": ...}.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError && log != nil {
			log.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
				"error", err,
			)
		}
		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	}
}
