package server

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AdminOptions controls how the diagnostics Fiber application is built.
type AdminOptions struct {
	Logger *logrus.Logger
}

const contextKeyRequestID = "_anyproxy_request_id"

// NewAdminApp builds the diagnostics Fiber application with request ID and
// panic recovery middlewares. Routes are registered by the routes package.
func NewAdminApp(opts AdminOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestIDMiddleware(opts.Logger))

	return app, nil
}

// requestIDMiddleware 生成请求 ID 并在请求结束后输出访问日志。
func requestIDMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		err := c.Next()
		logger.WithFields(logrus.Fields{
			"action":     "admin",
			"path":       c.Path(),
			"status":     c.Response().StatusCode(),
			"request_id": reqID,
		}).Debug("admin_request")
		return err
	}
}

// NotFound renders the JSON 404 used for unknown diagnostics paths, echoing
// the request ID so clients can correlate it with the admin_request log.
func NotFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "not_found",
		"request_id": RequestID(c),
	})
}

// RequestID returns the request identifier stored by the admin middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
