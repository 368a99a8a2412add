package handler

import (
	"errors"
	"net/url"

	"kasa-pos/internal/middleware"
	"kasa-pos/internal/service"
	"kasa-pos/internal/session"
	"kasa-pos/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// currentSession pulls the session set by RequireAuth. Protected routes
// always have one.
func currentSession(c *fiber.Ctx) session.Session {
	sess, _ := middleware.Session(c)
	return sess
}

// param returns a path parameter with percent-escapes decoded, so category
// names such as "İçecek" arrive intact.
func param(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrEmptyCart):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, service.ErrThresholdNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionRevoked),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrMissingToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrUserInactive):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes {"error": msg}. Internal errors are logged and hidden.
func fail(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	if status == fiber.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}

	body := fiber.Map{"error": err.Error()}
	var verr *service.ValidationError
	if errors.As(err, &verr) && len(verr.Fields) > 0 {
		body["fields"] = verr.Fields
	}
	return c.Status(status).JSON(body)
}
