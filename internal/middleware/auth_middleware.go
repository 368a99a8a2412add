package middleware

import (
	"context"
	"errors"
	"strings"

	"kasa-pos/internal/session"
	"kasa-pos/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// Authenticator resolves a bearer token into a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (session.Session, error)
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on a websocket handshake, so ?token= is accepted as well.
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if t := c.Query("token"); t != "" {
			return t, nil
		}
		return "", jwt.ErrMissingToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("Invalid authorization format. Use: Bearer <token>")
	}
	return parts[1], nil
}

// RequireAuth validates the token and stores the Session in Locals for
// downstream handlers.
func RequireAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			if errors.Is(err, jwt.ErrMissingToken) {
				return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
			}
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}

		sess, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, jwt.ErrInvalidToken) {
				return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
			}
			return c.Status(401).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals(sessionKey, sess)

		return c.Next()
	}
}

// Session returns the session stored by RequireAuth.
func Session(c *fiber.Ctx) (session.Session, bool) {
	sess, ok := c.Locals(sessionKey).(session.Session)
	return sess, ok
}

// RequirePrivilege checks the authenticated role against a privilege code.
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, ok := Session(c)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}
		if sess.Can(requiredPrivilege) {
			return c.Next()
		}
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}
