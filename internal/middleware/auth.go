package middleware

import (
	"context"
	"strings"

	"task-management-api/internal/apperror"
	"task-management-api/internal/models"
	"task-management-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	localUser    = "user"
	localTokenID = "tokenID"
)

// TokenValidator resolves a raw bearer token to its user and token id.
type TokenValidator interface {
	Validate(ctx context.Context, raw string) (*models.User, string, error)
}

// UseToken memastikan request membawa bearer token yang valid dan
// menyimpan user pemilik token di locals.
func UseToken(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperror.Unauthenticated("Unauthenticated.")
		}
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			logger.SecurityLogger.Warn("Invalid authorization header", zap.String("ip", c.IP()))
			return apperror.Unauthenticated("Unauthenticated.")
		}
		user, tokenID, err := tokens.Validate(c.UserContext(), parts[1])
		if err != nil {
			return err
		}
		c.Locals(localUser, user)
		c.Locals(localTokenID, tokenID)
		return c.Next()
	}
}

// RequireRole menolak request dengan 403 jika role user bukan role yang diminta.
// Harus dipasang setelah UseToken.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return apperror.Unauthenticated("Unauthenticated.")
		}
		if user.Role != role {
			logger.SecurityLogger.Warn("Forbidden",
				zap.Int("user_id", user.ID),
				zap.String("role", string(user.Role)),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
			)
			return apperror.Forbidden("Forbidden")
		}
		return c.Next()
	}
}

// CurrentUser returns the caller resolved by UseToken, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

// CurrentTokenID returns the id of the token the request was authenticated with.
func CurrentTokenID(c *fiber.Ctx) string {
	id, _ := c.Locals(localTokenID).(string)
	return id
}
