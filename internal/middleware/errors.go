package middleware

import (
	"errors"

	"task-management-api/internal/apperror"
	"task-management-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HandleError is the fiber.Config ErrorHandler. It renders *apperror.Error and
// *fiber.Error as {"message": ...}; anything else becomes a 500 whose detail is
// only logged.
func HandleError(c *fiber.Ctx, err error) error {
	if appErr, ok := apperror.As(err); ok {
		body := fiber.Map{"message": appErr.Message}
		if len(appErr.Fields) > 0 {
			body["errors"] = appErr.Fields
		}
		return c.Status(appErr.Status).JSON(body)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
	}

	logger.ErrorLogger.Error("Unhandled error",
		zap.String("method", c.Method()),
		zap.String("url", c.OriginalURL()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Internal server error",
	})
}
