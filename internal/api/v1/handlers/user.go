package handlers

import (
	"task-management-api/internal/middleware"
	"task-management-api/internal/policy"
	"task-management-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// User handlers
// GetAllUsers is a function to get all users, accessible only by admin
func (h *Handler) GetAllUsers(c *fiber.Ctx) error {
	caller := middleware.CurrentUser(c)
	if err := policy.Authorize(caller, policy.ListUsers, nil); err != nil {
		return err
	}

	users, err := h.credentials.All(c.UserContext())
	if err != nil {
		return err
	}

	logger.AuditLogger.Info("Users fetched", zap.Int("user_id", caller.ID), zap.Int("count", len(users)))
	return c.JSON(users)
}
