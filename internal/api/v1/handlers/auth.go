package handlers

import (
	"task-management-api/internal/apperror"
	"task-management-api/internal/credential"
	"task-management-api/internal/middleware"
	"task-management-api/internal/models"
	"task-management-api/internal/validation"
	"task-management-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Auth handlers

// Register membuat user baru dan langsung mengembalikan token untuk user tersebut.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req credential.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := h.credentials.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	return h.respondWithToken(c, fiber.StatusCreated, user)
}

// Login menukar username dan password dengan bearer token baru.
func (h *Handler) Login(c *fiber.Ctx) error {
	type LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := validation.Struct(req); err != nil {
		return err
	}

	user, err := h.credentials.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	logger.AuditLogger.Info("Login success", zap.Int("user_id", user.ID), zap.String("role", string(user.Role)))
	return h.respondWithToken(c, fiber.StatusOK, user)
}

// Logout mencabut token yang dipakai request ini saja; token lain milik user tetap berlaku.
func (h *Handler) Logout(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if err := h.tokens.Revoke(c.UserContext(), middleware.CurrentTokenID(c)); err != nil {
		return err
	}

	logger.AuditLogger.Info("Logout", zap.Int("user_id", user.ID))
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me returns the authenticated user.
func (h *Handler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return apperror.Unauthenticated("Unauthenticated.")
	}
	return c.JSON(user)
}

func (h *Handler) respondWithToken(c *fiber.Ctx, status int, user *models.User) error {
	accessToken, err := h.tokens.Issue(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(tokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	})
}
