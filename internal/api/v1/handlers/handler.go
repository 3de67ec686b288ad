package handlers

import (
	"context"

	"task-management-api/internal/apperror"
	"task-management-api/internal/credential"
	"task-management-api/internal/models"
	"task-management-api/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CredentialStore is implemented by *credential.Store.
type CredentialStore interface {
	Register(ctx context.Context, in credential.RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	All(ctx context.Context) ([]models.User, error)
}

// TokenIssuer is implemented by *token.Issuer.
type TokenIssuer interface {
	Issue(ctx context.Context, user *models.User) (string, error)
	Revoke(ctx context.Context, tokenID string) error
}

// TaskStore is implemented by *repository.TaskRepository.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int) (*models.Task, error)
	ListAll(ctx context.Context) ([]models.Task, error)
	ListByOwner(ctx context.Context, ownerID int) ([]models.Task, error)
	Update(ctx context.Context, id int, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id int) error
}

// Handler groups the HTTP handlers and the stores they use.
type Handler struct {
	credentials CredentialStore
	tokens      TokenIssuer
	tasks       TaskStore
}

func New(credentials CredentialStore, tokens TokenIssuer, tasks TaskStore) *Handler {
	return &Handler{credentials: credentials, tokens: tokens, tasks: tasks}
}

// parseBody membaca body JSON ke out. Body kosong dibiarkan (semua field nol).
// Body yang rusak atau tipe field yang salah dianggap data tidak valid (422).
func parseBody(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		logger.ErrorLogger.Error("Invalid request body", zap.String("url", c.OriginalURL()), zap.Error(err))
		return apperror.Validation("The given data was invalid.", nil)
	}
	return nil
}
