// Package credential registers users and checks their passwords.
package credential

import (
	"context"
	"errors"
	"fmt"

	"task-management-api/internal/apperror"
	"task-management-api/internal/models"
	"task-management-api/internal/repository"
	"task-management-api/internal/validation"
	"task-management-api/pkg/crypto"
	"task-management-api/pkg/logger"

	"go.uber.org/zap"
)

// UserRepository is the persistence the Store needs.
// *repository.UserRepository satisfies it.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int) (*models.User, error)
	All(ctx context.Context) ([]models.User, error)
}

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Username             string `json:"username" validate:"required,max=255"`
	FirstName            string `json:"first_name" validate:"required,max=255"`
	LastName             string `json:"last_name" validate:"required,max=255"`
	Password             string `json:"password" validate:"required,min=6,maxbytes=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"eqfield=Password"`
	Role                 string `json:"role" validate:"required,oneof=user admin"`
}

type Store struct {
	users UserRepository
}

func NewStore(users UserRepository) *Store {
	return &Store{users: users}
}

var errUsernameTaken = apperror.FieldError("username", "The username has already been taken.")

// Register validates in, hashes the password and saves the new user.
// Every input problem is reported as a 422 *apperror.Error before anything is written.
func (s *Store) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.SecurityLogger.Warn("Duplicate username", zap.String("username", in.Username))
		return nil, errUsernameTaken
	}

	hashed, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hashed,
		Role:         models.Role(in.Role),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// dua request dengan username sama bisa lolos pengecekan di atas
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, errUsernameTaken
		}
		return nil, err
	}

	logger.AuditLogger.Info("User registered", zap.Int("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Authenticate returns the user whose username and password match.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !crypto.CheckPassword(user.PasswordHash, password) {
		logger.SecurityLogger.Warn("Invalid credentials", zap.String("username", username))
		return nil, apperror.Unauthenticated("Invalid credentials")
	}
	return user, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.FindByUsername(ctx, username)
}

func (s *Store) FindByID(ctx context.Context, id int) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *Store) All(ctx context.Context) ([]models.User, error) {
	return s.users.All(ctx)
}
