// Package token issues and validates bearer tokens.
//
// A token is an HS256 JWT whose jti is recorded in a Registry. Clients treat
// it as opaque. Deleting the jti from the registry revokes the token, and no
// expiry is set.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"task-management-api/internal/apperror"
	"task-management-api/internal/models"
	"task-management-api/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserLookup resolves the user a token belongs to.
type UserLookup interface {
	FindByID(ctx context.Context, id int) (*models.User, error)
}

type Issuer struct {
	secret   []byte
	registry Registry
	users    UserLookup
	now      func() time.Time
}

func NewIssuer(secret []byte, registry Registry, users UserLookup) *Issuer {
	return &Issuer{secret: secret, registry: registry, users: users, now: time.Now}
}

// Issue creates a new token for user. Earlier tokens of the user stay valid.
func (i *Issuer) Issue(ctx context.Context, user *models.User) (string, error) {
	tokenID := uuid.NewString()
	claims := jwt.RegisteredClaims{
		ID:       tokenID,
		Subject:  strconv.Itoa(user.ID),
		IssuedAt: jwt.NewNumericDate(i.now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := i.registry.Save(ctx, tokenID, user.ID); err != nil {
		return "", err
	}
	return signed, nil
}

// Validate returns the user and token id behind raw. Any problem with the
// token itself is reported as a 401 *apperror.Error.
func (i *Issuer) Validate(ctx context.Context, raw string) (*models.User, string, error) {
	if raw == "" {
		return nil, "", apperror.Unauthenticated("Unauthenticated.")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		logger.SecurityLogger.Warn("Invalid token", zap.Error(err))
		return nil, "", apperror.Unauthenticated("Unauthenticated.")
	}
	subject, err := strconv.Atoi(claims.Subject)
	if err != nil || claims.ID == "" {
		logger.SecurityLogger.Warn("Invalid token claims", zap.String("sub", claims.Subject))
		return nil, "", apperror.Unauthenticated("Unauthenticated.")
	}

	owner, err := i.registry.Lookup(ctx, claims.ID)
	if errors.Is(err, ErrUnknownToken) {
		logger.SecurityLogger.Warn("Revoked or unknown token", zap.String("token_id", claims.ID))
		return nil, "", apperror.Unauthenticated("Unauthenticated.")
	}
	if err != nil {
		return nil, "", err
	}
	if owner != subject {
		logger.SecurityLogger.Warn("Token owner mismatch", zap.String("token_id", claims.ID))
		return nil, "", apperror.Unauthenticated("Unauthenticated.")
	}

	user, err := i.users.FindByID(ctx, subject)
	if apperror.HasStatus(err, http.StatusNotFound) {
		return nil, "", apperror.Unauthenticated("Unauthenticated.")
	}
	if err != nil {
		return nil, "", err
	}
	return user, claims.ID, nil
}

// Revoke removes the token with the given id. Unknown ids are ignored.
func (i *Issuer) Revoke(ctx context.Context, tokenID string) error {
	return i.registry.Delete(ctx, tokenID)
}
