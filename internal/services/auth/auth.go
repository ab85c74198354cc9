package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/14kear/siteVoting/internal/domain/models"
	"github.com/14kear/siteVoting/internal/lib/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAdminDisabled      = errors.New("admin key is not configured")
)

// Identity проверяет ID token внешнего провайдера входа.
type Identity struct {
	log    *slog.Logger
	issuer jwt.Issuer
}

func NewIdentity(log *slog.Logger, issuer jwt.Issuer) *Identity {
	return &Identity{log: log, issuer: issuer}
}

// SignIn returns the verified identity behind an ID token credential.
func (i *Identity) SignIn(ctx context.Context, credential string) (models.Identity, error) {
	const op = "auth.SignIn"

	log := i.log.With(slog.String("op", op))

	if strings.TrimSpace(credential) == "" {
		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	email, err := jwt.ParseIDToken(i.issuer, credential)
	if err != nil {
		log.Info("id token rejected", sl.Err(err))
		return models.Identity{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	log.Debug("signed in", slog.String("email", email))

	return models.Identity{Email: strings.ToLower(email)}, nil
}

// Admin checks the admin key against a bcrypt hash.
type Admin struct {
	log     *slog.Logger
	keyHash []byte
}

func NewAdmin(log *slog.Logger, keyHash string) *Admin {
	return &Admin{log: log, keyHash: []byte(keyHash)}
}

func (a *Admin) Check(key string) error {
	const op = "auth.Admin.Check"

	if len(a.keyHash) == 0 {
		return fmt.Errorf("%s: %w", op, ErrAdminDisabled)
	}

	if err := bcrypt.CompareHashAndPassword(a.keyHash, []byte(key)); err != nil {
		a.log.Warn("invalid admin key", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return nil
}
