// Package services contains the application services the CLI drives:
// account operations on top of the gateway and the credential vault, and
// the catalogue operations.
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/libcat/internal/client/gateway"
	"github.com/dmitrijs2005/libcat/internal/client/models"
	"github.com/dmitrijs2005/libcat/internal/client/vault"
	"github.com/dmitrijs2005/libcat/internal/common"
)

// Authenticator is the login half of the gateway.
type Authenticator interface {
	gateway.Doer
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context)
}

// Vault is the credential vault as seen by the auth service.
type Vault interface {
	Save(ctx context.Context, username, secret string, remember bool)
	Load(ctx context.Context) (vault.Secret, bool)
	Clear(ctx context.Context)
}

// AuthService defines account operations for the CLI.
//
// Contract:
//   - Register: create a new account on the server. Does not log in.
//   - Login: authenticate, then write through to the vault (remember=false
//     clears it).
//   - Logout: end the session; the vault keeps what it remembers.
//   - Forget: clear the vault.
//   - Remembered: what the vault holds, for pre-filling the login prompt.
type AuthService interface {
	Register(ctx context.Context, username, password string) (models.User, error)
	Login(ctx context.Context, username, password string, remember bool) error
	Logout(ctx context.Context)
	Forget(ctx context.Context)
	Remembered(ctx context.Context) (vault.Secret, bool)
}

type authService struct {
	gw    Authenticator
	vault Vault
}

func NewAuthService(gw Authenticator, v Vault) AuthService {
	return &authService{gw: gw, vault: v}
}

func (a *authService) Register(ctx context.Context, username, password string) (models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return models.User{}, common.ErrEmptyInput
	}

	u, ok, err := gateway.Send[models.User](ctx, a.gw, http.MethodPost, "/users/",
		models.UserCreate{Username: username, Password: password})
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		// some deployments answer 201 with no body
		return models.User{Username: username}, nil
	}
	return u, nil
}

// Login leaves the vault untouched when authentication fails.
func (a *authService) Login(ctx context.Context, username, password string, remember bool) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return common.ErrEmptyInput
	}
	if err := a.gw.Login(ctx, username, password); err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	a.vault.Save(ctx, username, password, remember)
	return nil
}

func (a *authService) Logout(ctx context.Context) {
	a.gw.Logout(ctx)
}

func (a *authService) Forget(ctx context.Context) {
	a.vault.Clear(ctx)
}

func (a *authService) Remembered(ctx context.Context) (vault.Secret, bool) {
	return a.vault.Load(ctx)
}
