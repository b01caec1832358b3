package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	admins store.AdminStore
	issuer *Issuer
}

func NewService(admins store.AdminStore, issuer *Issuer) *Service {
	return &Service{admins: admins, issuer: issuer}
}

type LoginResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Admin     *models.Admin `json:"admin"`
}

// Login checks the password against the stored bcrypt hash. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	admin, err := s.admins.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	if !CheckPassword(admin.PasswordHash, password) {
		slog.InfoContext(ctx, "failed login", "email", email)
		return nil, ErrInvalidCredentials
	}

	token, expires, err := s.issuer.Issue(*admin)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "admin logged in", "admin_id", admin.ID)
	return &LoginResult{Token: token, ExpiresAt: expires, Admin: admin}, nil
}
