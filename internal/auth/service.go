package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// ResetTokenTTL is how long a password reset token stays valid.
const ResetTokenTTL = time.Hour

// Mailer delivers password reset instructions out of band.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error
}

// Service wraps authentication business rules.
type Service struct {
	logger *slog.Logger
	repo   Repository
	mailer Mailer
}

// NewService constructs a new Service.
func NewService(logger *slog.Logger, repo Repository, mailer Mailer) *Service {
	return &Service{logger: logger, repo: repo, mailer: mailer}
}

// RegisterInput carries the fields collected by the registration form.
type RegisterInput struct {
	Username        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// Register creates a new account with the default user role.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	if input.Password != input.ConfirmPassword {
		return nil, shared.NewValidationError(map[string]string{
			"confirm_password": "Passwords do not match",
		})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, User{
		Username:     input.Username,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hash),
		Role:         shared.RoleUser,
	})
}

// Authenticate validates login/password credentials. The login value may
// be either a username or an email address.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*User, error) {
	user, err := s.repo.FindActiveByLogin(ctx, login)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// ForgotPassword issues a one hour reset token and hands it to the mailer.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindActiveByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := generateResetToken()
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token, expiresAt); err != nil {
		s.logger.Error("send password reset", slog.Any("error", err))
		return err
	}
	return nil
}

// ResetPassword completes the forgot-password flow. The token must
// belong to an active user and still be inside its validity window.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	if password != confirmPassword {
		return shared.NewValidationError(map[string]string{
			"confirm_password": "Passwords do not match",
		})
	}
	user, err := s.repo.FindActiveByResetToken(ctx, token)
	if err != nil {
		return shared.NotFound("Password reset link is invalid or has expired")
	}
	if user.ResetTokenExpires == nil || time.Now().After(*user.ResetTokenExpires) {
		return shared.NotFound("Password reset link is invalid or has expired")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.ResetPassword(ctx, user.ID, string(hash))
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
