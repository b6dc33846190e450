package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom-app/stockroom/internal/shared"
)

type mockRepository struct {
	users  map[int64]*User
	nextID int64

	resetUserID  int64
	resetToken   string
	resetExpires time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]*User), nextID: 1}
}

func (m *mockRepository) FindActiveByLogin(ctx context.Context, login string) (*User, error) {
	for _, u := range m.users {
		if (u.Username == login || u.Email == login) && u.IsActive {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) FindActiveByEmail(ctx context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email && u.IsActive {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) Create(ctx context.Context, user User) (*User, error) {
	for _, existing := range m.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return nil, shared.Conflict("Username or email already in use")
		}
	}
	user.ID = m.nextID
	m.nextID++
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = &user
	return &user, nil
}

func (m *mockRepository) FindActiveByResetToken(ctx context.Context, token string) (*User, error) {
	for _, u := range m.users {
		if u.IsActive && u.ResetToken != nil && *u.ResetToken == token {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) SetResetToken(ctx context.Context, userID int64, token string, expires time.Time) error {
	u, ok := m.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpires = &expires
	m.resetUserID = userID
	m.resetToken = token
	m.resetExpires = expires
	return nil
}

func (m *mockRepository) ResetPassword(ctx context.Context, userID int64, passwordHash string) error {
	u, ok := m.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetToken = nil
	u.ResetTokenExpires = nil
	return nil
}

type mockMailer struct {
	email string
	token string
	err   error
	calls int
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, email, token string, expiresAt time.Time) error {
	m.calls++
	m.email = email
	m.token = token
	return m.err
}

func newTestService(repo Repository, mailer Mailer) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, repo, mailer)
}

func registerInput() RegisterInput {
	return RegisterInput{
		Username:        "newuser",
		Email:           "new@test.local",
		Phone:           "0812345678",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
}

func TestRegisterCreatesUserWithHashedPassword(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockMailer{})

	user, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	assert.Equal(t, shared.RoleUser, user.Role)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))
}

func TestRegisterPasswordMismatch(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockMailer{})

	input := registerInput()
	input.ConfirmPassword = "different"
	_, err := svc.Register(context.Background(), input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Empty(t, repo.users)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockMailer{})

	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	input := registerInput()
	input.Email = "other@test.local"
	_, err = svc.Register(context.Background(), input)
	assert.True(t, errors.Is(err, shared.ErrConflict))
}

func TestAuthenticate(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockMailer{})
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "newuser", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "newuser", user.Username)

	// Email works as the login value too.
	user, err = svc.Authenticate(context.Background(), "new@test.local", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "newuser", user.Username)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockMailer{})
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "newuser", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "ghost", "secret123")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestForgotPasswordIssuesToken(t *testing.T) {
	repo := newMockRepository()
	mailer := &mockMailer{}
	svc := newTestService(repo, mailer)
	user, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(context.Background(), "new@test.local"))

	assert.Equal(t, user.ID, repo.resetUserID)
	assert.Len(t, repo.resetToken, 64, "token is 32 random bytes hex encoded")
	assert.Equal(t, 1, mailer.calls)
	assert.Equal(t, repo.resetToken, mailer.token)
	assert.Equal(t, "new@test.local", mailer.email)

	remaining := time.Until(repo.resetExpires)
	assert.Greater(t, remaining, 55*time.Minute)
	assert.LessOrEqual(t, remaining, ResetTokenTTL)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	repo := newMockRepository()
	mailer := &mockMailer{}
	svc := newTestService(repo, mailer)

	err := svc.ForgotPassword(context.Background(), "ghost@test.local")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Zero(t, mailer.calls)
}

func TestResetPasswordUpdatesHashAndClearsToken(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockMailer{})
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(context.Background(), "new@test.local"))

	token := repo.resetToken
	require.NoError(t, svc.ResetPassword(context.Background(), token, "fresh-secret", "fresh-secret"))

	_, err = svc.Authenticate(context.Background(), "newuser", "fresh-secret")
	assert.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), "newuser", "secret123")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// The token is single-use.
	err = svc.ResetPassword(context.Background(), token, "another", "another")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockMailer{})
	user, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, repo.SetResetToken(context.Background(), user.ID, "stale-token", expired))

	err = svc.ResetPassword(context.Background(), "stale-token", "fresh-secret", "fresh-secret")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResetPasswordMismatch(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo, &mockMailer{})
	_, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(context.Background(), "new@test.local"))

	err = svc.ResetPassword(context.Background(), repo.resetToken, "fresh-secret", "different")
	assert.ErrorIs(t, err, shared.ErrValidation)
}
