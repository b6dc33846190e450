package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePasswordResetEmail is the task type for delivering
	// password reset instructions.
	TaskTypePasswordResetEmail = "mail:password_reset"
)

// PasswordResetPayload describes a queued password reset email.
type PasswordResetPayload struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewPasswordResetTask constructs an Asynq task.
func NewPasswordResetTask(payload PasswordResetPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePasswordResetEmail, data), nil
}

// SMTPConfig holds outbound mail settings. An empty Host switches the
// sender to log-only delivery, which local development relies on.
type SMTPConfig struct {
	Host string
	Port int
	From string
}

// PasswordResetSender delivers queued reset emails over SMTP.
type PasswordResetSender struct {
	logger  *slog.Logger
	smtp    SMTPConfig
	baseURL string
}

// NewPasswordResetSender constructs the task handler.
func NewPasswordResetSender(logger *slog.Logger, cfg SMTPConfig, baseURL string) *PasswordResetSender {
	return &PasswordResetSender{logger: logger, smtp: cfg, baseURL: baseURL}
}

// Handle processes TaskTypePasswordResetEmail tasks.
func (s *PasswordResetSender) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PasswordResetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	resetURL := fmt.Sprintf("%s/auth/reset/%s", s.baseURL, payload.Token)

	if s.smtp.Host == "" {
		s.logger.Info("password reset link (smtp disabled)",
			slog.String("email", payload.Email),
			slog.String("url", resetURL),
			slog.Time("expires_at", payload.ExpiresAt))
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Password reset\r\n\r\n"+
		"A password reset was requested for your account.\r\n\r\n"+
		"Reset link: %s\r\n\r\nThe link expires at %s.\r\n",
		s.smtp.From, payload.Email, resetURL, payload.ExpiresAt.Format(time.RFC1123))

	addr := fmt.Sprintf("%s:%d", s.smtp.Host, s.smtp.Port)
	if err := smtp.SendMail(addr, nil, s.smtp.From, []string{payload.Email}, []byte(msg)); err != nil {
		s.logger.Error("send password reset email", slog.Any("error", err))
		return err
	}
	s.logger.Info("password reset email sent", slog.String("email", payload.Email))
	return nil
}
