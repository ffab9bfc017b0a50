// Package email provides outbound email delivery for account verification
// and password reset flows. Delivery goes through the Resend API; when no
// API key is configured the sender degrades to logging, which keeps local
// development working without a mail provider.
package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/config"
)

// EmailSender abstracts outbound email delivery. Services depend on this
// interface rather than the concrete Resend client.
type EmailSender interface {
	// SendVerification sends an email verification link to a new user.
	// The token is the plaintext verification token; only its hash is stored.
	SendVerification(ctx context.Context, toEmail, toName, token string) error

	// SendPasswordReset sends a password reset link.
	// The token is the plaintext reset token; only its hash is stored.
	SendPasswordReset(ctx context.Context, toEmail, toName, token string) error
}

// resendSender delivers email through the Resend API.
type resendSender struct {
	client    *resend.Client
	fromEmail string
	appURL    string
}

// NewSender creates an EmailSender from the email settings. If no Resend
// API key is configured, a logging sender is returned instead so the
// verification and reset flows still complete.
func NewSender(cfg *config.EmailSettings) EmailSender {
	if cfg.ResendAPIKey == "" {
		log.Warn().Msg("No Resend API key configured, emails will be logged instead of sent")
		return &logSender{appURL: cfg.AppURL}
	}
	return &resendSender{
		client:    resend.NewClient(cfg.ResendAPIKey),
		fromEmail: cfg.FromEmail,
		appURL:    cfg.AppURL,
	}
}

// SendVerification sends an email verification link to a new user.
func (s *resendSender) SendVerification(ctx context.Context, toEmail, toName, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", s.appURL, token)

	html := fmt.Sprintf(`<p>Hi %s,</p>
<p>Thanks for signing up. Please confirm your email address by clicking the link below:</p>
<p><a href="%s">Verify your email</a></p>
<p>This link expires in 24 hours. If you didn't create an account, you can safely ignore this email.</p>
<p>If the link doesn't work, copy and paste this URL into your browser:<br>%s</p>`,
		toName, link, link)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("AuthGate <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: "Verify your email address",
		Html:    html,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		log.Error().Err(err).Str("email", toEmail).Msg("Failed to send verification email")
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	log.Info().Str("email", toEmail).Msg("Verification email sent")
	return nil
}

// SendPasswordReset sends a password reset link.
func (s *resendSender) SendPasswordReset(ctx context.Context, toEmail, toName, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)

	html := fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password. Click the link below to choose a new one:</p>
<p><a href="%s">Reset your password</a></p>
<p>This link expires in 1 hour. If you didn't request a password reset, you can safely ignore this email.</p>
<p>If the link doesn't work, copy and paste this URL into your browser:<br>%s</p>`,
		toName, link, link)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("AuthGate <%s>", s.fromEmail),
		To:      []string{toEmail},
		Subject: "Reset your password",
		Html:    html,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		log.Error().Err(err).Str("email", toEmail).Msg("Failed to send password reset email")
		return fmt.Errorf("failed to send password reset email: %w", err)
	}

	log.Info().Str("email", toEmail).Msg("Password reset email sent")
	return nil
}

// logSender writes the links that would have been emailed to the log.
// Used in development when no mail provider is configured.
type logSender struct {
	appURL string
}

func (s *logSender) SendVerification(_ context.Context, toEmail, _, token string) error {
	log.Info().
		Str("email", toEmail).
		Str("link", fmt.Sprintf("%s/verify-email?token=%s", s.appURL, token)).
		Msg("Verification email (log only)")
	return nil
}

func (s *logSender) SendPasswordReset(_ context.Context, toEmail, _, token string) error {
	log.Info().
		Str("email", toEmail).
		Str("link", fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)).
		Msg("Password reset email (log only)")
	return nil
}
