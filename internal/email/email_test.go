package email_test

import (
	"context"
	"testing"

	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/email"
)

func TestNewSenderWithoutAPIKey(t *testing.T) {
	sender := email.NewSender(&config.EmailSettings{
		AppURL: "http://localhost:3000",
	})
	if sender == nil {
		t.Fatal("NewSender() returned nil")
	}

	// The logging sender must complete both flows without a provider
	if err := sender.SendVerification(context.Background(), "user@example.com", "User", "token123"); err != nil {
		t.Errorf("SendVerification() error = %v, want nil", err)
	}
	if err := sender.SendPasswordReset(context.Background(), "user@example.com", "User", "token123"); err != nil {
		t.Errorf("SendPasswordReset() error = %v, want nil", err)
	}
}

func TestNewSenderWithAPIKey(t *testing.T) {
	sender := email.NewSender(&config.EmailSettings{
		ResendAPIKey: "re_test_key",
		FromEmail:    "noreply@example.com",
		AppURL:       "https://app.example.com",
	})
	if sender == nil {
		t.Fatal("NewSender() returned nil")
	}
}
