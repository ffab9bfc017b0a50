package utils_test

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/authgate/authgate/internal/utils"
)

type sampleRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name:    "Valid JSON",
			body:    `{"email":"user@example.com","password":"secret123"}`,
			wantErr: false,
		},
		{
			name:    "Empty body",
			body:    "",
			wantErr: true,
		},
		{
			name:    "Malformed JSON",
			body:    `{"email":`,
			wantErr: true,
		},
		{
			name:    "Unknown field",
			body:    `{"email":"user@example.com","password":"secret123","extra":true}`,
			wantErr: true,
		},
		{
			name:    "Multiple JSON objects",
			body:    `{"email":"a@b.com","password":"secret123"}{"email":"c@d.com"}`,
			wantErr: true,
		},
		{
			name:    "Wrong type",
			body:    `{"email":123,"password":"secret123"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))

			var target sampleRequest
			err := utils.DecodeJSON(req, &target)

			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sampleRequest
		wantErr bool
	}{
		{
			name:    "Valid input",
			input:   sampleRequest{Email: "user@example.com", Password: "secret123"},
			wantErr: false,
		},
		{
			name:    "Missing email",
			input:   sampleRequest{Password: "secret123"},
			wantErr: true,
		},
		{
			name:    "Invalid email",
			input:   sampleRequest{Email: "not-an-email", Password: "secret123"},
			wantErr: true,
		},
		{
			name:    "Password too short",
			input:   sampleRequest{Email: "user@example.com", Password: "short"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.ValidateStruct(tt.input)

			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && !utils.IsValidationError(err) {
				t.Errorf("ValidateStruct() error = %v, want validation error", err)
			}
		})
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	err := utils.ValidateStruct(sampleRequest{})
	if err == nil {
		t.Fatal("ValidateStruct() expected error for empty struct")
	}

	appErr := utils.ParseError(err)
	if len(appErr.Details) < 2 {
		t.Errorf("ValidateStruct() details = %v, want both fields reported", appErr.Details)
	}
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"user@example.com","password":"secret123"}`))

	var target sampleRequest
	if err := utils.DecodeAndValidate(req, &target); err != nil {
		t.Errorf("DecodeAndValidate() error = %v, want nil", err)
	}

	if target.Email != "user@example.com" {
		t.Errorf("DecodeAndValidate() email = %v, want user@example.com", target.Email)
	}
}

func TestStrongPasswordValidation(t *testing.T) {
	type passwordRequest struct {
		Password string `json:"password" validate:"required,strong_password"`
	}

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Upper lower and number",
			password: "Secret123",
			wantErr:  false,
		},
		{
			name:     "Lower number and special",
			password: "secret123!",
			wantErr:  false,
		},
		{
			name:     "Only lowercase",
			password: "secretword",
			wantErr:  true,
		},
		{
			name:     "Only two criteria",
			password: "secret123",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := utils.ValidateStruct(passwordRequest{Password: tt.password})

			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	if !utils.IsValidEmail("user@example.com") {
		t.Error("IsValidEmail(user@example.com) = false, want true")
	}

	if utils.IsValidEmail("not-an-email") {
		t.Error("IsValidEmail(not-an-email) = true, want false")
	}
}
