package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid password", password: "validpassword123"},
		{name: "password too short", password: "short", wantErr: ErrPasswordTooShort},
		{name: "password at minimum length", password: "12345678"},
		{name: "password too long", password: strings.Repeat("a", 73), wantErr: ErrPasswordTooLong},
		{name: "password at maximum length", password: strings.Repeat("a", 72)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password, 4)
			if err != tt.wantErr {
				t.Errorf("HashPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil && hash == "" {
				t.Error("HashPassword() returned empty hash for valid password")
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("testpassword123", 4)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	if err := CheckPassword("testpassword123", hash); err != nil {
		t.Errorf("CheckPassword() correct password: %v", err)
	}
	if err := CheckPassword("wrongpassword", hash); err != ErrInvalidPassword {
		t.Errorf("CheckPassword() wrong password = %v, want ErrInvalidPassword", err)
	}
	if err := CheckPassword("anything", ""); err != ErrInvalidPassword {
		t.Errorf("CheckPassword() empty hash = %v, want ErrInvalidPassword", err)
	}
}

func TestValidateNewPassword(t *testing.T) {
	tests := []struct {
		password, confirm string
		want              error
	}{
		{"goodpassword", "goodpassword", nil},
		{"goodpassword", "otherpassword", ErrPasswordMismatch},
		{"short", "short", ErrPasswordTooShort},
		{strings.Repeat("b", 80), strings.Repeat("b", 80), ErrPasswordTooLong},
	}
	for _, tt := range tests {
		if got := ValidateNewPassword(tt.password, tt.confirm); got != tt.want {
			t.Errorf("ValidateNewPassword(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestGenerateOpaqueToken(t *testing.T) {
	plain1, hash1, err := GenerateOpaqueToken()
	if err != nil {
		t.Fatalf("GenerateOpaqueToken() error = %v", err)
	}
	plain2, _, _ := GenerateOpaqueToken()

	if len(plain1) != 64 {
		t.Errorf("token length = %d, want 64", len(plain1))
	}
	if plain1 == plain2 {
		t.Error("tokens should be unique")
	}
	if HashToken(plain1) != hash1 {
		t.Error("hash should match HashToken(plaintext)")
	}
	if hash1 == plain1 {
		t.Error("hash should differ from plaintext")
	}
}

func TestGenerateSessionSecret(t *testing.T) {
	s1, err := GenerateSessionSecret()
	if err != nil {
		t.Fatalf("GenerateSessionSecret() error = %v", err)
	}
	s2, _ := GenerateSessionSecret()
	if len(s1) != 64 || s1 == s2 {
		t.Errorf("unexpected secrets %q %q", s1, s2)
	}
}
