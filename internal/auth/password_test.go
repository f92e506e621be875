package auth

import (
	"testing"

	"github.com/hitoshi/grocerstock/internal/model"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"1234567", true},
		{"12345678", false},
		{"パスワード八文字だ", false},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
		if err != nil {
			if apiErr, ok := err.(*model.APIError); !ok || apiErr.Code != model.ErrCodeWeakPassword {
				t.Errorf("expected WEAK_PASSWORD, got %v", err)
			}
		}
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash must differ from plaintext")
	}
	if !CheckPassword(hash, "password123") {
		t.Error("CheckPassword should accept the original password")
	}
	if CheckPassword(hash, "password124") {
		t.Error("CheckPassword should reject a different password")
	}
}
