package authutil

import (
	"strings"
	"testing"
)

// Test password hashing

func TestHashPassword_Valid(t *testing.T) {
	password := "SecurePassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "" {
		t.Error("expected hash to be non-empty")
	}
	if hash == password {
		t.Error("hash should not equal plain password")
	}
	// bcrypt hashes start with $2a$ or $2b$
	if hash[0] != '$' {
		t.Error("expected bcrypt hash to start with $")
	}
	if !strings.Contains(hash, "$10$") {
		t.Errorf("expected cost 10 in hash, got %q", hash)
	}
}

func TestHashPassword_Empty(t *testing.T) {
	if _, err := HashPassword(""); err != ErrEmptyPassword {
		t.Errorf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestHashPassword_DifferentHashesForSamePassword(t *testing.T) {
	password := "SecurePassword123"

	hash1, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	// bcrypt uses random salt, so hashes should be different
	if hash1 == hash2 {
		t.Error("expected different hashes for same password (random salt)")
	}
}

// Test password checking

func TestCheckPassword_Correct(t *testing.T) {
	password := "SecurePassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !CheckPassword(password, hash) {
		t.Error("expected CheckPassword to return true for correct password")
	}
}

func TestCheckPassword_Incorrect(t *testing.T) {
	hash, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if CheckPassword("WrongPassword456", hash) {
		t.Error("expected CheckPassword to return false for wrong password")
	}
}

func TestCheckPassword_EmptyPassword(t *testing.T) {
	hash, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if CheckPassword("", hash) {
		t.Error("expected CheckPassword to return false for empty password")
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	if CheckPassword("password", "not-a-valid-hash") {
		t.Error("expected CheckPassword to return false for invalid hash")
	}
	if CheckPassword("password", "") {
		t.Error("expected CheckPassword to return false for empty hash")
	}
}

// Test temporary password generation

func TestGenerateTempPassword_Length(t *testing.T) {
	pw := GenerateTempPassword()
	if len(pw) != TempPasswordLength {
		t.Errorf("len = %d, want %d", len(pw), TempPasswordLength)
	}
}

func TestGenerateTempPassword_Alphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		pw := GenerateTempPassword()
		for _, c := range pw {
			if !strings.ContainsRune(tempPasswordAlphabet, c) {
				t.Fatalf("unexpected character %q in %q", c, pw)
			}
		}
	}
}

func TestGenerateTempPassword_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pw := GenerateTempPassword()
		if seen[pw] {
			t.Fatalf("duplicate temp password %q", pw)
		}
		seen[pw] = true
	}
}

func TestGenerateTempPassword_Hashable(t *testing.T) {
	pw := GenerateTempPassword()
	hash, err := HashPassword(pw)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(pw, hash) {
		t.Error("generated password does not verify against its hash")
	}
}
