package auth

import "testing"

func TestHashPasswordAndVerify(t *testing.T) {
	hash, err := HashPassword("admin123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "admin123" {
		t.Fatal("expected hash to differ from password")
	}
	if !VerifyPassword(hash, "admin123") {
		t.Fatal("expected password to verify")
	}
	if VerifyPassword(hash, "admin124") {
		t.Fatal("expected wrong password to fail")
	}
}
