package password

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("Expected hash to differ from plaintext")
	}

	if !CheckPasswordHash("secret123", hash) {
		t.Fatal("Expected correct password to verify")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Fatal("Expected wrong password to fail verification")
	}
}

func TestHashesAreSalted(t *testing.T) {
	first, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if first == second {
		t.Fatal("Expected two hashes of the same password to differ")
	}
}
