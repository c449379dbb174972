package api

import "testing"

func TestGenerateSessionToken(t *testing.T) {
	a, err := generateSessionToken()
	if err != nil {
		t.Fatalf("generateSessionToken() error = %v", err)
	}
	if len(a) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(a))
	}

	b, err := generateSessionToken()
	if err != nil {
		t.Fatalf("generateSessionToken() error = %v", err)
	}
	if a == b {
		t.Error("two tokens are identical")
	}
}
