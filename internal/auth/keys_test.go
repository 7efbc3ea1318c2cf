package auth

import (
	"strings"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey("")
	if err != nil {
		t.Fatalf("GenerateAPIKey returned error: %v", err)
	}
	if !strings.HasPrefix(key, DefaultKeyPrefix) {
		t.Errorf("key %q missing default prefix", key)
	}

	key2, err := GenerateAPIKey("tst_")
	if err != nil {
		t.Fatalf("GenerateAPIKey returned error: %v", err)
	}
	if !strings.HasPrefix(key2, "tst_") {
		t.Errorf("key %q missing custom prefix", key2)
	}
	if key == key2 {
		t.Error("two generated keys are identical")
	}
}

func TestHashAndVerifyAPIKey(t *testing.T) {
	key, err := GenerateAPIKey("")
	if err != nil {
		t.Fatalf("GenerateAPIKey returned error: %v", err)
	}

	hash, err := HashAPIKey(key)
	if err != nil {
		t.Fatalf("HashAPIKey returned error: %v", err)
	}
	if !VerifyAPIKey(key, hash) {
		t.Error("valid key failed verification against its hash")
	}
	if VerifyAPIKey(key+"x", hash) {
		t.Error("tampered key passed verification")
	}
}

func TestVerifyAPIKeyConstantTime(t *testing.T) {
	if !VerifyAPIKeyConstantTime("secret", "secret") {
		t.Error("equal keys did not verify")
	}
	if VerifyAPIKeyConstantTime("secret", "other") {
		t.Error("different keys verified")
	}
	if VerifyAPIKeyConstantTime("", "secret") {
		t.Error("empty key verified")
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"  Bearer   abc123  ", "abc123"},
		{"abc123", "abc123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractBearerToken(tt.header); got != tt.want {
			t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
