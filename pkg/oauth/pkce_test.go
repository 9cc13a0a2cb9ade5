package oauth

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func TestGeneratePKCE(t *testing.T) {
	pkce, err := GeneratePKCE()
	if err != nil {
		t.Fatalf("GeneratePKCE() error = %v", err)
	}

	if len(pkce.CodeVerifier) < MinVerifierLength {
		t.Errorf("CodeVerifier length = %d, want >= %d", len(pkce.CodeVerifier), MinVerifierLength)
	}

	if pkce.CodeChallengeMethod != "S256" {
		t.Errorf("CodeChallengeMethod = %q, want %q", pkce.CodeChallengeMethod, "S256")
	}

	hash := sha256.Sum256([]byte(pkce.CodeVerifier))
	expectedChallenge := base64.RawURLEncoding.EncodeToString(hash[:])
	if pkce.CodeChallenge != expectedChallenge {
		t.Errorf("CodeChallenge = %q, want %q", pkce.CodeChallenge, expectedChallenge)
	}

	// Must agree with x/oauth2, which builds the challenge we send.
	stdlibChallenge := oauth2.S256ChallengeFromVerifier(pkce.CodeVerifier)
	if pkce.CodeChallenge != stdlibChallenge {
		t.Errorf("CodeChallenge = %q, want oauth2 result %q", pkce.CodeChallenge, stdlibChallenge)
	}

	if err := ValidateVerifier(pkce.CodeVerifier); err != nil {
		t.Errorf("generated verifier failed validation: %v", err)
	}
}

func TestGeneratePKCE_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pkce, err := GeneratePKCE()
		if err != nil {
			t.Fatalf("GeneratePKCE() error = %v", err)
		}

		if seen[pkce.CodeVerifier] {
			t.Error("Generated duplicate CodeVerifier")
		}
		seen[pkce.CodeVerifier] = true
	}
}

func TestNewPKCEFromVerifier(t *testing.T) {
	verifier := strings.Repeat("a", 43)

	pkce, err := NewPKCEFromVerifier(verifier)
	if err != nil {
		t.Fatalf("NewPKCEFromVerifier() error = %v", err)
	}
	if pkce.CodeVerifier != verifier {
		t.Errorf("CodeVerifier = %q, want %q", pkce.CodeVerifier, verifier)
	}
	if pkce.CodeChallenge != oauth2.S256ChallengeFromVerifier(verifier) {
		t.Errorf("CodeChallenge does not match verifier")
	}
}

func TestValidateVerifier(t *testing.T) {
	tests := []struct {
		name     string
		verifier string
		wantErr  bool
	}{
		{"minimum length", strings.Repeat("x", 43), false},
		{"maximum length", strings.Repeat("x", 128), false},
		{"unreserved characters", strings.Repeat("aZ0-._~", 7), false},
		{"too short", strings.Repeat("x", 42), true},
		{"too long", strings.Repeat("x", 129), true},
		{"invalid character", strings.Repeat("x", 42) + "+", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVerifier(tt.verifier)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVerifier() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}

	// 32 bytes = 43 base64url chars
	if len(state) != 43 {
		t.Errorf("state length = %d, want 43", len(state))
	}

	other, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	if state == other {
		t.Error("GenerateState() returned the same value twice")
	}
}
