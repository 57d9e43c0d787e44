package security

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestHashPassword(t *testing.T) {
	password := "testPassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == "" {
		t.Error("HashPassword() returned empty string")
	}
	if hash == password {
		t.Error("HashPassword() returned unhashed password")
	}

	// Same password must produce different hashes due to salt.
	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == hash2 {
		t.Error("HashPassword() should produce different hashes due to salt")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "mySecurePassword"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"correct password", password, true},
		{"incorrect password", "wrongPassword", false},
		{"empty password", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.password, hash); got != tt.want {
				t.Errorf("CheckPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner("test-secret")
	sessionID := GenerateSessionID()
	expires := time.Now().Add(time.Hour)

	token, err := signer.Mint(sessionID, 42, "admin", "Marek", expires)
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	claims, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.ID != sessionID {
		t.Errorf("claims.ID = %q, want %q", claims.ID, sessionID)
	}
	if claims.Role != "admin" {
		t.Errorf("claims.Role = %q, want admin", claims.Role)
	}
	if claims.PlayerName != "Marek" {
		t.Errorf("claims.PlayerName = %q, want Marek", claims.PlayerName)
	}
	if claims.Subject != "42" {
		t.Errorf("claims.Subject = %q, want 42", claims.Subject)
	}
}

func TestTokenSignerRejectsTampering(t *testing.T) {
	signer := NewTokenSigner("test-secret")
	other := NewTokenSigner("other-secret")

	token, err := signer.Mint(GenerateSessionID(), 1, "user", "", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	if _, err := other.Parse(token); err == nil {
		t.Error("Parse() with wrong secret should fail")
	}
	if _, err := signer.Parse(token + "x"); err == nil {
		t.Error("Parse() of mangled token should fail")
	}
	if _, err := signer.Parse(""); err == nil {
		t.Error("Parse() of empty token should fail")
	}
}

func TestTokenSignerRejectsExpired(t *testing.T) {
	signer := NewTokenSigner("test-secret")
	token, err := signer.Mint(GenerateSessionID(), 1, "user", "", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if _, err := signer.Parse(token); err == nil {
		t.Error("Parse() of expired token should fail")
	}
}

func TestCSRFGenerator(t *testing.T) {
	g := NewCSRFGenerator("csrf-secret")

	token, err := g.GenerateToken("session-1")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	if !g.ValidateToken("session-1", token) {
		t.Error("ValidateToken() rejected its own token")
	}
	if g.ValidateToken("session-2", token) {
		t.Error("ValidateToken() accepted token for another session")
	}
	if g.ValidateToken("session-1", "bogus") {
		t.Error("ValidateToken() accepted a bogus token")
	}
	if g.ValidateToken("", token) {
		t.Error("ValidateToken() accepted empty session ID")
	}

	if _, err := g.GenerateToken(""); err == nil {
		t.Error("GenerateToken() should reject empty session ID")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("fourth request should be denied")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("different IP should not share a bucket")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		trustProxy bool
		want       string
	}{
		{"direct connection", "203.0.113.9:54321", "", "", false, "203.0.113.9"},
		{"spoofed forwarded-for ignored", "203.0.113.9:54321", "198.51.100.1", "", false, "203.0.113.9"},
		{"spoofed real-ip ignored", "203.0.113.9:54321", "", "198.51.100.1", false, "203.0.113.9"},
		{"trusted proxy forwarded-for", "10.0.0.2:443", "198.51.100.1", "", true, "198.51.100.1"},
		{"trusted proxy takes first hop", "10.0.0.2:443", "198.51.100.1, 10.0.0.2", "", true, "198.51.100.1"},
		{"trusted proxy real-ip fallback", "10.0.0.2:443", "", "198.51.100.1", true, "198.51.100.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := GetClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
