package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-0123456789abcdef"

func TestTokenIssuer_RoundTrip(t *testing.T) {
	iss := NewTokenIssuer(testSecret, 0)

	token, exp, err := iss.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}
	if d := time.Until(exp); d < DefaultTokenTTL-time.Minute || d > DefaultTokenTTL {
		t.Fatalf("unexpected expiry in %v", d)
	}

	userID, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected user-1, got %q", userID)
	}
}

func TestTokenIssuer_Expiry(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	iss := NewTokenIssuer(testSecret, DefaultTokenTTL).WithClock(func() time.Time { return now })

	token, exp, err := iss.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !exp.Equal(start.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", exp)
	}

	now = start.Add(7*24*time.Hour - time.Minute)
	if _, err := iss.Verify(token); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}

	now = start.Add(7*24*time.Hour + time.Minute)
	if _, err := iss.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTokenIssuer_UniqueIDs(t *testing.T) {
	iss := NewTokenIssuer(testSecret, 0)
	a, _, err := iss.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	b, _, err := iss.Issue("user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if a == b {
		t.Fatal("two tokens issued in a row should differ")
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	iss := NewTokenIssuer(testSecret, 0)
	now := time.Now()
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	otherSecret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret-0123456789"))
	if err != nil {
		t.Fatal(err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1"}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: claims.RegisteredClaims}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", otherSecret},
		{"alg none", none},
		{"other algorithm", hs512},
		{"missing exp", noExp},
		{"missing user id", noUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := iss.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
