package security

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/collab-service/internal/errs"
)

func newTestSigner(t *testing.T, ttl, skew time.Duration) *JWTSigner {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	return NewJWTSigner(key, &key.PublicKey, "collab-service", "collab-clients", ttl, skew)
}

func TestSignAndParseRoundTrip(t *testing.T) {
	s := newTestSigner(t, time.Hour, 30*time.Second)

	token, err := s.SignAccessToken(42, "alice", time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := s.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Username != "alice" {
		t.Fatalf("expected username alice, got %q", claims.Username)
	}
	id, err := SubjectAsUserID(claims)
	if err != nil || id != 42 {
		t.Fatalf("expected subject 42, got %v (%v)", id, err)
	}
	if s.TTL() != time.Hour {
		t.Fatalf("expected 1h TTL, got %v", s.TTL())
	}
}

func TestExpiredToken(t *testing.T) {
	s := newTestSigner(t, time.Minute, 0)

	token, err := s.SignAccessToken(1, "bob", time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := s.ParseAndValidate(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestForeignIssuerRejected(t *testing.T) {
	key, _ := rsa.GenerateKey(rand.Reader, 2048)
	other := NewJWTSigner(key, &key.PublicKey, "someone-else", "collab-clients", time.Hour, 0)
	mine := NewJWTSigner(key, &key.PublicKey, "collab-service", "collab-clients", time.Hour, 0)

	token, err := other.SignAccessToken(1, "bob", time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = mine.ParseAndValidate(token)
	if !errors.Is(err, errs.ErrInvalidIssuer) {
		t.Fatalf("expected ErrInvalidIssuer, got %v", err)
	}
}

func TestForeignKeyRejected(t *testing.T) {
	a := newTestSigner(t, time.Hour, 0)
	b := newTestSigner(t, time.Hour, 0)

	token, err := a.SignAccessToken(1, "bob", time.Now())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := b.Verify(token); err == nil {
		t.Fatal("token signed with a foreign key must not verify")
	}
}

func TestSubjectAsUserIDGarbage(t *testing.T) {
	if _, err := SubjectAsUserID(nil); !errors.Is(err, errs.ErrInvalidSubject) {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
	claims := &AccessClaims{}
	claims.Subject = "not-a-number"
	if _, err := SubjectAsUserID(claims); !errors.Is(err, errs.ErrInvalidSubject) {
		t.Fatalf("expected ErrInvalidSubject, got %v", err)
	}
}
