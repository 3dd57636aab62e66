package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jobhub/identity/internal/core/domain"
)

func newTestCodec(t *testing.T) *JWTCodec {
	t.Helper()
	c, err := NewJWTCodec(TokenCodecConfig{
		Issuer:  "jobhub-test",
		Access:  SigningContext{Secret: testAccessSecret, TTL: time.Minute},
		Refresh: SigningContext{Secret: testRefreshSecret, TTL: time.Hour},
	})
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	return c
}

func tokenKind(t *testing.T, err error) domain.TokenErrorKind {
	t.Helper()
	te, ok := domain.AsTokenError(err)
	if !ok {
		t.Fatalf("expected *TokenError, got %v", err)
	}
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("token errors must match ErrUnauthorized")
	}
	return te.Kind
}

func TestNewJWTCodec_Validation(t *testing.T) {
	if _, err := NewJWTCodec(TokenCodecConfig{Access: SigningContext{Secret: "a"}}); err == nil {
		t.Fatalf("expected error for missing refresh secret")
	}
	if _, err := NewJWTCodec(TokenCodecConfig{
		Access:  SigningContext{Secret: "same"},
		Refresh: SigningContext{Secret: "same"},
	}); err == nil {
		t.Fatalf("expected error for identical secrets")
	}

	c, err := NewJWTCodec(TokenCodecConfig{
		Access:  SigningContext{Secret: "a"},
		Refresh: SigningContext{Secret: "b"},
	})
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	if c.access.TTL != 15*time.Minute || c.refresh.TTL != 7*24*time.Hour {
		t.Fatalf("unexpected default TTLs: %s, %s", c.access.TTL, c.refresh.TTL)
	}
}

func TestJWTCodec_AccessRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	in := domain.Principal{
		SubjectID:    "user-1",
		Email:        "a@example.com",
		DisplayName:  "Alice",
		Roles:        []domain.RoleName{domain.RoleCandidate, domain.RoleEmployer},
		TokenVersion: 3,
	}

	token, exp, err := c.SignAccess(in)
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}
	if time.Until(exp) > time.Minute || time.Until(exp) <= 0 {
		t.Fatalf("unexpected expiry %s", exp)
	}

	out, err := c.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if out.SubjectID != in.SubjectID || out.Email != in.Email || out.DisplayName != in.DisplayName ||
		out.TokenVersion != in.TokenVersion || len(out.Roles) != 2 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestJWTCodec_CrossKindRejected(t *testing.T) {
	c := newTestCodec(t)
	access, _, _ := c.SignAccess(domain.Principal{SubjectID: "u"})
	refresh, _, _ := c.SignRefresh(domain.RefreshClaims{SubjectID: "u"})

	if _, err := c.VerifyRefresh(access); err == nil {
		t.Fatalf("access token accepted as refresh token")
	} else if k := tokenKind(t, err); k != domain.TokenSignatureMismatch {
		t.Fatalf("expected signature mismatch, got %s", k)
	}
	if _, err := c.VerifyAccess(refresh); err == nil {
		t.Fatalf("refresh token accepted as access token")
	}
}

func TestJWTCodec_WrongTypeSameKey(t *testing.T) {
	c := newTestCodec(t)
	claims := &refreshTokenClaims{Type: tokenTypeRefresh}
	claims.RegisteredClaims, _ = c.registered("u", time.Minute)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = c.VerifyAccess(token)
	if k := tokenKind(t, err); k != domain.TokenMalformed {
		t.Fatalf("expected malformed, got %s", k)
	}
}

func TestJWTCodec_Expired(t *testing.T) {
	c := newTestCodec(t)
	issued := time.Now().Add(-2 * time.Hour)
	c.now = func() time.Time { return issued }
	token, _, err := c.SignAccess(domain.Principal{SubjectID: "u"})
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}
	c.now = time.Now

	_, err = c.VerifyAccess(token)
	if k := tokenKind(t, err); k != domain.TokenExpired {
		t.Fatalf("expected expired, got %s", k)
	}
}

func TestJWTCodec_NotYetValid(t *testing.T) {
	c := newTestCodec(t)
	c.now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	token, _, _ := c.SignRefresh(domain.RefreshClaims{SubjectID: "u"})
	c.now = time.Now

	_, err := c.VerifyRefresh(token)
	if k := tokenKind(t, err); k != domain.TokenNotYetValid {
		t.Fatalf("expected not yet valid, got %s", k)
	}
}

func TestJWTCodec_TamperedAndGarbage(t *testing.T) {
	c := newTestCodec(t)
	token, _, _ := c.SignAccess(domain.Principal{SubjectID: "u"})

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := c.VerifyAccess(tampered); tokenKind(t, err) != domain.TokenSignatureMismatch {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
	if _, err := c.VerifyAccess("garbage"); tokenKind(t, err) != domain.TokenMalformed {
		t.Fatalf("expected malformed, got %v", err)
	}
}

func TestJWTCodec_RejectsAlgNone(t *testing.T) {
	c := newTestCodec(t)
	claims := &accessTokenClaims{Type: tokenTypeAccess}
	claims.RegisteredClaims, _ = c.registered("u", time.Minute)
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.VerifyAccess(token); err == nil {
		t.Fatalf("alg none accepted")
	}
}
