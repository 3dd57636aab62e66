package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jobhub/identity/internal/core/domain"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// SigningContext is the key and lifetime of one token kind.
type SigningContext struct {
	Secret string
	TTL    time.Duration
}

// TokenCodecConfig configures both signing contexts.
type TokenCodecConfig struct {
	Issuer  string
	Access  SigningContext
	Refresh SigningContext
}

// accessTokenClaims is the JWT payload of an access token.
type accessTokenClaims struct {
	jwt.RegisteredClaims
	Type         string            `json:"typ"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	Roles        []domain.RoleName `json:"roles"`
	TokenVersion int               `json:"token_version"`
}

// refreshTokenClaims is the JWT payload of a refresh token.
type refreshTokenClaims struct {
	jwt.RegisteredClaims
	Type         string `json:"typ"`
	TokenVersion int    `json:"token_version"`
}

// JWTCodec implements ports.TokenCodec with HS256 JWTs. Access and refresh
// tokens use separate secrets, and carry a typ claim so that one kind is never
// accepted in place of the other.
type JWTCodec struct {
	issuer  string
	access  SigningContext
	refresh SigningContext
	now     func() time.Time
}

// NewJWTCodec validates cfg and returns a codec. Zero TTLs fall back to 15
// minutes (access) and 7 days (refresh).
func NewJWTCodec(cfg TokenCodecConfig) (*JWTCodec, error) {
	if cfg.Access.Secret == "" || cfg.Refresh.Secret == "" {
		return nil, errors.New("token codec: access and refresh secrets are required")
	}
	if cfg.Access.Secret == cfg.Refresh.Secret {
		return nil, errors.New("token codec: access and refresh secrets must differ")
	}
	if cfg.Access.TTL <= 0 {
		cfg.Access.TTL = defaultAccessTTL
	}
	if cfg.Refresh.TTL <= 0 {
		cfg.Refresh.TTL = defaultRefreshTTL
	}
	return &JWTCodec{
		issuer:  cfg.Issuer,
		access:  cfg.Access,
		refresh: cfg.Refresh,
		now:     time.Now,
	}, nil
}

func (c *JWTCodec) registered(subject string, ttl time.Duration) (jwt.RegisteredClaims, time.Time) {
	now := c.now()
	exp := now.Add(ttl)
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    c.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}, exp
}

// SignAccess signs p into a short-lived access token.
func (c *JWTCodec) SignAccess(p domain.Principal) (string, time.Time, error) {
	rc, exp := c.registered(p.SubjectID, c.access.TTL)
	claims := &accessTokenClaims{
		RegisteredClaims: rc,
		Type:             tokenTypeAccess,
		Email:            p.Email,
		Name:             p.DisplayName,
		Roles:            p.Roles,
		TokenVersion:     p.TokenVersion,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.access.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// SignRefresh signs rc into a long-lived refresh token.
func (c *JWTCodec) SignRefresh(rc domain.RefreshClaims) (string, time.Time, error) {
	reg, exp := c.registered(rc.SubjectID, c.refresh.TTL)
	claims := &refreshTokenClaims{
		RegisteredClaims: reg,
		Type:             tokenTypeRefresh,
		TokenVersion:     rc.TokenVersion,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.refresh.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, exp, nil
}

// VerifyAccess parses an access token. Errors are *domain.TokenError.
func (c *JWTCodec) VerifyAccess(token string) (*domain.Principal, error) {
	claims := &accessTokenClaims{}
	if err := c.parse(token, claims, c.access.Secret); err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeAccess || claims.Subject == "" {
		return nil, &domain.TokenError{Kind: domain.TokenMalformed, Err: errors.New("not an access token")}
	}
	return &domain.Principal{
		SubjectID:    claims.Subject,
		Email:        claims.Email,
		DisplayName:  claims.Name,
		Roles:        claims.Roles,
		TokenVersion: claims.TokenVersion,
	}, nil
}

// VerifyRefresh parses a refresh token. Errors are *domain.TokenError.
func (c *JWTCodec) VerifyRefresh(token string) (*domain.RefreshClaims, error) {
	claims := &refreshTokenClaims{}
	if err := c.parse(token, claims, c.refresh.Secret); err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeRefresh || claims.Subject == "" {
		return nil, &domain.TokenError{Kind: domain.TokenMalformed, Err: errors.New("not a refresh token")}
	}
	return &domain.RefreshClaims{
		SubjectID:    claims.Subject,
		TokenVersion: claims.TokenVersion,
	}, nil
}

func (c *JWTCodec) parse(token string, claims jwt.Claims, secret string) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return classifyTokenError(err)
	}
	if !parsed.Valid {
		return &domain.TokenError{Kind: domain.TokenMalformed}
	}
	return nil
}

// classifyTokenError maps golang-jwt errors onto the verification kinds.
func classifyTokenError(err error) error {
	kind := domain.TokenMalformed
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		kind = domain.TokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		kind = domain.TokenNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		kind = domain.TokenSignatureMismatch
	}
	return &domain.TokenError{Kind: kind, Err: err}
}
