package ports

import (
	"context"
	"time"

	"github.com/jobhub/identity/internal/core/domain"
)

// PasswordHasher is a salted, cost-parameterised one-way hash.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	// Verify never errors: a malformed digest simply does not verify.
	Verify(plaintext, digest string) bool
}

// TokenCodec signs and verifies the two token kinds with independent keys.
// Errors returned by the Verify methods are *domain.TokenError.
type TokenCodec interface {
	SignAccess(p domain.Principal) (string, time.Time, error)
	SignRefresh(c domain.RefreshClaims) (string, time.Time, error)
	VerifyAccess(token string) (*domain.Principal, error)
	VerifyRefresh(token string) (*domain.RefreshClaims, error)
}

// RegisterInput carries the data needed to create an account.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	User             domain.UserView
}

// RefreshResult is returned by a successful refresh. The refresh token is not rotated.
type RefreshResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	User            domain.UserView
}

// AuthService covers registration, login, refresh and token revocation.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Refresh issues a new access token for already-verified refresh claims.
	Refresh(ctx context.Context, claims domain.RefreshClaims) (*RefreshResult, error)
	// RefreshWithToken verifies a raw refresh token and then calls Refresh.
	RefreshWithToken(ctx context.Context, refreshToken string) (*RefreshResult, error)
	// Authenticate verifies an access token and checks its token version against the store.
	Authenticate(ctx context.Context, accessToken string) (*domain.Principal, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	// RevokeTokens invalidates every token issued to the user so far.
	RevokeTokens(ctx context.Context, userID string) (int, error)
}
