package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
	"github.com/jobhub/identity/internal/infrastructure/db/memory"
)

const (
	testAccessSecret  = "access-secret-for-tests"
	testRefreshSecret = "refresh-secret-for-tests"
)

// testEnv wires the core services over an in-memory store.
type testEnv struct {
	store    *memory.Store
	hasher   *BcryptHasher
	codec    *JWTCodec
	registry *RoleRegistry
	auth     *AuthService
	engine   *AuthorizationEngine
	workflow *RegistrationWorkflow
	admin    *AccessAdminService
	users    *UserAdminService
	seeder   *Seeder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, memory.New(), nil)
}

func newTestEnvWithStore(t *testing.T, store *memory.Store, cache ports.PermissionCache) *testEnv {
	t.Helper()
	log := zerolog.Nop()

	hasher, err := NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}
	codec, err := NewJWTCodec(TokenCodecConfig{
		Issuer:  "jobhub-test",
		Access:  SigningContext{Secret: testAccessSecret},
		Refresh: SigningContext{Secret: testRefreshSecret},
	})
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	registry := NewRoleRegistry(store, log)
	auth, err := NewAuthService(store, hasher, codec, registry, log)
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	return &testEnv{
		store:    store,
		hasher:   hasher,
		codec:    codec,
		registry: registry,
		auth:     auth,
		engine:   NewAuthorizationEngine(store, cache, log),
		workflow: NewRegistrationWorkflow(store, registry, cache, log),
		admin:    NewAccessAdminService(store, registry, cache, log),
		users:    NewUserAdminService(store, hasher, registry, cache, log),
		seeder:   NewSeeder(store, hasher, registry, log),
	}
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	if _, err := e.seeder.Seed(context.Background(), AdminAccount{}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
}

func (e *testEnv) register(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), ports.RegisterInput{
		Email:       email,
		Password:    "secret123",
		DisplayName: "Test User",
	})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return u
}

// principal logs the user in and verifies the resulting access token.
func (e *testEnv) principal(t *testing.T, email string) *domain.Principal {
	t.Helper()
	ctx := context.Background()
	res, err := e.auth.Login(ctx, email, "secret123")
	if err != nil {
		t.Fatalf("Login(%s): %v", email, err)
	}
	p, err := e.auth.Authenticate(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	return p
}
