package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/wellness-backend/internal/data/repos"
	"github.com/yungbote/wellness-backend/internal/data/repos/testutil"
	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
)

const testSecret = "test-secret-key-that-is-long-enough-for-hs512-signing-0123456789"

type memoryRevocations struct {
	entries map[string]time.Time
	lookups int
}

func (m *memoryRevocations) MarkRevoked(_ context.Context, tokenID string, until time.Time) error {
	if m.entries == nil {
		m.entries = map[string]time.Time{}
	}
	m.entries[tokenID] = until
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.lookups++
	_, ok := m.entries[tokenID]
	return ok, nil
}

type authFixture struct {
	svc   AuthService
	clock *testClock
	cache *memoryRevocations
	dbc   dbctx.Context
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	f := &authFixture{
		clock: &testClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)},
		cache: &memoryRevocations{},
		dbc:   dbctx.Context{Ctx: context.Background(), Tx: tx},
	}
	f.svc = NewAuthService(db, log,
		repos.NewUserRepo(tx, log),
		repos.NewInvalidatedTokenRepo(tx, log),
		f.cache,
		AuthConfig{
			SecretKey:  testSecret,
			Issuer:     "wellness-test",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
			BcryptCost: bcrypt.MinCost,
			Now:        f.clock.Now,
		},
	)
	return f
}

func (f *authFixture) register(t *testing.T) (email, password string) {
	t.Helper()
	id := uuid.NewString()[:8]
	email = "user_" + id + "@example.com"
	password = "correct-horse-" + id
	u, err := f.svc.Register(f.dbc, RegisterInput{
		Username: "user_" + id,
		Email:    "  " + email + " ",
		Password: password,
		FullName: "Test User",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Password == password {
		t.Fatalf("password stored in clear")
	}
	return email, password
}

func (f *authFixture) login(t *testing.T, email, password string) string {
	t.Helper()
	res, err := f.svc.Login(f.dbc, email, password)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !res.Authenticated || res.Token == "" || res.ExpiresIn != 3600 {
		t.Fatalf("Login: unexpected result %+v", res)
	}
	return res.Token
}

func (f *authFixture) valid(t *testing.T, token string) bool {
	t.Helper()
	ok, err := f.svc.Introspect(context.Background(), token)
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	return ok
}

func TestAuthRegisterLoginLogoutRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	email, password := f.register(t)
	token := f.login(t, email, password)

	if !f.valid(t, token) {
		t.Fatalf("fresh token should be valid")
	}
	ctx, err := f.svc.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil || rd.TokenID == "" {
		t.Fatalf("request data not populated: %+v", rd)
	}

	if err := f.svc.Logout(dbctx.Context{Ctx: ctx, Tx: f.dbc.Tx}); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if f.valid(t, token) {
		t.Fatalf("token still valid after logout")
	}
	if _, err := f.svc.SetContextFromToken(context.Background(), token); err == nil {
		t.Fatalf("revoked token accepted")
	}
	if _, ok := f.cache.entries[rd.TokenID]; !ok {
		t.Fatalf("logout did not populate revocation cache")
	}

	// A second logout with the same token is a no-op.
	if err := f.svc.Logout(dbctx.Context{Ctx: ctx, Tx: f.dbc.Tx}); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
}

func TestAuthRegisterDuplicate(t *testing.T) {
	f := newAuthFixture(t)
	email, _ := f.register(t)
	_, err := f.svc.Register(f.dbc, RegisterInput{
		Username: "someone_else",
		Email:    email,
		Password: "another-password",
	})
	wantAPIError(t, err, http.StatusConflict, CodeUserExists)
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	email, _ := f.register(t)

	_, err := f.svc.Login(f.dbc, email, "wrong-password")
	wantAPIError(t, err, http.StatusUnauthorized, CodeInvalidCredentials)

	_, err = f.svc.Login(f.dbc, "nobody@example.com", "whatever-password")
	wantAPIError(t, err, http.StatusUnauthorized, CodeInvalidCredentials)
}

func TestAuthIntrospectRejectsForeignTokens(t *testing.T) {
	f := newAuthFixture(t)
	claims := JWTClaims{
		Scope: ScopeUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   uuid.NewString(),
			Issuer:    "wellness-test",
			IssuedAt:  jwt.NewNumericDate(f.clock.t),
			ExpiresAt: jwt.NewNumericDate(f.clock.t.Add(time.Hour)),
		},
	}
	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims.Issuer = "someone-else"
	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"other key":    otherKey,
		"wrong alg":    wrongAlg,
		"wrong issuer": wrongIssuer,
	} {
		if f.valid(t, tok) {
			t.Fatalf("%s: expected invalid", name)
		}
	}
}

func TestAuthRefreshWindow(t *testing.T) {
	f := newAuthFixture(t)
	email, password := f.register(t)
	token := f.login(t, email, password)

	// Past exp but inside the refreshable window.
	f.clock.t = f.clock.t.Add(2 * time.Hour)
	if f.valid(t, token) {
		t.Fatalf("expired token reported valid")
	}
	res, err := f.svc.Refresh(f.dbc, token)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res.Token == token || !f.valid(t, res.Token) {
		t.Fatalf("Refresh did not issue a fresh valid token")
	}

	// The old token cannot be refreshed twice.
	_, err = f.svc.Refresh(f.dbc, token)
	wantAPIError(t, err, http.StatusUnauthorized, CodeUnauthorized)

	// Beyond iat + refresh TTL the new token is no longer refreshable.
	f.clock.t = f.clock.t.Add(25 * time.Hour)
	_, err = f.svc.Refresh(f.dbc, res.Token)
	wantAPIError(t, err, http.StatusUnauthorized, CodeUnauthorized)
	if !errors.Is(err, errNotRefreshable) {
		t.Fatalf("want errNotRefreshable, got %v", err)
	}
}

func TestAuthRevocationCacheShortCircuits(t *testing.T) {
	f := newAuthFixture(t)
	email, password := f.register(t)
	token := f.login(t, email, password)

	ctx, err := f.svc.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	jti := ctxutil.GetRequestData(ctx).TokenID

	// Revoked in the cache only: the cache hit alone rejects the token.
	_ = f.cache.MarkRevoked(context.Background(), jti, f.clock.t.Add(time.Hour))
	if f.valid(t, token) {
		t.Fatalf("cache revocation ignored")
	}
}

func TestAuthPurgeExpired(t *testing.T) {
	f := newAuthFixture(t)
	email, password := f.register(t)
	token := f.login(t, email, password)
	ctx, err := f.svc.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	if err := f.svc.Logout(dbctx.Context{Ctx: ctx, Tx: f.dbc.Tx}); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	n, err := f.svc.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 0 {
		t.Fatalf("PurgeExpired before expiry: want=0 got=%d", n)
	}

	f.clock.t = f.clock.t.Add(48 * time.Hour)
	n, err = f.svc.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("PurgeExpired after expiry: want=1 got=%d", n)
	}
}
