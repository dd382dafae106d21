package gateAuth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/gateAuth/claimcrypt"
)

func newTestEngine(t *testing.T, mutate func(*Config)) *Engine {
	t.Helper()

	cfg := validTestConfig()
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := New().WithConfig(cfg).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestIssueAndAuthenticateRoundTrip(t *testing.T) {
	e := newTestEngine(t, nil)

	token, err := e.IssueToken(context.Background(), "42", RolePublisher)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	p, err := e.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if p.UserID != "42" || p.Role != RolePublisher {
		t.Fatalf("unexpected principal %+v", p)
	}
	if p.TokenID == "" || p.ExpiresAt.Sub(p.IssuedAt) != time.Hour {
		t.Fatalf("unexpected token metadata %+v", p)
	}
	if n, err := p.NumericUserID(); err != nil || n != 42 {
		t.Fatalf("NumericUserID = %d, %v", n, err)
	}

	snap := e.MetricsSnapshot()
	if snap.Counters[MetricTokenIssued] != 1 || snap.Counters[MetricAuthSuccess] != 1 {
		t.Fatalf("unexpected counters %v", snap.Counters)
	}
}

func TestTokenNeverContainsPlaintextClaims(t *testing.T) {
	e := newTestEngine(t, nil)

	token, err := e.IssueToken(context.Background(), "user-8675309", RoleAdmin)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if strings.Contains(claims.UserID, "8675309") || claims.Role == "1" {
		t.Fatal("expected sealed claims in token payload")
	}

	other, _ := e.IssueToken(context.Background(), "user-8675309", RoleAdmin)
	otherClaims, _ := e.jwtManager.ParseAccess(other)
	if otherClaims.UserID == claims.UserID {
		t.Fatal("expected fresh nonce per sealed claim")
	}
}

func TestIssueTokenRejectsInvalidInput(t *testing.T) {
	e := newTestEngine(t, nil)

	if _, err := e.IssueToken(context.Background(), "", RoleUser); err == nil {
		t.Fatal("expected empty user id to fail")
	}
	if _, err := e.IssueToken(context.Background(), "1", RoleNone); err == nil {
		t.Fatal("expected RoleNone to fail")
	}
}

func TestAuthenticateErrors(t *testing.T) {
	e := newTestEngine(t, nil)

	if _, err := e.Authenticate(context.Background(), "  "); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
	if _, err := e.Authenticate(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	other := newTestEngine(t, func(c *Config) {
		c.Token.Secret = []byte("another-secret-another-secret-another!")
	})
	foreign, err := other.IssueToken(context.Background(), "1", RoleUser)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if _, err := e.Authenticate(context.Background(), foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign token to fail with ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.Token.AccessTTL = time.Second })

	token, err := e.IssueToken(context.Background(), "1", RoleUser)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	time.Sleep(2100 * time.Millisecond)
	if _, err := e.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func signSealed(t *testing.T, e *Engine, sealedUserID, sealedRole string) string {
	t.Helper()
	token, err := e.jwtManager.CreateAccess(sealedUserID, sealedRole)
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	return token
}

func TestAuthenticateUserClaimUnreadableIsInvalid(t *testing.T) {
	e := newTestEngine(t, nil)

	sealedRole, _ := e.claims.Encrypt(RoleUser.code())
	token := signSealed(t, e, "garbage-user-claim", sealedRole)

	if _, err := e.Authenticate(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticateRoleClaimFailsClosed(t *testing.T) {
	e := newTestEngine(t, nil)

	foreignKey := []byte("ffffffffffffffffffffffffffffffff")
	foreign, err := claimcrypt.New(foreignKey)
	if err != nil {
		t.Fatalf("claimcrypt.New failed: %v", err)
	}

	sealedUser, _ := e.claims.Encrypt("7")
	sealedUnknown, _ := e.claims.Encrypt("9")
	sealedForeign, _ := foreign.Encrypt(RoleAdmin.code())

	for name, roleClaim := range map[string]string{
		"garbage":     "not-sealed",
		"unknown":     sealedUnknown,
		"foreign key": sealedForeign,
	} {
		t.Run(name, func(t *testing.T) {
			p, err := e.Authenticate(context.Background(), signSealed(t, e, sealedUser, roleClaim))
			if err != nil {
				t.Fatalf("expected principal, got %v", err)
			}
			if p.Role != RoleNone {
				t.Fatalf("expected RoleNone, got %s", p.Role)
			}
			if err := e.Authorize(p); !errors.Is(err, ErrForbidden) {
				t.Fatalf("expected RoleNone to be forbidden even without requirements, got %v", err)
			}
		})
	}

	if e.MetricsSnapshot().Counters[MetricAuthRoleUnreadable] != 3 {
		t.Fatal("expected role-unreadable counter to be 3")
	}
}

func TestAuthorize(t *testing.T) {
	e := newTestEngine(t, nil)

	if err := e.Authorize(nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for nil principal, got %v", err)
	}
	if err := e.Authorize(&Principal{Role: RoleUser}); err != nil {
		t.Fatalf("expected user allowed with no requirements, got %v", err)
	}
	if err := e.Authorize(&Principal{Role: RoleUser}, RoleAdmin, RoleSuperAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := e.Authorize(&Principal{Role: RoleAdmin}, RoleAdmin, RoleSuperAdmin); err != nil {
		t.Fatalf("expected admin allowed, got %v", err)
	}
	if e.MetricsSnapshot().Counters[MetricForbidden] != 1 {
		t.Fatal("expected one forbidden metric")
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	hash, err := e.HashPassword(ctx, "correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "1000.") {
		t.Fatalf("expected iteration prefix, got %q", hash)
	}

	ok, err := e.VerifyPassword(ctx, "correct horse battery staple", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	ok, err = e.VerifyPassword(ctx, "correct horse battery staplex", hash)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got %v %v", ok, err)
	}
	ok, err = e.VerifyPassword(ctx, "anything", "not.a.hash")
	if err != nil || ok {
		t.Fatalf("expected malformed hash to be a mismatch, got %v %v", ok, err)
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.Password.MaxPasswordBytes = 8 })

	if _, err := e.HashPassword(context.Background(), "123456789"); err == nil {
		t.Fatal("expected over-long password to be rejected")
	}
}

func TestPasswordGateHonorsContext(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.Password.Workers = 1 })

	if err := e.hashGate.Acquire(context.Background(), 1); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer e.hashGate.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := e.HashPassword(ctx, "pw"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while gate is full, got %v", err)
	}
	if _, err := e.VerifyPassword(ctx, "pw", "x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while gate is full, got %v", err)
	}
}

func TestPasswordGateBoundsConcurrency(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.Password.Workers = 2 })

	hash, err := e.HashPassword(context.Background(), "pw-123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := e.VerifyPassword(context.Background(), "pw-123", hash)
			if err != nil {
				errs <- err
				return
			}
			if !ok {
				errs <- errors.New("unexpected mismatch")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

type mapLookup map[string]Credential

func (m mapLookup) LookupCredential(_ context.Context, id string) (Credential, bool, error) {
	c, ok := m[id]
	return c, ok, nil
}

func TestLogin(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	hash, err := e.HashPassword(ctx, "s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	users := mapLookup{"alice@example.com": {UserID: "17", Role: RoleAdmin, PasswordHash: hash}}

	res, err := e.Login(ctx, LoginInput{Identifier: "alice@example.com", Password: "s3cret-pass"}, users)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if res.UserID != "17" || res.Role != RoleAdmin || res.ExpiresIn != time.Hour || res.NeedsRehash {
		t.Fatalf("unexpected login result %+v", res)
	}
	p, err := e.Authenticate(ctx, res.AccessToken)
	if err != nil || p.UserID != "17" || p.Role != RoleAdmin {
		t.Fatalf("issued token did not authenticate: %+v %v", p, err)
	}

	if _, err := e.Login(ctx, LoginInput{Identifier: "alice@example.com", Password: "wrong"}, users); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := e.Login(ctx, LoginInput{Identifier: "bob@example.com", Password: "s3cret-pass"}, users); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}

	snap := e.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 1 || snap.Counters[MetricLoginFailure] != 2 {
		t.Fatalf("unexpected login counters %v", snap.Counters)
	}
}

func TestLoginUnknownUserRunsDummyVerify(t *testing.T) {
	e := newTestEngine(t, nil)

	_, _ = e.Login(context.Background(), LoginInput{Identifier: "ghost", Password: "x"}, mapLookup{})

	if e.MetricsSnapshot().Counters[MetricPasswordVerifyFailure] != 1 {
		t.Fatal("expected unknown identifier to run a password verification")
	}
}

func TestLoginReportsRehashForOldHashes(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.Password.Iterations = 2000 })

	old, err := e.passwordHash.HashWithIterations("pw-abc", 1000)
	if err != nil {
		t.Fatalf("HashWithIterations failed: %v", err)
	}
	res, err := e.Login(context.Background(), LoginInput{Identifier: "u", Password: "pw-abc"},
		mapLookup{"u": {UserID: "1", Role: RoleUser, PasswordHash: old}})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !res.NeedsRehash {
		t.Fatal("expected NeedsRehash for lower-iteration hash")
	}
}

func TestLoginLookupErrorPropagates(t *testing.T) {
	e := newTestEngine(t, nil)
	boom := errors.New("db down")

	_, err := e.Login(context.Background(), LoginInput{Identifier: "u"}, CredentialLookupFunc(
		func(context.Context, string) (Credential, bool, error) { return Credential{}, false, boom },
	))
	if !errors.Is(err, boom) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestNilEngineMethods(t *testing.T) {
	var e *Engine
	if _, err := e.Authenticate(context.Background(), "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.IssueToken(context.Background(), "1", RoleUser); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if d := e.CheckRequest(nil); !d.Allowed {
		t.Fatal("expected nil engine to allow")
	}
	e.Close()
}

func TestCloseIsIdempotent(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Close()
	e.Close()
}
