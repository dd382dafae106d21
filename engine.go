package gateAuth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/gateAuth/claimcrypt"
	"github.com/MrEthical07/gateAuth/internal/audit"
	"github.com/MrEthical07/gateAuth/internal/rate"
	"github.com/MrEthical07/gateAuth/jwt"
	"github.com/MrEthical07/gateAuth/password"
	"golang.org/x/sync/semaphore"
	xrate "golang.org/x/time/rate"
)

// Engine defines a public type used by gateAuth APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	logger       *slog.Logger
	claims       *claimcrypt.Cipher
	passwordHash *password.PBKDF2
	dummyHash    string
	hashGate     *semaphore.Weighted
	jwtManager   *jwt.Manager
	rateLimiter  *rate.Limiter
	loginPaths   map[string]struct{}
	audit        *audit.Dispatcher
	metrics      *Metrics
	denyLog      xrate.Sometimes

	stopSweeper context.CancelFunc
	closeOnce   sync.Once
}

// Close stops the limiter sweeper and drains the audit dispatcher. It is safe
// to call more than once.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		if e.stopSweeper != nil {
			e.stopSweeper()
		}
		if e.rateLimiter != nil {
			e.rateLimiter.Close()
		}
		if e.audit != nil {
			e.audit.Close()
		}
		e.logger.Info("gateauth engine closed")
	})
}

// AuditDropped returns how many audit events were dropped due to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// AdminPathGuard returns the configured admin path guard settings.
func (e *Engine) AdminPathGuard() AdminPathGuardConfig {
	if e == nil {
		return AdminPathGuardConfig{}
	}
	return e.config.AdminPathGuard
}

// TrustProxy reports whether client addresses come from forwarding headers.
func (e *Engine) TrustProxy() bool {
	return e != nil && e.config.RateLimit.TrustProxy
}

// Logger returns the engine's structured logger.
func (e *Engine) Logger() *slog.Logger {
	if e == nil || e.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.logger
}

/*
====================================
TOKENS
====================================
*/

// IssueToken seals userID and role and signs an access token.
func (e *Engine) IssueToken(ctx context.Context, userID string, role Role) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	if userID == "" {
		return "", errors.New("user id required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("cannot issue token for role %s", role)
	}

	sealedUserID, err := e.claims.Encrypt(userID)
	if err != nil {
		return "", fmt.Errorf("seal user id: %w", err)
	}
	sealedRole, err := e.claims.Encrypt(role.code())
	if err != nil {
		return "", fmt.Errorf("seal role: %w", err)
	}

	token, err := e.jwtManager.CreateAccess(sealedUserID, sealedRole)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	e.metricInc(MetricTokenIssued)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventTokenIssued,
		UserID:    userID,
		Role:      role.String(),
		Success:   true,
	}, nil)

	return token, nil
}

// Authenticate verifies token and opens its claims.
//
// Any signature, expiry or user claim failure returns ErrInvalidToken. A role
// claim that cannot be opened or names no known role yields a principal with
// RoleNone, which Authorize always rejects.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricAuthenticateLatency, time.Since(start)) }()
	}

	if strings.TrimSpace(token) == "" {
		e.metricInc(MetricAuthMissingToken)
		return nil, ErrTokenMissing
	}

	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		e.logger.Debug("access token rejected", "reason", err)
		return nil, e.authFailure(ctx, "")
	}

	userID, err := e.claims.Decrypt(claims.UserID)
	if err != nil {
		e.logger.Debug("user claim could not be opened")
		return nil, e.authFailure(ctx, "")
	}

	role := RoleNone
	if plain, err := e.claims.Decrypt(claims.Role); err == nil {
		role = roleFromCode(plain)
	}
	if role == RoleNone {
		e.metricInc(MetricAuthRoleUnreadable)
		e.logger.Debug("role claim unreadable, continuing with no role", "user_id", userID)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventAuthRoleUnreadable,
			UserID:    userID,
		}, nil)
	}

	p := &Principal{
		UserID:          userID,
		Role:            role,
		EncryptedUserID: claims.UserID,
		EncryptedRole:   claims.Role,
		TokenID:         claims.ID,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}

	e.metricInc(MetricAuthSuccess)
	return p, nil
}

func (e *Engine) authFailure(ctx context.Context, userID string) error {
	e.metricInc(MetricAuthFailure)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventAuthFailure,
		UserID:    userID,
	}, ErrInvalidToken)
	return ErrInvalidToken
}

// Authorize checks p against the allowed roles. An empty required list admits
// any principal with a known role. A nil principal is ErrUnauthorized.
func (e *Engine) Authorize(p *Principal, required ...Role) error {
	return e.AuthorizeContext(context.Background(), p, required...)
}

// AuthorizeContext is Authorize with a request context for audit events.
func (e *Engine) AuthorizeContext(ctx context.Context, p *Principal, required ...Role) error {
	if p == nil {
		return ErrUnauthorized
	}

	err := authorize(p.Role, required)
	if err != nil {
		e.metricInc(MetricForbidden)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventForbidden,
			UserID:    p.UserID,
			Role:      p.Role.String(),
		}, err)
	}
	return err
}

func authorize(role Role, required []Role) error {
	if !role.Valid() {
		return ErrForbidden
	}
	if len(required) == 0 {
		return nil
	}
	for _, r := range required {
		if r == role {
			return nil
		}
	}
	return ErrForbidden
}

/*
====================================
PASSWORDS
====================================
*/

// HashPassword hashes plaintext for storage. It waits for a free hashing slot
// and returns ctx.Err() if ctx ends first.
func (e *Engine) HashPassword(ctx context.Context, plaintext string) (string, error) {
	if e == nil || e.passwordHash == nil {
		return "", ErrEngineNotReady
	}
	if err := e.hashGate.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer e.hashGate.Release(1)

	hash, err := e.passwordHash.Hash(plaintext)
	if err != nil {
		return "", err
	}
	e.metricInc(MetricPasswordHashed)
	return hash, nil
}

// VerifyPassword reports whether plaintext matches encoded. The error is non-nil
// only when ctx ends before a hashing slot frees up; malformed hashes are a
// plain mismatch.
func (e *Engine) VerifyPassword(ctx context.Context, plaintext, encoded string) (bool, error) {
	if e == nil || e.passwordHash == nil {
		return false, ErrEngineNotReady
	}
	if err := e.hashGate.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer e.hashGate.Release(1)

	ok := e.passwordHash.Verify(plaintext, encoded)
	if ok {
		e.metricInc(MetricPasswordVerifySuccess)
	} else {
		e.metricInc(MetricPasswordVerifyFailure)
	}
	return ok, nil
}

// NeedsRehash reports whether encoded was produced with fewer iterations than
// currently configured.
func (e *Engine) NeedsRehash(encoded string) bool {
	if e == nil || e.passwordHash == nil {
		return false
	}
	return e.passwordHash.NeedsUpgrade(encoded)
}

/*
====================================
LOGIN
====================================
*/

// Login resolves in.Identifier through lookup, verifies the password and issues
// an access token. Unknown identifiers and wrong passwords both return
// ErrInvalidCredentials after comparable work.
func (e *Engine) Login(ctx context.Context, in LoginInput, lookup CredentialLookup) (*LoginResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if lookup == nil {
		return nil, errors.New("credential lookup required")
	}

	cred, found, err := lookup.LookupCredential(ctx, in.Identifier)
	if err != nil {
		return nil, fmt.Errorf("lookup credential: %w", err)
	}

	stored := cred.PasswordHash
	if !found {
		stored = e.dummyHash
	}

	ok, err := e.VerifyPassword(ctx, in.Password, stored)
	if err != nil {
		return nil, err
	}
	if !found || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditEvent{
			EventType: auditEventLoginFailure,
			UserID:    cred.UserID,
		}, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	token, err := e.IssueToken(ctx, cred.UserID, cred.Role)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditEvent{
		EventType: auditEventLoginSuccess,
		UserID:    cred.UserID,
		Role:      cred.Role.String(),
		Success:   true,
	}, nil)

	return &LoginResult{
		AccessToken: token,
		ExpiresIn:   e.jwtManager.TTL(),
		UserID:      cred.UserID,
		Role:        cred.Role,
		NeedsRehash: e.passwordHash.NeedsUpgrade(cred.PasswordHash),
	}, nil
}
