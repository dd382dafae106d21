package gateAuth

import (
	"time"

	"github.com/MrEthical07/gateAuth/internal/security"
)

// SecurityReport summarizes the engine's effective security posture.
type SecurityReport struct {
	SigningAlgorithm   string
	ClaimCipher        string
	AccessTTL          time.Duration
	IssuerBound        bool
	AudienceBound      bool
	Password           PasswordConfigReport
	PasswordBelowFloor bool
	RateLimit          RateLimitReport
	AuditEnabled       bool
	AdminPathGuard     bool
	Warnings           []string
}

type PasswordConfigReport struct {
	Algorithm  string
	Iterations int
	SaltLength int
	KeyLength  int
}

type RateLimitReport struct {
	Active      bool
	MaxRequests int
	Window      time.Duration
	TrustProxy  bool
	LoginPaths  int
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	r := security.BuildReport(security.ReportInput{
		SigningAlgorithm: "HS256",
		ClaimCipher:      "AES-256-GCM",
		AccessTTL:        e.config.Token.AccessTTL,
		Issuer:           e.config.Token.Issuer,
		Audience:         e.config.Token.Audience,
		Password: security.PasswordReport{
			Algorithm:  "PBKDF2-HMAC-SHA512",
			Iterations: e.config.Password.Iterations,
			SaltLength: e.config.Password.SaltLength,
			KeyLength:  64,
		},
		RateLimit: security.RateLimitReport{
			Active:      e.rateLimiter != nil,
			MaxRequests: e.config.RateLimit.MaxRequests,
			Window:      e.config.RateLimit.Window,
			TrustProxy:  e.config.RateLimit.TrustProxy,
			LoginPaths:  len(e.loginPaths),
		},
		AuditEnabled:   e.audit != nil,
		AdminPathGuard: e.config.AdminPathGuard.Enabled,
	})

	return SecurityReport{
		SigningAlgorithm:   r.SigningAlgorithm,
		ClaimCipher:        r.ClaimCipher,
		AccessTTL:          r.AccessTTL,
		IssuerBound:        r.IssuerBound,
		AudienceBound:      r.AudienceBound,
		Password:           PasswordConfigReport(r.Password),
		PasswordBelowFloor: r.PasswordBelowFloor,
		RateLimit:          RateLimitReport(r.RateLimit),
		AuditEnabled:       r.AuditEnabled,
		AdminPathGuard:     r.AdminPathGuard,
		Warnings:           r.Warnings,
	}
}
