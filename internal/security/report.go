package security

import "time"

// Recommended floor for PBKDF2-HMAC-SHA512 iterations.
const RecommendedPBKDF2Iterations = 150000

type PasswordReport struct {
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

type Report struct {
	SigningAlgorithm   string
	ClaimCipher        string
	AccessTTL          time.Duration
	IssuerBound        bool
	AudienceBound      bool
	Password           PasswordReport
	PasswordBelowFloor bool
	RateLimit          RateLimitReport
	AuditEnabled       bool
	AdminPathGuard     bool
	Warnings           []string
}

type ReportInput struct {
	SigningAlgorithm string
	ClaimCipher      string
	AccessTTL        time.Duration
	Issuer           string
	Audience         string
	Password         PasswordReport
	RateLimit        RateLimitReport
	AuditEnabled     bool
	AdminPathGuard   bool
}

// BuildReport summarizes the security posture of a configuration. Warnings list
// settings an operator should review; they never block startup.
func BuildReport(input ReportInput) Report {
	var warnings []string

	belowFloor := input.Password.Iterations < RecommendedPBKDF2Iterations
	if belowFloor {
		warnings = append(warnings, "password iterations below recommended floor")
	}
	if input.AccessTTL > 24*time.Hour {
		warnings = append(warnings, "access token TTL exceeds 24h")
	}
	if !input.RateLimit.Active {
		warnings = append(warnings, "rate limiting disabled")
	} else if input.RateLimit.LoginPaths == 0 {
		warnings = append(warnings, "no login paths are IP throttled")
	}
	if input.RateLimit.TrustProxy {
		warnings = append(warnings, "client address taken from forwarding headers")
	}

	return Report{
		SigningAlgorithm:   input.SigningAlgorithm,
		ClaimCipher:        input.ClaimCipher,
		AccessTTL:          input.AccessTTL,
		IssuerBound:        input.Issuer != "",
		AudienceBound:      input.Audience != "",
		Password:           input.Password,
		PasswordBelowFloor: belowFloor,
		RateLimit:          input.RateLimit,
		AuditEnabled:       input.AuditEnabled,
		AdminPathGuard:     input.AdminPathGuard,
		Warnings:           warnings,
	}
}
