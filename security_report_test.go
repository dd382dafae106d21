package gateAuth

import (
	"testing"
	"time"
)

func TestSecurityReportReflectsConfig(t *testing.T) {
	e := newTestEngine(t, func(c *Config) {
		c.Token.Issuer = "gateauth"
		c.AdminPathGuard.Enabled = true
	})

	r := e.SecurityReport()
	if r.SigningAlgorithm != "HS256" || r.ClaimCipher != "AES-256-GCM" {
		t.Fatalf("unexpected algorithms %+v", r)
	}
	if r.AccessTTL != time.Hour || !r.IssuerBound || r.AudienceBound {
		t.Fatalf("unexpected token posture %+v", r)
	}
	if !r.RateLimit.Active || r.RateLimit.LoginPaths != 1 {
		t.Fatalf("unexpected rate posture %+v", r.RateLimit)
	}
	if !r.PasswordBelowFloor {
		t.Fatal("expected 1000 iterations flagged below floor")
	}
	if !r.AdminPathGuard {
		t.Fatal("expected admin path guard reported")
	}
}

func TestSecurityReportNilEngine(t *testing.T) {
	var e *Engine
	if r := e.SecurityReport(); r.SigningAlgorithm != "" {
		t.Fatal("expected zero report from nil engine")
	}
}
