package gateAuth

import (
	"context"
	"strconv"
	"time"
)

// Principal is the authenticated caller decoded from an access token.
//
// UserID is the opened user claim. EncryptedUserID and EncryptedRole are the
// sealed values as they appear in the token.
type Principal struct {
	UserID          string
	Role            Role
	EncryptedUserID string
	EncryptedRole   string
	TokenID         string
	IssuedAt        time.Time
	ExpiresAt       time.Time
}

// NumericUserID parses UserID as a base-10 integer. Services with numeric
// primary keys call this lazily instead of parsing in every handler.
func (p *Principal) NumericUserID() (int64, error) {
	if p == nil {
		return 0, ErrUnauthorized
	}
	return strconv.ParseInt(p.UserID, 10, 64)
}

// RateDecision is the result of Engine.CheckRequest.
//
// Throttled is false when the request matched no limiter key; in that case the
// remaining fields are zero and Allowed is true.
type RateDecision struct {
	Allowed    bool
	Throttled  bool
	KeyKind    string
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// LoginInput carries the credentials submitted to Engine.Login.
type LoginInput struct {
	Identifier string
	Password   string
}

// Credential is the stored account record returned by a CredentialLookup.
type Credential struct {
	UserID       string
	Role         Role
	PasswordHash string
}

// CredentialLookup resolves an identifier to its stored credential. It returns
// found=false for unknown identifiers and a non-nil error only for backend failures.
type CredentialLookup interface {
	LookupCredential(ctx context.Context, identifier string) (Credential, bool, error)
}

// CredentialLookupFunc adapts a function to CredentialLookup.
type CredentialLookupFunc func(ctx context.Context, identifier string) (Credential, bool, error)

func (f CredentialLookupFunc) LookupCredential(ctx context.Context, identifier string) (Credential, bool, error) {
	return f(ctx, identifier)
}

// LoginResult is returned by a successful Engine.Login.
type LoginResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	UserID      string
	Role        Role
	NeedsRehash bool
}
