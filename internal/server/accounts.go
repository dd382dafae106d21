package server

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	gateAuth "github.com/MrEthical07/gateAuth"
)

var errAccountExists = errors.New("account already exists")

// AccountStore is an in-memory gateAuth.CredentialLookup keyed by
// lower-cased identifier.
type AccountStore struct {
	mu     sync.RWMutex
	byID   map[string]gateAuth.Credential
	nextID int64
}

func NewAccountStore() *AccountStore {
	return &AccountStore{byID: make(map[string]gateAuth.Credential)}
}

// Register hashes password through engine and stores the account. The
// returned user ID is numeric like the IDs sealed into tokens.
func (s *AccountStore) Register(ctx context.Context, engine *gateAuth.Engine, identifier, password string, role gateAuth.Role) (string, error) {
	key := normalizeIdentifier(identifier)
	if key == "" {
		return "", errors.New("identifier required")
	}

	hash, err := engine.HashPassword(ctx, password)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[key]; ok {
		return "", errAccountExists
	}
	s.nextID++
	userID := strconv.FormatInt(s.nextID, 10)
	s.byID[key] = gateAuth.Credential{UserID: userID, Role: role, PasswordHash: hash}
	return userID, nil
}

// Rehash replaces the stored hash for identifier.
func (s *AccountStore) Rehash(identifier, hash string) {
	key := normalizeIdentifier(identifier)
	s.mu.Lock()
	defer s.mu.Unlock()
	if cred, ok := s.byID[key]; ok {
		cred.PasswordHash = hash
		s.byID[key] = cred
	}
}

func (s *AccountStore) LookupCredential(_ context.Context, identifier string) (gateAuth.Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.byID[normalizeIdentifier(identifier)]
	return cred, ok, nil
}

func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func normalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
