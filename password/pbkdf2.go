package password

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations matches the cost used by the hashes already stored for existing accounts.
	DefaultIterations = 150000
	// DefaultSaltLength is the random salt size in bytes.
	DefaultSaltLength = 16
	// KeyLength is the derived key size. Stored hashes with any other length never verify.
	KeyLength = 64

	minIterations = 1000
	// maxIterations bounds the work a hostile stored value can request.
	maxIterations = 10_000_000
	minSaltLength = 16
	segmentCount  = 3

	defaultMaxPasswordBytes = 1024
)

var (
	// ErrPasswordTooLong is returned by Hash when the input exceeds MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
	// ErrPasswordTooShort is returned by Hash when the input is shorter than MinPasswordBytes.
	ErrPasswordTooShort = errors.New("password below minimum length")

	errHashFormat = errors.New("malformed password hash")
)

// Config holds hashing parameters. Zero values are replaced by defaults in NewPBKDF2.
type Config struct {
	Iterations       int
	SaltLength       int
	MinPasswordBytes int
	MaxPasswordBytes int
}

// PBKDF2 hashes and verifies passwords. Safe for concurrent use.
type PBKDF2 struct {
	config Config
	// dummySalt feeds the equal-work derivation run for unparsable hashes.
	dummySalt []byte
}

type parsedHash struct {
	iterations int
	salt       []byte
	derived    []byte
}

// DefaultConfig returns the production parameters.
func DefaultConfig() Config {
	return Config{
		Iterations:       DefaultIterations,
		SaltLength:       DefaultSaltLength,
		MaxPasswordBytes: defaultMaxPasswordBytes,
	}
}

// NewPBKDF2 validates cfg and returns a hasher.
func NewPBKDF2(cfg Config) (*PBKDF2, error) {
	if cfg.Iterations == 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.SaltLength == 0 {
		cfg.SaltLength = DefaultSaltLength
	}
	if cfg.MaxPasswordBytes == 0 {
		cfg.MaxPasswordBytes = defaultMaxPasswordBytes
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	dummy := make([]byte, cfg.SaltLength)
	if _, err := io.ReadFull(rand.Reader, dummy); err != nil {
		return nil, err
	}

	return &PBKDF2{config: cfg, dummySalt: dummy}, nil
}

// Iterations returns the configured cost for new hashes.
func (p *PBKDF2) Iterations() int {
	return p.config.Iterations
}

// Hash derives a new hash with the configured iteration count.
func (p *PBKDF2) Hash(password string) (string, error) {
	return p.HashWithIterations(password, p.config.Iterations)
}

// HashWithIterations derives a new hash with an explicit iteration count.
func (p *PBKDF2) HashWithIterations(password string, iterations int) (string, error) {
	if len(password) > p.config.MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	if len(password) < p.config.MinPasswordBytes {
		return "", ErrPasswordTooShort
	}
	if iterations < minIterations || iterations > maxIterations {
		return "", fmt.Errorf("iterations must be between %d and %d", minIterations, maxIterations)
	}

	salt := make([]byte, p.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	derived := pbkdf2.Key([]byte(password), salt, iterations, KeyLength, sha512.New)

	return strconv.Itoa(iterations) + "." +
		base64.StdEncoding.EncodeToString(salt) + "." +
		base64.StdEncoding.EncodeToString(derived), nil
}

// Verify reports whether password matches encoded. It never fails loudly: any parse,
// decode or length problem is a non-match.
func (p *PBKDF2) Verify(password string, encoded string) bool {
	if len(password) > p.config.MaxPasswordBytes {
		p.burn(password)
		return false
	}

	parsed, err := parseHash(encoded)
	if err != nil {
		p.burn(password)
		return false
	}

	computed := pbkdf2.Key([]byte(password), parsed.salt, parsed.iterations, len(parsed.derived), sha512.New)
	return subtle.ConstantTimeCompare(computed, parsed.derived) == 1
}

// NeedsUpgrade reports whether encoded was produced with fewer iterations than configured.
// Unparsable hashes report false.
func (p *PBKDF2) NeedsUpgrade(encoded string) bool {
	parsed, err := parseHash(encoded)
	if err != nil {
		return false
	}
	return parsed.iterations < p.config.Iterations
}

// burn spends roughly one verification worth of CPU so rejected input is not faster than
// a wrong password.
func (p *PBKDF2) burn(password string) {
	_ = pbkdf2.Key([]byte(password), p.dummySalt, p.config.Iterations, KeyLength, sha512.New)
}

func parseHash(encoded string) (*parsedHash, error) {
	parts := strings.Split(encoded, ".")
	if len(parts) != segmentCount {
		return nil, errHashFormat
	}

	iterations, err := strconv.Atoi(parts[0])
	if err != nil || iterations <= 0 || iterations > maxIterations {
		return nil, errHashFormat
	}

	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return nil, errHashFormat
	}

	derived, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil || len(derived) != KeyLength {
		return nil, errHashFormat
	}

	return &parsedHash{
		iterations: iterations,
		salt:       salt,
		derived:    derived,
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.Iterations < minIterations {
		return fmt.Errorf("password iterations must be >= %d", minIterations)
	}
	if cfg.Iterations > maxIterations {
		return fmt.Errorf("password iterations must be <= %d", maxIterations)
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if cfg.MinPasswordBytes < 0 {
		return errors.New("password minimum length must be >= 0")
	}
	if cfg.MaxPasswordBytes < cfg.MinPasswordBytes {
		return errors.New("password maximum length must be >= minimum length")
	}
	return nil
}
