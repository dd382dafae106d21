package claimcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

const (
	// KeySize is the required AES-256 key length in bytes.
	KeySize = 32
	// NonceSize is the GCM nonce length prepended to every sealed value.
	NonceSize = 12
	// TagSize is the GCM authentication tag length.
	TagSize = 16

	minSealedSize = NonceSize + TagSize
)

var (
	// ErrInvalidKey is returned when the key material is not exactly 32 bytes.
	ErrInvalidKey = errors.New("claim key must be 32 bytes")
	// ErrDecryption is the only error Decrypt returns. Malformed encoding, short input and
	// tag mismatch are deliberately indistinguishable.
	ErrDecryption = errors.New("claim decryption failed")
)

// Cipher seals and opens claim values. It is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

// New builds a Cipher from raw key bytes.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: aead, rand: rand.Reader}, nil
}

// NewFromBase64 decodes secret (standard or URL alphabet, padded or not) and builds a Cipher.
func NewFromBase64(secret string) (*Cipher, error) {
	key, err := DecodeKey(secret)
	if err != nil {
		return nil, err
	}
	return New(key)
}

// DecodeKey decodes a base64 key and checks its length.
func DecodeKey(secret string) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrInvalidKey
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		key, err := enc.DecodeString(secret)
		if err != nil {
			continue
		}
		if len(key) != KeySize {
			return nil, ErrInvalidKey
		}
		return key, nil
	}

	return nil, errors.New("claim key is not valid base64")
}

// GenerateKey returns 32 random bytes suitable for [New].
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", err
	}

	// Seal appends ciphertext|tag; the wire layout puts the tag first.
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ctLen := len(sealed) - TagSize

	out := make([]byte, 0, NonceSize+len(sealed))
	out = append(out, nonce...)
	out = append(out, sealed[ctLen:]...)
	out = append(out, sealed[:ctLen]...)

	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *Cipher) Decrypt(token string) (string, error) {
	data, err := decodeSealed(token)
	if err != nil || len(data) < minSealedSize {
		return "", ErrDecryption
	}

	nonce := data[:NonceSize]
	tag := data[NonceSize:minSealedSize]
	ciphertext := data[minSealedSize:]

	buf := make([]byte, 0, len(ciphertext)+TagSize)
	buf = append(buf, ciphertext...)
	buf = append(buf, tag...)

	plain, err := c.aead.Open(buf[:0], nonce, buf, nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(plain), nil
}

// decodeSealed accepts the canonical unpadded form and tolerates trailing padding, which
// some clients append when re-encoding.
func decodeSealed(token string) ([]byte, error) {
	token = strings.TrimRight(token, "=")
	return base64.RawURLEncoding.DecodeString(token)
}
