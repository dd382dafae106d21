package main

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/MrEthical07/gateAuth/claimcrypt"
	"github.com/MrEthical07/gateAuth/password"
)

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	i := 0
	readPassword = func(int) ([]byte, error) {
		a := answers[i]
		i++
		return []byte(a), nil
	}
	t.Cleanup(func() { readPassword = orig })
}

func TestPrintKeys(t *testing.T) {
	var out bytes.Buffer
	if err := run(nil, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", out.String())
	}
	key, ok := strings.CutPrefix(lines[0], "ENCRYPTION_SECRET=")
	if !ok {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if _, err := claimcrypt.NewFromBase64(key); err != nil {
		t.Fatalf("generated claim key unusable: %v", err)
	}
	secret, ok := strings.CutPrefix(lines[1], "JWT_ACCESS_SECRET=")
	if !ok {
		t.Fatalf("unexpected second line %q", lines[1])
	}
	raw, err := base64.RawURLEncoding.DecodeString(secret)
	if err != nil || len(raw) != jwtSecretBytes {
		t.Fatalf("unexpected jwt secret %q", secret)
	}
}

func TestHashPrompt(t *testing.T) {
	stubPasswords(t, "hunter2-hunter2", "hunter2-hunter2")

	var out, prompt bytes.Buffer
	if err := run([]string{"-iterations", "1000", "hash"}, &out, &prompt); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	hasher, err := password.NewPBKDF2(password.Config{Iterations: 1000})
	if err != nil {
		t.Fatalf("NewPBKDF2 failed: %v", err)
	}
	hash := strings.TrimSpace(out.String())
	if !strings.HasPrefix(hash, "1000.") || !hasher.Verify("hunter2-hunter2", hash) {
		t.Fatalf("unexpected hash %q", hash)
	}
	if !strings.Contains(prompt.String(), "Repeat password: ") {
		t.Fatalf("expected prompts on stderr writer, got %q", prompt.String())
	}
}

func TestHashPromptMismatch(t *testing.T) {
	stubPasswords(t, "first-password", "second-password")

	err := run([]string{"-iterations", "1000", "hash"}, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "do not match") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	if err := run([]string{"frobnicate"}, &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
