// Command gateauth-keygen prints fresh secrets for a gateAuth deployment or
// hashes a password typed at the terminal.
//
//	gateauth-keygen            # ENCRYPTION_SECRET and JWT_ACCESS_SECRET lines
//	gateauth-keygen hash       # prompt for a password, print its PBKDF2 hash
package main

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/MrEthical07/gateAuth/claimcrypt"
	"github.com/MrEthical07/gateAuth/password"
	"golang.org/x/term"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

const jwtSecretBytes = 48

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "gateauth-keygen: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("gateauth-keygen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	iterations := fs.Int("iterations", password.DefaultConfig().Iterations, "PBKDF2 iterations for hash")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch fs.Arg(0) {
	case "", "keys":
		return printKeys(stdout)
	case "hash":
		return hashPrompt(stdout, stderr, *iterations)
	default:
		return fmt.Errorf("unknown command %q", fs.Arg(0))
	}
}

func printKeys(w io.Writer) error {
	key, err := claimcrypt.GenerateKey()
	if err != nil {
		return err
	}
	secret := make([]byte, jwtSecretBytes)
	if _, err := rand.Read(secret); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "ENCRYPTION_SECRET=%s\nJWT_ACCESS_SECRET=%s\n",
		base64.StdEncoding.EncodeToString(key),
		base64.RawURLEncoding.EncodeToString(secret),
	)
	return err
}

func hashPrompt(stdout, prompt io.Writer, iterations int) error {
	cfg := password.DefaultConfig()
	cfg.Iterations = iterations
	hasher, err := password.NewPBKDF2(cfg)
	if err != nil {
		return err
	}

	first, err := promptPassword(prompt, "Enter password: ")
	if err != nil {
		return err
	}
	defer wipe(first)
	second, err := promptPassword(prompt, "Repeat password: ")
	if err != nil {
		return err
	}
	defer wipe(second)

	if !bytes.Equal(first, second) {
		return errors.New("passwords do not match")
	}

	hash, err := hasher.Hash(string(first))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}

func promptPassword(w io.Writer, label string) ([]byte, error) {
	if _, err := fmt.Fprint(w, label); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
