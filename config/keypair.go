// keypair.go — optional key-pair auth material.
//
// Snowflake key-pair auth wants an *rsa.PrivateKey; the key file on disk is
// PEM (PKCS#1 or PKCS#8, optionally OpenSSH-wrapped). x/crypto/ssh parses
// all of those shapes, so we lean on it instead of decoding PEM by hand.
package config

import (
	"crypto/rsa"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// PrivateKey loads and parses the configured private key file.
// Returns (nil, nil) when no key is configured.
func (c Config) PrivateKey() (*rsa.PrivateKey, error) {
	if c.PrivateKeyPath == "" {
		return nil, nil
	}

	pemBytes, err := os.ReadFile(c.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	raw, err := ssh.ParseRawPrivateKey(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", c.PrivateKeyPath, err)
	}

	rsaKey, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key %s: want RSA, got %T", c.PrivateKeyPath, raw)
	}
	return rsaKey, nil
}
