package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

var defaultKeyNames = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// loadSSHSigner parses the private key at keyPath, or the first default key
// under ~/.ssh when keyPath is empty. Passphrase-protected keys are refused.
func loadSSHSigner(keyPath string) (ssh.Signer, string, error) {
	path, err := signingKeyPath(keyPath)
	if err != nil {
		return nil, "", err
	}

	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read signing key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(pem)
	var missing *ssh.PassphraseMissingError
	switch {
	case errors.As(err, &missing):
		return nil, "", fmt.Errorf("signing key %s is passphrase protected", path)
	case err != nil:
		return nil, "", fmt.Errorf("parse signing key %s: %w", path, err)
	}
	return signer, path, nil
}

func signingKeyPath(keyPath string) (string, error) {
	keyPath = strings.TrimSpace(keyPath)
	home, homeErr := os.UserHomeDir()

	if keyPath != "" {
		if rest, ok := strings.CutPrefix(keyPath, "~/"); ok {
			if homeErr != nil {
				return "", fmt.Errorf("expand %s: %w", keyPath, homeErr)
			}
			keyPath = filepath.Join(home, rest)
		}
		return filepath.Abs(keyPath)
	}

	if homeErr != nil {
		return "", fmt.Errorf("find default signing key: %w", homeErr)
	}
	for _, name := range defaultKeyNames {
		candidate := filepath.Join(home, ".ssh", name)
		if st, err := os.Stat(candidate); err == nil && st.Mode().IsRegular() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no signing key given and none of %s found in ~/.ssh", strings.Join(defaultKeyNames, ", "))
}
