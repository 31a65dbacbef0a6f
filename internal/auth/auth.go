package auth

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	credentialDir  = ".photo-uploader"
	credentialFile = "credentials.gpg"

	// PasswordEnvVar overrides every other password source.
	PasswordEnvVar = "PHOTO_UPLOADER_PASSWORD"
)

// SecretLoader fetches a secret by name from a remote parameter store.
type SecretLoader func(ctx context.Context, name string) (string, error)

// Identity is the account used against the album service.
type Identity struct {
	Username string
	Password string
}

// PasswordSources lists the places ResolvePassword may look.
type PasswordSources struct {
	// Configured is the password from the config file, if any.
	Configured string
	// SSMParam names an SSM parameter holding the password.
	SSMParam string
	// LoadSecret reads SSMParam. Nil disables the SSM step.
	LoadSecret SecretLoader
	// SkipGPG disables the GPG file step.
	SkipGPG bool
}

// ResolvePassword retrieves the account password from available sources.
// Priority order:
//  1. PHOTO_UPLOADER_PASSWORD environment variable
//  2. password in the config file
//  3. SSM Parameter Store (password_ssm_param)
//  4. GPG-encrypted file at ~/.photo-uploader/credentials.gpg
//
// An empty result is not an error; the upload pipeline reports a missing
// password as a configuration failure.
func ResolvePassword(ctx context.Context, src PasswordSources) string {
	if pw := os.Getenv(PasswordEnvVar); pw != "" {
		log.Debug().Msg("Using password from environment variable")
		return pw
	}

	if src.Configured != "" {
		log.Debug().Msg("Using password from config file")
		return src.Configured
	}

	if src.SSMParam != "" && src.LoadSecret != nil {
		pw, err := src.LoadSecret(ctx, src.SSMParam)
		if err == nil && pw != "" {
			log.Debug().Str("param", src.SSMParam).Msg("Using password from SSM")
			return pw
		}
		log.Warn().Err(err).Str("param", src.SSMParam).Msg("Failed to read password from SSM")
	}

	if src.SkipGPG {
		return ""
	}

	pw, err := getFromGPG()
	if err == nil && pw != "" {
		log.Debug().Msg("Using password from GPG encrypted file")
		return pw
	}

	log.Debug().Err(err).Msg("No password source available")
	return ""
}

// getFromGPG decrypts the password from the GPG-encrypted credentials file.
func getFromGPG() (string, error) {
	credPath, err := getCredentialPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(credPath); os.IsNotExist(err) {
		return "", fmt.Errorf("GPG credentials file not found at %s", credPath)
	}

	log.Debug().Str("file", credPath).Msg("Decrypting GPG credentials")

	args := []string{"--decrypt", "--quiet"}

	if passphrasePath, err := getPassphrasePath(); err == nil {
		fi, statErr := os.Stat(passphrasePath)
		if statErr == nil {
			mode := fi.Mode().Perm()
			if mode&0077 != 0 {
				log.Warn().
					Str("passphrase_file", passphrasePath).
					Str("permissions", fmt.Sprintf("%04o", mode)).
					Msg("Passphrase file has insecure permissions (should be 0600); skipping")
			} else {
				args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", passphrasePath)
			}
		}
	}

	args = append(args, credPath)
	output, err := exec.Command("gpg", args...).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("GPG decryption failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("GPG decryption failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// getCredentialPath returns the full path to the credentials file.
func getCredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, credentialFile), nil
}

// getPassphrasePath returns the passphrase file next to the credentials file.
func getPassphrasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, ".gpg-passphrase"), nil
}
