package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/zalando/go-keyring"
)

// KeyringService groups the job agent's secrets in the OS keychain
const KeyringService = "job-agent"

// KeyringAccount names the keychain entry holding the site password for email
func KeyringAccount(email string) string {
	return "linkedin:" + strings.ToLower(strings.TrimSpace(email))
}

// ResolvePassword fills LinkedInPassword from the keychain when neither the
// environment nor a flag provided one. A missing entry is not an error;
// the login step is skipped later.
func (c *Config) ResolvePassword() error {
	if c.LinkedInPassword != "" || strings.TrimSpace(c.LinkedInEmail) == "" {
		return nil
	}

	pw, err := keyring.Get(KeyringService, KeyringAccount(c.LinkedInEmail))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read password from keychain")
	}
	c.LinkedInPassword = pw
	return nil
}

// SetPassword stores the site password for email in the keychain
func SetPassword(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, KeyringAccount(email), password)
}

// DeletePassword removes the stored site password for email
func DeletePassword(email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email is empty")
	}
	return keyring.Delete(KeyringService, KeyringAccount(email))
}
