package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/systmms/accountsync/internal/config"
	syncerrors "github.com/systmms/accountsync/internal/errors"
	"github.com/systmms/accountsync/internal/secure"
	"github.com/systmms/accountsync/internal/vault"
	"github.com/zalando/go-keyring"
)

// keyringService identifies accountsync entries in the OS keyring.
const keyringService = "accountsync"

// Environment variables consulted before the keyring.
const (
	envPassword = "ACCOUNTSYNC_PASSWORD"
	envToken    = "ACCOUNTSYNC_SESSION_TOKEN"
)

// buildClient assembles the vault client from the loaded configuration.
// The logon credential is resolved in order: external session token,
// ACCOUNTSYNC_PASSWORD, OS keyring entry for the configured user.
func buildClient(cfg *config.Config) (*vault.Client, *secure.Buffer, error) {
	def := cfg.Definition

	clientCfg := vault.Config{
		URL:               def.Vault.URL,
		AuthMethod:        def.AuthMethod(),
		Username:          def.Vault.Username,
		ConcurrentSession: def.Vault.ConcurrentSession,
		TLSSkipVerify:     def.Vault.TLSSkipVerify,
		CACert:            def.Vault.CACert,
		Timeout:           def.Vault.VaultTimeout(),
	}

	var password *secure.Buffer
	if token := os.Getenv(envToken); token != "" {
		clientCfg.ExternalToken = token
	} else {
		buf, err := resolvePassword(def.Vault.Username)
		if err != nil {
			return nil, nil, err
		}
		password = buf
	}

	client, err := vault.New(clientCfg, password)
	if err != nil {
		if password != nil {
			password.Destroy()
		}
		return nil, nil, err
	}
	return client, password, nil
}

func resolvePassword(username string) (*secure.Buffer, error) {
	if pw := os.Getenv(envPassword); pw != "" {
		return secure.NewBuffer([]byte(pw)), nil
	}

	if username == "" {
		return nil, syncerrors.ConfigError{
			Field:      "vault.username",
			Message:    "no username configured and no session token supplied",
			Suggestion: "Set 'vault.username' in accountsync.yaml or export " + envToken,
		}
	}

	secret, err := keyring.Get(keyringService, username)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, syncerrors.UserError{
				Message:    fmt.Sprintf("No stored credential for user '%s'", username),
				Suggestion: "Run 'accountsync login' to store the vault password, or export " + envPassword,
			}
		}
		return nil, syncerrors.UserError{
			Message:    "Failed to read the OS keyring",
			Details:    err.Error(),
			Suggestion: "Export " + envPassword + " if no keyring is available in this environment",
			Err:        err,
		}
	}
	return secure.NewBuffer([]byte(secret)), nil
}
