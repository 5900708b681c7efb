// Package bootstrap prepares the process before it starts serving: it resolves the
// Google service-account credentials and verifies the external dependencies.
package bootstrap

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/intake/internal/config"
	"github.com/aretw0/intake/pkg/domain"
)

// SourceEnv marks credentials read from GOOGLE_CREDENTIALS_BASE64.
const SourceEnv = "env"

type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
}

// ResolveCredentials returns the credential bundle. The base64 environment value
// wins over the key file; the file is only read when the variable is unset.
func ResolveCredentials(cfg *config.Config) (*domain.CredentialBundle, error) {
	if encoded := strings.TrimSpace(cfg.CredentialsBase64); encoded != "" {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("GOOGLE_CREDENTIALS_BASE64 is not valid base64: %w", err)
		}
		return parseBundle(raw, SourceEnv)
	}

	if cfg.CredentialsFile == "" {
		return nil, domain.ErrMissingCredentials
	}
	raw, err := os.ReadFile(cfg.CredentialsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: neither GOOGLE_CREDENTIALS_BASE64 nor %s", domain.ErrMissingCredentials, cfg.CredentialsFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return parseBundle(raw, cfg.CredentialsFile)
}

func parseBundle(raw []byte, source string) (*domain.CredentialBundle, error) {
	var sa serviceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("credentials from %s are not valid JSON: %w", source, err)
	}
	if sa.Type != "" && sa.Type != "service_account" {
		return nil, fmt.Errorf("credentials from %s are of type %q, want service_account", source, sa.Type)
	}
	return &domain.CredentialBundle{
		JSON:        raw,
		Source:      source,
		ProjectID:   sa.ProjectID,
		ClientEmail: sa.ClientEmail,
	}, nil
}
