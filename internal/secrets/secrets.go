// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API credentials from a directory of plain-text files
// and resolves the Naver client tokens from environment, config, and files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value.
//
// Supported key files: naver-client-id, naver-client-secret.
package secrets

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/shoprank/pkg/types"
)

const (
	KeyClientID     = "naver-client-id"
	KeyClientSecret = "naver-client-secret"

	EnvClientID     = "NAVER_CLIENT_ID"
	EnvClientSecret = "NAVER_CLIENT_SECRET"
)

// ErrMissingCredentials is returned when no source supplies both tokens.
var ErrMissingCredentials = errors.New("naver API credentials not found")

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *slog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", slog.String("name", name), slog.Any("error", err))
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Resolve picks the client tokens in priority order: environment variables
// (looked up through getenv), then the explicit configured values, then
// the loaded secret files. Each token is resolved independently.
func Resolve(getenv func(string) string, configured types.Credentials, files map[string]string) (types.Credentials, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	creds := types.Credentials{
		ClientID:     first(getenv(EnvClientID), configured.ClientID, files[KeyClientID]),
		ClientSecret: first(getenv(EnvClientSecret), configured.ClientSecret, files[KeyClientSecret]),
	}
	if !creds.IsComplete() {
		var missing []string
		if creds.ClientID == "" {
			missing = append(missing, EnvClientID)
		}
		if creds.ClientSecret == "" {
			missing = append(missing, EnvClientSecret)
		}
		return creds, fmt.Errorf("%w: set %s or add files under .secrets/", ErrMissingCredentials, strings.Join(missing, " and "))
	}
	return creds, nil
}

func first(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
