// Package secrets resolves credentials such as embedding API keys.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when no source yields a non-empty secret.
var ErrNotConfigured = errors.New("secret is not configured")

// Source lists the places a secret may come from, in order of precedence:
// File, Value, then the first non-empty variable in Env.
type Source struct {
	// Name is used in error messages, e.g. "gemini api key".
	Name  string
	Value string
	File  string
	Env   []string
}

var lookupEnv = os.LookupEnv

// Load returns the trimmed secret. A configured but unreadable or empty file
// is an error even when other sources are set.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%w: %s file %q is empty", ErrNotConfigured, name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	for _, key := range src.Env {
		if v, ok := lookupEnv(key); ok {
			if secret := strings.TrimSpace(v); secret != "" {
				return secret, nil
			}
		}
	}

	if len(src.Env) > 0 {
		return "", fmt.Errorf("%w: %s (checked %s)", ErrNotConfigured, name, strings.Join(src.Env, ", "))
	}
	return "", fmt.Errorf("%w: %s", ErrNotConfigured, name)
}
