// Package identity persists a unique client identifier for this
// installation.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const clientIDFile = "client_id.txt"

// ClientID returns the persisted client identifier under dir, generating and
// persisting a new one on first use. Identifiers are UUIDv7, so they sort by
// creation time and stay unique across installations.
func ClientID(dir string) (string, error) {
	path := filepath.Join(dir, clientIDFile)

	if data, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate client id: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(id.String()), 0o644); err != nil {
		return "", fmt.Errorf("persist client id to %s: %w", path, err)
	}
	return id.String(), nil
}
