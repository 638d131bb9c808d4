package access

import (
	"fmt"
	"log/slog"
	"path/filepath"
)

// Registry looks up the password of a downloadable directory. dir is
// relative to the download root and slash-separated, e.g. "demo/sub".
type Registry interface {
	Password(dir string) (string, error)
}

// Layout names where the registry keeps its passwords.
type Layout string

const (
	// LayoutAccess keeps every password in a single file named "access" in
	// the download root.
	LayoutAccess Layout = "access"
	// LayoutMeta keeps each password in a ".meta" file inside the directory
	// it protects.
	LayoutMeta Layout = "meta"
)

// RegistryConfig holds configuration for selecting a registry.
type RegistryConfig struct {
	Root   string `mapstructure:"root"`   // Download root
	Layout Layout `mapstructure:"layout"` // access or meta
}

// NewRegistry creates the Registry the configured layout asks for. Both file
// backed registries read their files on every lookup, so edits take effect
// without a restart.
func NewRegistry(cfg RegistryConfig, logger *slog.Logger) (Registry, error) {
	switch cfg.Layout {
	case LayoutAccess, "":
		return NewAccessFileRegistry(filepath.Join(cfg.Root, AccessFileName), logger), nil
	case LayoutMeta:
		return NewMetaFileRegistry(cfg.Root), nil
	default:
		return nil, fmt.Errorf("%w: %q (valid values: access, meta)", ErrUnknownLayout, cfg.Layout)
	}
}

// MapRegistry retrieves passwords from an in-memory map.
type MapRegistry struct {
	passwords map[string]string
}

// NewMapRegistry creates a registry over the given directory to password
// mapping. Keys are normalized the same way file registries normalize theirs.
func NewMapRegistry(passwords map[string]string) *MapRegistry {
	m := make(map[string]string, len(passwords))
	for dir, pw := range passwords {
		m[normalizeDir(dir)] = pw
	}
	return &MapRegistry{passwords: m}
}

func (r *MapRegistry) Password(dir string) (string, error) {
	pw, ok := r.passwords[normalizeDir(dir)]
	if !ok {
		return "", fmt.Errorf("%s: %w", dir, ErrNoPassword)
	}
	return pw, nil
}

// normalizeDir makes "./demo", "demo/" and "demo" the same key.
func normalizeDir(dir string) string {
	return filepath.ToSlash(filepath.Clean(filepath.FromSlash(dir)))
}
