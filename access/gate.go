package access

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Gate guards the download root. Client supplied directory names are always
// resolved below the root before anything touches the file system.
type Gate struct {
	root     string
	realRoot string
	registry Registry
	logger   *slog.Logger
}

// NewGate creates a Gate for the directories below root.
func NewGate(root string, registry Registry, logger *slog.Logger) (*Gate, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve download root: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// The root may not exist yet. Nothing below it is downloadable then.
		resolved = abs
	}

	return &Gate{
		root:     abs,
		realRoot: resolved,
		registry: registry,
		logger:   logger,
	}, nil
}

// Root returns the absolute download root.
func (g *Gate) Root() string {
	return g.root
}

// NormalizedPath resolves desired below the root. ".." elements cannot climb
// above the root and absolute paths are treated as relative to it.
func (g *Gate) NormalizedPath(desired string) string {
	jailed := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(desired))
	return filepath.Join(g.root, jailed)
}

// joined is desired joined onto the root as given. Unlike NormalizedPath it
// may climb out of the root, which the checks below must see to refuse it.
func (g *Gate) joined(desired string) string {
	return filepath.Join(g.root, filepath.FromSlash(desired))
}

// IsDownloadAllowed reports whether desired names an existing directory
// strictly below the root. Symbolic links are resolved first and must not
// lead out of the root.
func (g *Gate) IsDownloadAllowed(desired string) bool {
	p := g.joined(desired)
	if !isBelow(g.root, p) {
		return false
	}

	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			g.logger.Warn("could not resolve directory", "path", p, "err", err)
		}
		return false
	}
	if !isBelow(g.realRoot, resolved) {
		g.logger.Warn("directory resolves outside the download root", "path", p, "resolved", resolved)
		return false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// PasswordMatches reports whether supplied equals the password the registry
// holds for desired. A missing registry entry or an unreadable registry is a
// mismatch.
func (g *Gate) PasswordMatches(desired, supplied string) bool {
	p := g.joined(desired)
	if !isBelow(g.root, p) {
		return false
	}

	stored, err := g.registry.Password(g.RelativePath(p))
	if err != nil {
		g.logger.Debug("no password for directory", "dir", desired, "err", err)
		return false
	}
	return stored == supplied
}

// RelativePath returns path relative to the root, slash-separated.
// Paths outside the root are returned unchanged.
func (g *Gate) RelativePath(path string) string {
	rel, err := filepath.Rel(g.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// Access pairs a requested directory with the password the client sent.
func (g *Gate) Access(desired, password string) DirectoryAccess {
	return DirectoryAccess{Desired: desired, Password: password, gate: g}
}

// DirectoryAccess is a single request to download a directory.
type DirectoryAccess struct {
	Desired  string
	Password string

	gate *Gate
}

func (a DirectoryAccess) NormalizedPath() string {
	return a.gate.NormalizedPath(a.Desired)
}

func (a DirectoryAccess) IsDownloadAllowed() bool {
	return a.gate.IsDownloadAllowed(a.Desired)
}

func (a DirectoryAccess) PasswordMatches() bool {
	return a.gate.PasswordMatches(a.Desired, a.Password)
}

// Granted reports whether the directory may be downloaded with the password.
func (a DirectoryAccess) Granted() bool {
	return a.IsDownloadAllowed() && a.PasswordMatches()
}

func isBelow(root, path string) bool {
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
