package access

import (
	"fmt"
	"log/slog"
)

// AccessFileName is the name of the password file in the download root.
const AccessFileName = "access"

// AccessFileRegistry reads passwords from a file with one
// "relative/dir = password" pair per line:
//
//	demo = pw
//	./photos/2019 = another password
//
// Lines are split at the first '='. Directory and password are trimmed, and
// the directory is normalized. Lines without '=' are skipped. Later lines
// win over earlier ones.
type AccessFileRegistry struct {
	path   string
	logger *slog.Logger
}

// NewAccessFileRegistry creates a registry over the file at path.
func NewAccessFileRegistry(path string, logger *slog.Logger) *AccessFileRegistry {
	return &AccessFileRegistry{path: path, logger: logger}
}

func (r *AccessFileRegistry) Password(dir string) (string, error) {
	passwords, err := r.load()
	if err != nil {
		return "", err
	}

	pw, ok := passwords[normalizeDir(dir)]
	if !ok {
		return "", fmt.Errorf("%s: %w", dir, ErrNoPassword)
	}
	return pw, nil
}

// load parses the file. Unlike a .properties file, ':' and whitespace
// inside the directory name are part of the key.
func (r *AccessFileRegistry) load() (map[string]string, error) {
	pairs, err := readPairs(r.path, func(lineNo int) {
		r.logger.Warn("skipping malformed line in access file", "path", r.path, "line", lineNo)
	})
	if err != nil {
		return nil, fmt.Errorf("read access file: %w", err)
	}

	passwords := make(map[string]string, len(pairs))
	for _, p := range pairs {
		passwords[normalizeDir(p.key)] = p.value
	}
	return passwords, nil
}
