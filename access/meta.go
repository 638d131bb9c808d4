package access

import (
	"fmt"
	"path/filepath"
)

const (
	// MetaFileName is the name of the file holding a directory's password.
	MetaFileName = ".meta"
	// PasswordKey is the key of the password in a .meta file.
	PasswordKey = "dir_password"
)

// MetaFileRegistry reads the password of a directory from the .meta file
// inside it. The file holds "key = value" lines split at the first '=':
//
//	dir_password = pw
//
// Values are taken literally. A password may contain '\', '#' or '='.
type MetaFileRegistry struct {
	root string
}

// NewMetaFileRegistry creates a registry for directories below root.
func NewMetaFileRegistry(root string) *MetaFileRegistry {
	return &MetaFileRegistry{root: root}
}

func (r *MetaFileRegistry) Password(dir string) (string, error) {
	path := filepath.Join(r.root, filepath.FromSlash(normalizeDir(dir)), MetaFileName)

	pairs, err := readPairs(path, nil)
	if err != nil {
		return "", fmt.Errorf("read meta file: %w", err)
	}

	pw, found := "", false
	for _, p := range pairs {
		if p.key == PasswordKey {
			pw, found = p.value, true
		}
	}
	if !found {
		return "", fmt.Errorf("%s: %w", dir, ErrNoPassword)
	}
	return pw, nil
}
