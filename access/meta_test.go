package access_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/mayray/access"
)

func writeMetaFile(t *testing.T, root, dir, content string) {
	t.Helper()

	full := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(full, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(full, access.MetaFileName), []byte(content), 0o600))
}

func TestMetaFileRegistry_Password(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeMetaFile(t, root, "demo", "# comment\ndir_password = pw\nowner = somebody\n")
	writeMetaFile(t, root, "nested/deep", "dir_password=${not_expanded}\n")
	writeMetaFile(t, root, "nopass", "owner = somebody\n")

	registry := access.NewMetaFileRegistry(root)

	got, err := registry.Password("demo")
	require.NoError(t, err)
	assert.Equal(t, "pw", got)

	got, err = registry.Password("./nested/deep/")
	require.NoError(t, err)
	assert.Equal(t, "${not_expanded}", got)

	_, err = registry.Password("nopass")
	assert.ErrorIs(t, err, access.ErrNoPassword)

	_, err = registry.Password("missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read meta file")
}

func TestMetaFileRegistry_LiteralValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "backslashes", content: `dir_password = C:\new\path` + "\n", want: `C:\new\path`},
		{name: "trailing backslash", content: "dir_password = abc\\\nowner = x\n", want: `abc\`},
		{name: "unicode escape", content: `dir_password = \u0041` + "\n", want: `\u0041`},
		{name: "equals in value", content: "dir_password = a=b\n", want: "a=b"},
		{name: "hash in value", content: "dir_password = #1\n", want: "#1"},
		{name: "colon separator ignored", content: "dir_password: pw\ndir_password = real\n", want: "real"},
		{name: "last wins", content: "dir_password = one\ndir_password = two\n", want: "two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			writeMetaFile(t, root, "demo", tt.content)

			got, err := access.NewMetaFileRegistry(root).Password("demo")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
