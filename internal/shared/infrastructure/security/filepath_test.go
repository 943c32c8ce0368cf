package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	t.Run("rejects empty path", func(t *testing.T) {
		_, err := CleanPath("")
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("rejects shell metacharacters", func(t *testing.T) {
		for _, char := range forbiddenChars {
			_, err := CleanPath("/tmp/quadra" + string(char) + ".toml")
			assert.ErrorContains(t, err, "forbidden character", "char %q", char)
		}
	})

	t.Run("makes relative paths absolute", func(t *testing.T) {
		got, err := CleanPath("quadra.toml")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})

	t.Run("removes dot segments", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "tasks.db"), nil, 0o600))

		got, err := CleanPath(filepath.Join(dir, "nested", "..", "tasks.db"))
		require.NoError(t, err)
		assert.NotContains(t, got, "..")
	})

	t.Run("resolves symlinks", func(t *testing.T) {
		dir := t.TempDir()
		real := filepath.Join(dir, "real.toml")
		require.NoError(t, os.WriteFile(real, []byte("x"), 0o600))
		link := filepath.Join(dir, "link.toml")
		require.NoError(t, os.Symlink(real, link))

		got, err := CleanPath(link)
		require.NoError(t, err)
		want, _ := filepath.EvalSymlinks(real)
		assert.Equal(t, want, got)
	})

	t.Run("accepts files that do not exist yet", func(t *testing.T) {
		got, err := CleanPath(filepath.Join(t.TempDir(), "new.db"))
		require.NoError(t, err)
		assert.Equal(t, "new.db", filepath.Base(got))
	})
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quadra.toml")
	require.NoError(t, os.WriteFile(path, []byte(`http_addr = ":9090"`), 0o600))

	data, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `http_addr = ":9090"`, string(data))

	_, err = ReadFile("/tmp/quadra;rm.toml")
	assert.ErrorContains(t, err, "forbidden character")

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
