package security

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustTempDir(t *testing.T) string {
	t.Helper()
	// EvalSymlinks so macOS /var -> /private/var does not break containment checks.
	real, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return real
}

func TestNewManager_ValidateConfig(t *testing.T) {
	dir := mustTempDir(t)
	m, err := NewManager([]string{dir}, nil)
	require.NoError(t, err)
	require.NoError(t, m.ValidateConfig())
	require.Len(t, m.AllowedDirectories(), 1)

	empty, err := NewManager(nil, nil)
	require.NoError(t, err)
	require.Error(t, empty.ValidateConfig())
}

func TestNewManagerFromEnv(t *testing.T) {
	dir := mustTempDir(t)
	t.Setenv("FASTBI_ALLOWED_DIRS", dir)

	m, err := NewManagerFromEnv()
	require.NoError(t, err)
	require.Equal(t, []string{dir}, m.AllowedDirectories())
}

func TestValidateOpenPath_AllowsWithinRoot(t *testing.T) {
	root := mustTempDir(t)
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	fpath := filepath.Join(sub, "ok.xlsx")
	require.NoError(t, os.WriteFile(fpath, []byte("test"), 0o644))

	m, err := NewManager([]string{root}, nil)
	require.NoError(t, err)

	got, err := m.ValidateOpenPath(fpath)
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(got))
}

func TestValidateOpenPath_DeniesOutsideRoot(t *testing.T) {
	root := mustTempDir(t)
	outside := filepath.Join(mustTempDir(t), "escape.xlsx")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	m, err := NewManager([]string{root}, nil)
	require.NoError(t, err)

	_, err = m.ValidateOpenPath(outside)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestValidateOpenPath_SymlinkEscapeDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test skipped on Windows")
	}
	root := mustTempDir(t)
	target := filepath.Join(mustTempDir(t), "target.xlsx")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	link := filepath.Join(root, "link.xlsx")
	require.NoError(t, os.Symlink(target, link))

	m, err := NewManager([]string{root}, nil)
	require.NoError(t, err)

	_, err = m.ValidateOpenPath(link)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestValidateOpenPath_UnsupportedExt(t *testing.T) {
	root := mustTempDir(t)
	fp := filepath.Join(root, "bad.txt")
	require.NoError(t, os.WriteFile(fp, []byte("x"), 0o644))

	m, err := NewManager([]string{root}, nil)
	require.NoError(t, err)

	_, err = m.ValidateOpenPath(fp)
	require.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestValidateOpenPath_MissingFile(t *testing.T) {
	root := mustTempDir(t)
	m, err := NewManager([]string{root}, nil)
	require.NoError(t, err)

	_, err = m.ValidateOpenPath(filepath.Join(root, "ghost.xlsx"))
	require.ErrorIs(t, err, ErrNotFound)
}
