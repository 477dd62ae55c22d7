package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_RelativeCreatedInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("uploads")
	require.NoError(t, err)

	// t.TempDir may sit behind a symlink (macOS /var -> /private/var).
	wantInfo, err := os.Stat(filepath.Join(tmp, "uploads"))
	require.NoError(t, err)
	gotInfo, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, os.SameFile(wantInfo, gotInfo))
	require.True(t, gotInfo.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), gotInfo.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_AbsoluteAndIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	first, err := EnsureDir(dir)
	require.NoError(t, err)
	second, err := EnsureDir(dir)
	require.NoError(t, err)

	require.Equal(t, dir, first)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileExists(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "uploads")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))

	_, err := EnsureDir(p)
	require.Error(t, err)
}

func TestCreateExclusive(t *testing.T) {
	dir := t.TempDir()

	f, err := CreateExclusive(dir, "image-1.png")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = CreateExclusive(dir, "image-1.png")
	require.Error(t, err, "second create must fail")

	for _, bad := range []string{"", ".", "..", "../x.png", "sub/x.png"} {
		_, err := CreateExclusive(dir, bad)
		require.Error(t, err, "name %q must be rejected", bad)
	}
}

func TestSafeJoin(t *testing.T) {
	p, ok := SafeJoin("/srv/uploads", "image-1.png")
	require.True(t, ok)
	require.Equal(t, filepath.Join("/srv/uploads", "image-1.png"), p)

	for _, bad := range []string{"", "..", "../etc/passwd", "a/b"} {
		_, ok := SafeJoin("/srv/uploads", bad)
		require.False(t, ok, bad)
	}
}
