package bootstrap

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mkdirs(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(rel)), 0o755))
	}
}

func TestFindInstallRoot_DirectChild(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	mkdirs(t, root, "Live2D/Cubism", "Models")

	got, err := FindInstallRoot(root, "Live2D")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Live2D"), got)
}

func TestFindInstallRoot_PreOrderBeatsShallower(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	// a/deep/Live2D is reached before b/Live2D even though it is deeper.
	mkdirs(t, root, "a/deep/Live2D", "b/Live2D")

	got, err := FindInstallRoot(root, "Live2D")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "deep", "Live2D"), got)
}

func TestFindInstallRoot_PreOrderNotLexicographic(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	// ReadDir visits "a" before "a-b", but "a-b/Live2D" sorts before
	// "a/Live2D" as a full path because '-' < '/'.
	mkdirs(t, root, "a/Live2D", "a-b/Live2D")

	got, err := FindInstallRoot(root, "Live2D")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "Live2D"), got)
	assert.Less(t, "a-b/Live2D", "a/Live2D")
}

func TestFindInstallRoot_MatchesSubstringOfPath(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	mkdirs(t, root, "Plugins/Live2DSDK/Cubism")

	got, err := FindInstallRoot(root, "Live2D")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Plugins", "Live2DSDK"), got)
}

func TestFindInstallRoot_MultiSegmentMarker(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	mkdirs(t, root, "Live2D/Other", "Vendor/Live2D/Cubism")

	got, err := FindInstallRoot(root, "Live2D/Cubism")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Vendor", "Live2D", "Cubism"), got)
}

func TestFindInstallRoot_IgnoresFilesAndRootName(t *testing.T) {
	t.Parallel()
	root := filepath.Join(t.TempDir(), "Live2D-project")
	mkdirs(t, root, "Assets/Models")
	require.NoError(t, os.WriteFile(filepath.Join(root, "Assets", "Live2D.txt"), nil, 0o644))

	_, err := FindInstallRoot(root, "Live2D")
	require.ErrorIs(t, err, ErrInstallRootNotFound)
}

func TestFindInstallRoot_NotFound(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	mkdirs(t, root, "Assets/Scenes", "Packages")

	_, err := FindInstallRoot(root, "Live2D")
	require.ErrorIs(t, err, ErrInstallRootNotFound)
}

func TestFindInstallRoot_MissingSearchRoot(t *testing.T) {
	t.Parallel()
	_, err := FindInstallRoot(filepath.Join(t.TempDir(), "absent"), "Live2D")
	require.ErrorIs(t, err, ErrInstallRootNotFound)
}

func TestFindInstallRoot_EmptyMarker(t *testing.T) {
	t.Parallel()
	_, err := FindInstallRoot(t.TempDir(), "")
	require.Error(t, err)
}

func TestFindInstallRoot_DeepTree(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	segs := make([]string, 60)
	for i := range segs {
		segs[i] = fmt.Sprintf("d%d", i)
	}
	deep := path.Join(append(segs, "Live2D")...)
	mkdirs(t, root, deep)

	got, err := FindInstallRoot(root, "Live2D")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, filepath.FromSlash(deep)), got)
}

// recursiveFind is the straightforward recursive pre-order search the stack
// implementation must agree with.
func recursiveFind(dir, rel, marker string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		abs := filepath.Join(dir, e.Name())
		r := path.Join(rel, e.Name())
		if strings.Contains(r, marker) {
			return abs, true
		}
		if got, ok := recursiveFind(abs, r, marker); ok {
			return got, true
		}
	}
	return "", false
}

func TestFindInstallRoot_AgreesWithRecursiveSearch(t *testing.T) {
	base := t.TempDir()
	names := []string{"a", "b", "Live2D", "x-Live2D", "Assets", "z"}

	rapid.Check(t, func(rt *rapid.T) {
		root, err := os.MkdirTemp(base, "case")
		if err != nil {
			rt.Fatalf("mkdtemp: %v", err)
		}
		paths := rapid.SliceOfN(
			rapid.SliceOfN(rapid.SampledFrom(names), 1, 4), 0, 8,
		).Draw(rt, "paths")
		for _, segs := range paths {
			if err := os.MkdirAll(filepath.Join(append([]string{root}, segs...)...), 0o755); err != nil {
				rt.Fatalf("mkdir: %v", err)
			}
		}

		want, found := recursiveFind(root, "", "Live2D")
		got, err := FindInstallRoot(root, "Live2D")
		if !found {
			if err == nil {
				rt.Fatalf("expected not found, got %s", got)
			}
			return
		}
		if err != nil {
			rt.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			rt.Fatalf("got %s, want %s", got, want)
		}
	})
}
