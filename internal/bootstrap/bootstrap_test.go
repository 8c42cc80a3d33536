package bootstrap

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jward/assethook/internal/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFactory wraps FileFactory and records every call.
type countingFactory struct {
	inner *material.FileFactory

	mu            sync.Mutex
	materialSaves []string
	textureBuilds int
	textureSaves  int
}

func newCountingFactory() *countingFactory {
	return &countingFactory{inner: material.NewFileFactory()}
}

func (c *countingFactory) CreateMaterial(shader material.Shader) *material.Material {
	return c.inner.CreateMaterial(shader)
}

func (c *countingFactory) SaveMaterial(m *material.Material, path string) (bool, error) {
	c.mu.Lock()
	c.materialSaves = append(c.materialSaves, m.Name)
	c.mu.Unlock()
	return c.inner.SaveMaterial(m, path)
}

func (c *countingFactory) CreateMaskTexture() *material.MaskTexture {
	c.mu.Lock()
	c.textureBuilds++
	c.mu.Unlock()
	return c.inner.CreateMaskTexture()
}

func (c *countingFactory) SaveMaskTexture(t *material.MaskTexture, path string) (bool, error) {
	c.mu.Lock()
	c.textureSaves++
	c.mu.Unlock()
	return c.inner.SaveMaskTexture(t, path)
}

// newInstall creates <root>/Assets/Live2D/<resources> and returns root and
// the resources directory.
func newInstall(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	res := filepath.Join(root, "Assets", "Live2D", filepath.FromSlash(ResourcesRelPath))
	require.NoError(t, os.MkdirAll(res, 0o755))
	return root, res
}

func materialsDir(res string) string {
	return filepath.Join(res, MaterialsDirName)
}

func texturePath(res string) string {
	return filepath.Join(res, material.MaskTextureName+material.AssetExt)
}

func presetNames() []string {
	var names []string
	for _, p := range Catalog() {
		names = append(names, p.Name)
	}
	return names
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		rel, _ := filepath.Rel(dir, path)
		out[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestCatalog_Order(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{
		"Mask", "Unlit", "UnlitAdditive", "UnlitMultiply",
		"UnlitMasked", "UnlitAdditiveMasked", "UnlitMultiplyMasked",
	}, presetNames())
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	t.Parallel()
	c := Catalog()
	c[0].Name = "Changed"
	c[1].Blend.SrcColor = material.BlendZero
	assert.Equal(t, "Mask", Catalog()[0].Name)
	assert.Equal(t, material.BlendNormal, Catalog()[1].Blend)
	assert.Equal(t, material.BlendNormal, Catalog()[4].Blend)
}

func TestParseGating(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Gating{"": GateDirectory, "directory": GateDirectory, "File": GatePerFile, "per-file": GatePerFile} {
		got, err := ParseGating(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseGating("sometimes")
	require.Error(t, err)
	assert.Equal(t, "file", GatePerFile.String())
}

func TestEnsure_FreshInstallCreatesEverything(t *testing.T) {
	t.Parallel()
	root, res := newInstall(t)
	f := newCountingFactory()
	var logs bytes.Buffer
	b := New(root, DefaultMarker, WithFactory(f), WithLogger(log.New(&logs, "", 0)))

	result, err := b.EnsureBuiltinResources(context.Background())
	require.NoError(t, err)

	assert.True(t, result.MaterialsDirCreated)
	assert.Equal(t, filepath.Join(root, "Assets", "Live2D"), result.InstallRoot)
	assert.Len(t, result.Created, 8)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, presetNames(), f.materialSaves, "presets are created in catalog order")
	assert.Contains(t, logs.String(), "materials directory created")

	for _, p := range Catalog() {
		m, err := material.LoadMaterial(filepath.Join(materialsDir(res), p.FileName()))
		require.NoError(t, err, p.Name)
		assert.Equal(t, p.Shader, m.Shader)
		assert.Equal(t, p.Masked, m.Masked())
		if p.HasBlend {
			assert.Equal(t, p.Blend, m.Blend())
		}
		if p.Masked {
			assert.Equal(t, []string{material.KeywordMaskOn}, m.Keywords)
		}
	}
	_, err = material.LoadMaskTexture(texturePath(res))
	require.NoError(t, err)
}

func TestEnsure_BlendParameters(t *testing.T) {
	t.Parallel()
	root, res := newInstall(t)
	_, err := New(root, DefaultMarker).EnsureBuiltinResources(context.Background())
	require.NoError(t, err)

	load := func(name string) *material.Material {
		m, err := material.LoadMaterial(filepath.Join(materialsDir(res), name+material.MaterialExt))
		require.NoError(t, err)
		return m
	}

	unlit := load("Unlit").Blend()
	assert.Equal(t, material.BlendOne, unlit.SrcColor)
	assert.Equal(t, material.BlendOneMinusSrcAlpha, unlit.DstColor)
	assert.Equal(t, material.BlendOne, unlit.SrcAlpha)
	assert.Equal(t, material.BlendOneMinusSrcAlpha, unlit.DstAlpha)

	add := load("UnlitAdditiveMasked").Blend()
	assert.Equal(t, material.Blend{
		SrcColor: material.BlendOne, DstColor: material.BlendOne,
		SrcAlpha: material.BlendZero, DstAlpha: material.BlendOne,
	}, add)

	mul := load("UnlitMultiply").Blend()
	assert.Equal(t, material.Blend{
		SrcColor: material.BlendDstColor, DstColor: material.BlendOneMinusSrcAlpha,
		SrcAlpha: material.BlendZero, DstAlpha: material.BlendOne,
	}, mul)

	mask := load("Mask")
	assert.Equal(t, material.ShaderMask, mask.Shader)
	assert.Empty(t, mask.Floats)
	assert.False(t, load("UnlitMultiply").Masked())
}

func TestEnsure_Idempotent(t *testing.T) {
	t.Parallel()
	root, res := newInstall(t)
	b := New(root, DefaultMarker)

	_, err := b.EnsureBuiltinResources(context.Background())
	require.NoError(t, err)
	first := snapshot(t, res)

	for range 3 {
		result, err := b.EnsureBuiltinResources(context.Background())
		require.NoError(t, err)
		assert.Empty(t, result.Created)
		assert.False(t, result.MaterialsDirCreated)
	}
	assert.Equal(t, first, snapshot(t, res))
}

func TestEnsure_LeavesEditedPresetsAlone(t *testing.T) {
	t.Parallel()
	root, res := newInstall(t)
	b := New(root, DefaultMarker, WithGating(GatePerFile))
	_, err := b.EnsureBuiltinResources(context.Background())
	require.NoError(t, err)

	edited := filepath.Join(materialsDir(res), "Unlit"+material.MaterialExt)
	require.NoError(t, os.WriteFile(edited, []byte("tuned by hand"), 0o644))

	_, err = b.EnsureBuiltinResources(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(edited)
	require.NoError(t, err)
	assert.Equal(t, "tuned by hand", string(data))
}

func TestEnsure_DirectoryGateDoesNotRepair(t *testing.T) {
	t.Parallel()
	root, res := newInstall(t)
	b := New(root, DefaultMarker)
	_, err := b.EnsureBuiltinResources(context.Background())
	require.NoError(t, err)

	removed := []string{"Unlit", "UnlitAdditiveMasked", "Mask"}
	for _, name := range removed {
		require.NoError(t, os.Remove(filepath.Join(materialsDir(res), name+material.MaterialExt)))
	}

	f := newCountingFactory()
	b = New(root, DefaultMarker, WithFactory(f))
	result, err := b.EnsureBuiltinResources(context.Background())
	require.NoError(t, err)

	assert.Empty(t, f.materialSaves, "no preset is touched when the directory exists")
	assert.Empty(t, result.Created)
	for _, name := range removed {
		assert.NoFileExists(t, filepath.Join(materialsDir(res), name+material.MaterialExt))
	}
}

func TestEnsure_PerFileGateRepairsMissingPresets(t *testing.T) {
	t.Parallel()
	root, res := newInstall(t)
	_, err := New(root, DefaultMarker).EnsureBuiltinResources(context.Background())
	require.NoError(t, err)

	removed := []string{"Unlit", "UnlitAdditiveMasked", "Mask"}
	for _, name := range removed {
		require.NoError(t, os.Remove(filepath.Join(materialsDir(res), name+material.MaterialExt)))
	}

	f := newCountingFactory()
	result, err := New(root, DefaultMarker, WithFactory(f), WithGating(GatePerFile)).
		EnsureBuiltinResources(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Mask", "Unlit", "UnlitAdditiveMasked"}, f.materialSaves)
	assert.Len(t, result.Created, 3)
	for _, name := range removed {
		assert.FileExists(t, filepath.Join(materialsDir(res), name+material.MaterialExt))
	}
}

func TestEnsure_TextureGatedPerFile(t *testing.T) {
	t.Parallel()
	root, res := newInstall(t)
	b := New(root, DefaultMarker)
	_, err := b.EnsureBuiltinResources(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(texturePath(res)))

	f := newCountingFactory()
	result, err := New(root, DefaultMarker, WithFactory(f)).EnsureBuiltinResources(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{texturePath(res)}, result.Created)
	assert.Equal(t, 1, f.textureSaves)
	assert.FileExists(t, texturePath(res))
}

func TestEnsure_TextureAlwaysBuiltOnlySavedWhenMissing(t *testing.T) {
	t.Parallel()
	root, _ := newInstall(t)
	f := newCountingFactory()
	b := New(root, DefaultMarker, WithFactory(f))

	for range 3 {
		_, err := b.EnsureBuiltinResources(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.textureBuilds)
	assert.Equal(t, 1, f.textureSaves)
}

func TestEnsure_InstallRootNotFound(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Assets", "Models"), 0o755))
	var logs bytes.Buffer

	f := newCountingFactory()
	_, err := New(root, DefaultMarker, WithFactory(f), WithLogger(log.New(&logs, "", 0))).
		EnsureBuiltinResources(context.Background())
	require.ErrorIs(t, err, ErrInstallRootNotFound)
	assert.NotErrorIs(t, err, ErrResourcesMissing)
	assert.Empty(t, f.materialSaves)
	assert.Zero(t, f.textureBuilds)
	assert.Contains(t, logs.String(), "install root not found")
}

func TestEnsure_ResourcesMissing(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Assets", "Live2D", "Cubism"), 0o755))

	f := newCountingFactory()
	_, err := New(root, DefaultMarker, WithFactory(f)).EnsureBuiltinResources(context.Background())
	require.ErrorIs(t, err, ErrResourcesMissing)
	assert.NotErrorIs(t, err, ErrInstallRootNotFound)
	assert.Empty(t, f.materialSaves)
	assert.NoDirExists(t, filepath.Join(root, "Assets", "Live2D", "Cubism", "Rendering"))
}

func TestEnsure_PersistenceFailurePropagates(t *testing.T) {
	t.Parallel()
	root, res := newInstall(t)
	// A regular file where the materials directory should be.
	require.NoError(t, os.WriteFile(materialsDir(res), []byte("x"), 0o644))

	_, err := New(root, DefaultMarker, WithGating(GatePerFile)).EnsureBuiltinResources(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "materials directory")
}

func TestEnsure_CancelledContext(t *testing.T) {
	t.Parallel()
	root, res := newInstall(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(root, DefaultMarker).EnsureBuiltinResources(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, materialsDir(res))
}

func TestEnsure_ConcurrentCallsCreateEachResourceOnce(t *testing.T) {
	t.Parallel()
	root, res := newInstall(t)
	f := newCountingFactory()
	b := New(root, DefaultMarker, WithFactory(f))

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*Result, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = b.EnsureBuiltinResources(context.Background())
		}(i)
	}
	wg.Wait()

	created := 0
	dirCreators := 0
	for i := range callers {
		require.NoError(t, errs[i])
		created += len(results[i].Created)
		if results[i].MaterialsDirCreated {
			dirCreators++
		}
	}
	assert.Equal(t, 8, created, "seven presets and one texture, each written once")
	assert.Equal(t, 1, dirCreators)
	assert.Len(t, f.materialSaves, 7)

	entries, err := os.ReadDir(materialsDir(res))
	require.NoError(t, err)
	assert.Len(t, entries, 7)
	_, err = material.LoadMaskTexture(texturePath(res))
	require.NoError(t, err)
}
