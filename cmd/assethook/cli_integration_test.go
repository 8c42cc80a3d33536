package main_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBinary compiles the assethook command into a temp directory.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "assethook"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "assethook")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot walks up from this file's directory to the one holding go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "go.mod not found")
		dir = parent
	}
}

// createHostProject lays out a host project with a Cubism install, one model
// and one project file. Paths in the returned directory are relative to it.
func createHostProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"Assets/Live2D/Cubism/Rendering/Resources/Live2D/Cubism/.keep": "",
		"Assets/Hiyori/hiyori.model3.json":                              `{"Version": 3, "FileReferences": {"Moc": "hiyori.moc3"}}`,
		"Assets/Hiyori/hiyori.moc3":                                     "MOC3\x00\x00",
		"Assembly-CSharp.csproj": "<Project>\n  <PropertyGroup Condition=\" '$(Configuration)|$(Platform)' == 'Debug|AnyCPU' \">\n" +
			"    <Optimize>false</Optimize>\n  </PropertyGroup>\n</Project>\n",
		"Assembly-CSharp-Editor.csproj": "<Project />\n",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// run executes the binary in dir and parses its JSON envelope.
func run(t *testing.T, bin, dir string, args ...string) (map[string]any, error) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	stdout, err := cmd.Output()
	if err != nil && len(stdout) == 0 {
		t.Fatalf("%s failed with no output: %v", strings.Join(args, " "), err)
	}
	var result map[string]any
	require.NoError(t, json.Unmarshal(stdout, &result), "invalid JSON output: %s", string(stdout))
	return result, err
}

func TestCLI_ProcessAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createHostProject(t)

	result, err := run(t, bin, dir, "process",
		"--imported", "Assets/Hiyori/hiyori.model3.json",
		"--imported", "Assets/Hiyori/hiyori.moc3",
		"--imported", "Assets/Hiyori/texture.png")
	require.NoError(t, err)
	assert.Equal(t, "process", result["command"])

	report := result["results"].(map[string]any)
	assert.Len(t, report["imported"], 2)
	assert.Equal(t, []any{"Assets/Hiyori/texture.png"}, report["ignored"])
	boot := report["bootstrap"].(map[string]any)
	assert.Equal(t, true, boot["materials_dir_created"])
	assert.Len(t, boot["created"], 8)
	assert.FileExists(t, filepath.Join(dir, ".assethook.db"))

	result, err = run(t, bin, dir, "assets", "--kind", "moc")
	require.NoError(t, err)
	assert.Equal(t, float64(1), result["total_count"])
}

func TestCLI_ProcessFromStdin(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createHostProject(t)

	cmd := exec.Command(bin, "process", "--changes", "-", "--format", "text")
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(`{"imported": ["Assets/Hiyori/hiyori.moc3"], "moved_from": ["Assets/Old/x.moc3"]}`)
	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "Imported: 1, deleted: 0, ignored: 0, failed: 0")
}

func TestCLI_ProcessReportsHandlerFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createHostProject(t)
	bad := filepath.Join(dir, "Assets", "Hiyori", "broken.model3.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"Version": 3}`), 0o644))

	result, err := run(t, bin, dir, "process",
		"--imported", "Assets/Hiyori/broken.model3.json",
		"--imported", "Assets/Hiyori/hiyori.moc3")
	require.Error(t, err, "a failed handler exits non-zero")

	report := result["results"].(map[string]any)
	assert.Equal(t, []any{"Assets/Hiyori/hiyori.moc3"}, report["imported"])
	failures := report["failures"].([]any)
	require.Len(t, failures, 1)
	assert.Equal(t, "Assets/Hiyori/broken.model3.json", failures[0].(map[string]any)["path"])
}

func TestCLI_PatchProjects(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createHostProject(t)

	result, err := run(t, bin, dir, "patch-projects")
	require.NoError(t, err)
	report := result["results"].(map[string]any)
	assert.Len(t, report["patched"], 1)
	assert.Len(t, report["excluded"], 1)

	data, err := os.ReadFile(filepath.Join(dir, "Assembly-CSharp.csproj"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<AllowUnsafeBlocks>true</AllowUnsafeBlocks>")

	result, err = run(t, bin, dir, "patch-projects")
	require.NoError(t, err)
	report = result["results"].(map[string]any)
	assert.Empty(t, report["patched"])
	assert.Len(t, report["unchanged"], 1)
}

func TestCLI_BootstrapWithoutInstall(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Assets", "Models"), 0o755))

	result, err := run(t, bin, dir, "bootstrap")
	require.Error(t, err)
	assert.Contains(t, result["error"], "install root not found")
}

func TestCLI_ConfigFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assethook.ini"),
		[]byte("[hook]\ndb = state/ledger.db\n[bootstrap]\ngating = file\n"), 0o644))

	cmd := exec.Command(bin, "config")
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "state/ledger.db")
	assert.Contains(t, string(out), "gating")
	assert.Contains(t, string(out), "file")
}
