package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithNoFiles(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, Default().Model, cfg.Model)
	require.Equal(t, Default().MaxIterations, cfg.MaxIterations)
}

func TestLoadMergesProjectFileOverDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".lash"), 0755))

	body := []byte(`
# a YAML comment line, skipped by the decoder
model: "project-model"
max_iterations: 7
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".lash", "lash.yaml"), body, 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "project-model", cfg.Model)
	require.Equal(t, 7, cfg.MaxIterations)
	require.Equal(t, Default().DelegateModels, cfg.DelegateModels, "unset fields keep their default")
}

func TestLoadStripsJSONCComments(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".lash"), 0755))

	body := []byte(`{
  // picked for cost, not quality
  "model": "jsonc-model",
  "max_context_chars": 4000 /* trailing */
}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".lash", "lash.yaml"), body, 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "jsonc-model", cfg.Model)
	require.Equal(t, 4000, cfg.MaxContextChars)
}

func TestEnvOverridesBeatFiles(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".lash"), 0755))
	body := []byte(`model: "project-model"`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".lash", "lash.yaml"), body, 0644))

	t.Setenv("LASH_MODEL", "env-model")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "env-model", cfg.Model)
}

func TestSaveWritesProjectFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Model = "saved-model"

	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "saved-model", loaded.Model)
}
