package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newProject lays out a throwaway project directory with an entry file
// and returns its path.
func newProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("print()\n"), 0o600))

	return dir
}

// TestMerge_PlatformOverridesGlobal checks that a platform block wins over
// the global section for a shared scalar key, while keys present only in
// the global section survive the merge.
func TestMerge_PlatformOverridesGlobal(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	raw := map[string]any{
		"name":    "App",
		"onefile": false,
		"platforms": map[string]any{
			"windows": map[string]any{
				"onefile": true,
			},
		},
	}

	cfg, err := Merge(context.Background(), MergeInput{
		Raw:         raw,
		Platform:    "windows",
		ProjectRoot: dir,
	})
	require.NoError(t, err)
	require.True(t, cfg.OneFile)
	require.Equal(t, "App", cfg.Name)
	// Key only in the global layer keeps its value.
	require.Equal(t, DefaultPublisher, cfg.Publisher)
}

// TestMerge_CLIOverridesEverything checks that CLI overrides beat both the
// platform block and the global section.
func TestMerge_CLIOverridesEverything(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	raw := map[string]any{
		"name":    "App",
		"version": "1.0.0",
		"platforms": map[string]any{
			"linux": map[string]any{
				"version": "2.0.0",
			},
		},
	}

	cfg, err := Merge(context.Background(), MergeInput{
		Raw:      raw,
		Platform: "linux",
		Overrides: map[string]any{
			"version": "3.0.0",
		},
		ProjectRoot: dir,
	})
	require.NoError(t, err)
	require.Equal(t, "3.0.0", cfg.Version)
}

// TestMerge_DeepMergeNestedBlocks checks that nested option blocks merge
// key-by-key instead of being replaced wholesale.
func TestMerge_DeepMergeNestedBlocks(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	raw := map[string]any{
		"name": "App",
		"exebuilder": map[string]any{
			"windowed": true,
		},
		"platforms": map[string]any{
			"macos": map[string]any{
				"exebuilder": map[string]any{
					"strip": true,
				},
			},
		},
	}

	cfg, err := Merge(context.Background(), MergeInput{
		Raw:         raw,
		Platform:    "macos",
		ProjectRoot: dir,
	})
	require.NoError(t, err)

	// Defaults, global and platform keys all present in the same block.
	require.Equal(t, true, cfg.ExeBuilder["clean"])
	require.Equal(t, true, cfg.ExeBuilder["windowed"])
	require.Equal(t, true, cfg.ExeBuilder["strip"])
}

// TestMerge_ArraysReplacedWholesale checks that a more specific layer
// replaces list values instead of concatenating them.
func TestMerge_ArraysReplacedWholesale(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	raw := map[string]any{
		"name":    "App",
		"formats": []any{"deb", "rpm"},
		"platforms": map[string]any{
			"linux": map[string]any{
				"formats": []any{"appimage"},
			},
		},
	}

	cfg, err := Merge(context.Background(), MergeInput{
		Raw:         raw,
		Platform:    "linux",
		ProjectRoot: dir,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"appimage"}, cfg.Formats)
}

// TestMerge_MissingName checks that an absent application name fails
// unless a fallback is provided.
func TestMerge_MissingName(t *testing.T) {
	t.Parallel()

	dir := newProject(t)

	_, err := Merge(context.Background(), MergeInput{
		Platform:    "linux",
		ProjectRoot: dir,
	})

	var cfgErr *ConfigError

	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "name", cfgErr.Field)

	cfg, err := Merge(context.Background(), MergeInput{
		Platform:     "linux",
		ProjectRoot:  dir,
		FallbackName: filepath.Base(dir),
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Base(dir), cfg.Name)
}

// TestMerge_MistypedField checks that a list field supplied as a scalar
// is rejected with a ConfigError.
func TestMerge_MistypedField(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	raw := map[string]any{
		"name":    "App",
		"formats": "deb",
	}

	_, err := Merge(context.Background(), MergeInput{
		Raw:         raw,
		Platform:    "linux",
		ProjectRoot: dir,
	})

	var cfgErr *ConfigError

	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "formats", cfgErr.Field)
}

// TestMerge_MissingEntry checks that a nonexistent entry point aborts
// the merge with a ConfigError.
func TestMerge_MissingEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir() // no main.py inside

	_, err := Merge(context.Background(), MergeInput{
		Raw:         map[string]any{"name": "App"},
		Platform:    "linux",
		ProjectRoot: dir,
	})

	var cfgErr *ConfigError

	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "entry", cfgErr.Field)
}

// TestMerge_InstallerOptions checks per-tool option lookup for the
// active platform.
func TestMerge_InstallerOptions(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	raw := map[string]any{
		"name": "App",
		"platforms": map[string]any{
			"linux": map[string]any{
				"deb": map[string]any{
					"depends": "libc6",
				},
			},
		},
	}

	cfg, err := Merge(context.Background(), MergeInput{
		Raw:         raw,
		Platform:    "linux",
		ProjectRoot: dir,
	})
	require.NoError(t, err)
	require.Equal(t, "libc6", cfg.InstallerOptions("deb")["depends"])
	require.Empty(t, cfg.InstallerOptions("rpm"))
}

// TestLoad_UnsupportedExtension ensures unknown config formats are rejected.
func TestLoad_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "build.ini")
	require.NoError(t, os.WriteFile(path, []byte("[a]\n"), 0o600))

	_, err := Load(path)

	var cfgErr *ConfigError

	require.ErrorAs(t, err, &cfgErr)
}

// TestLoad_Formats loads the same config from JSON, YAML and TOML and
// expects identical trees.
func TestLoad_Formats(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	files := map[string]string{
		"build.json": `{"name":"App","onefile":true}`,
		"build.yaml": "name: App\nonefile: true\n",
		"build.toml": "name = \"App\"\nonefile = true\n",
	}

	for name, contents := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

		raw, err := Load(path)
		require.NoError(t, err, name)
		require.Equal(t, "App", raw["name"], name)
		require.Equal(t, true, raw["onefile"], name)
	}
}

// TestLoad_Missing ensures a nonexistent config file is reported.
func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}
