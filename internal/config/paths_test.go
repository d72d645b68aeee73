package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestResolvePaths_RelativeBecomesAbsolute verifies scalar fields are
// anchored at the project root and checked for existence.
func TestResolvePaths_RelativeBecomesAbsolute(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "icon.png"), []byte{1}, 0o600))

	cfg, err := Merge(context.Background(), MergeInput{
		Raw: map[string]any{
			"name": "App",
			"icon": "icon.png",
		},
		Platform:    "linux",
		ProjectRoot: dir,
	})
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(cfg.Entry))
	require.True(t, filepath.IsAbs(cfg.Icon))
	require.Equal(t, filepath.Join(dir, "icon.png"), cfg.Icon)
}

// TestResolvePaths_Idempotent verifies that resolving an already-resolved
// configuration changes nothing.
func TestResolvePaths_Idempotent(t *testing.T) {
	t.Parallel()

	dir := newProject(t)

	cfg, err := Merge(context.Background(), MergeInput{
		Raw:         map[string]any{"name": "App"},
		Platform:    "linux",
		ProjectRoot: dir,
	})
	require.NoError(t, err)

	entry := cfg.Entry
	require.NoError(t, ResolvePaths(context.Background(), cfg, dir))
	require.Equal(t, entry, cfg.Entry)
}

// TestResolvePaths_ListSourceOnly verifies that only the source half of a
// "source:dest" entry is rewritten and the original separator is kept.
func TestResolvePaths_ListSourceOnly(t *testing.T) {
	t.Parallel()

	dir := newProject(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o750))

	cfg, err := Merge(context.Background(), MergeInput{
		Raw: map[string]any{
			"name": "App",
			"exebuilder": map[string]any{
				"add_data": []any{"assets:assets", "assets;static"},
			},
		},
		Platform:    "linux",
		ProjectRoot: dir,
	})
	require.NoError(t, err)

	list, ok := cfg.ExeBuilder["add_data"].([]any)
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "assets")+":assets", list[0])
	require.Equal(t, filepath.Join(dir, "assets")+";static", list[1])
}

// TestResolvePaths_MissingListSource verifies that a nonexistent list
// source fails the merge.
func TestResolvePaths_MissingListSource(t *testing.T) {
	t.Parallel()

	dir := newProject(t)

	_, err := Merge(context.Background(), MergeInput{
		Raw: map[string]any{
			"name": "App",
			"exebuilder": map[string]any{
				"add_data": []any{"missing:assets"},
			},
		},
		Platform:    "linux",
		ProjectRoot: dir,
	})

	var cfgErr *ConfigError

	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "add_data", cfgErr.Field)
}

// TestSplitSourceDest covers separator detection, including the Windows
// drive-letter disambiguation rule.
func TestSplitSourceDest(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		entry  string
		source string
		dest   string
		sep    byte
	}{
		{"colon", "assets:static", "assets", "static", ':'},
		{"semicolon", "assets;static", "assets", "static", ';'},
		{"no separator", "assets", "assets", "", 0},
		{"drive letter backslash", `C:\data:assets`, `C:\data`, "assets", ':'},
		{"drive letter forward slash", "C:/data;assets", "C:/data", "assets", ';'},
		{"bare drive", "C:", "C:", "", 0},
		{"colon not at drive position", "data:C/assets", "data", "C/assets", ':'},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			source, dest, sep := splitSourceDest(tc.entry)
			require.Equal(t, tc.source, source)
			require.Equal(t, tc.dest, dest)
			require.Equal(t, tc.sep, sep)
		})
	}
}

// TestResolvePaths_InactivePlatformNotEnforced verifies that resources of
// other platforms are rewritten but never existence-checked.
func TestResolvePaths_InactivePlatformNotEnforced(t *testing.T) {
	t.Parallel()

	dir := newProject(t)

	cfg, err := Merge(context.Background(), MergeInput{
		Raw: map[string]any{
			"name": "App",
			"platforms": map[string]any{
				"windows": map[string]any{
					"setup_icon": "installer.ico", // does not exist, must not fail on linux
				},
			},
		},
		Platform:    "linux",
		ProjectRoot: dir,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "installer.ico"), cfg.Platforms["windows"]["setup_icon"])
}
