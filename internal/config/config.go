package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultEntry is the entry point assumed when none is configured.
	DefaultEntry = "main.py"

	// DefaultVersion is the application version assumed when none is configured.
	DefaultVersion = "1.0.0"

	// DefaultPublisher is the publisher name assumed when none is configured.
	DefaultPublisher = "Unknown Publisher"

	// DefaultOutputDir is the directory (relative to the project root)
	// where installer artifacts are placed.
	DefaultOutputDir = "dist"

	// DefaultWorkDir is the scratch directory (relative to the project root)
	// recreated for every build.
	DefaultWorkDir = ".unipack_temp"

	// platformsKey holds per-platform override blocks in the raw config.
	platformsKey = "platforms"

	// platformsLegacyKey is the older spelling of platformsKey, still accepted.
	platformsLegacyKey = "platform_specific"

	// exeBuilderKey holds the executable-builder options block.
	exeBuilderKey = "exebuilder"
)

// EffectiveConfig is the fully merged, path-resolved configuration
// for one build invocation. It is constructed once by Merge and
// never re-merged mid-build.
type EffectiveConfig struct {
	// Name is the application identifier used in artifact names.
	Name string
	// DisplayName is the human-readable application name.
	DisplayName string
	// Version is the application version string.
	Version string
	// Publisher is the application publisher name.
	Publisher string
	// Entry is the absolute path to the application entry point.
	Entry string
	// Icon is the absolute path to the application icon, if configured.
	Icon string
	// License is the absolute path to the license file, if configured.
	License string
	// Readme is the absolute path to the readme file, if configured.
	Readme string
	// OneFile selects single-file executable output instead of a directory.
	OneFile bool
	// Formats is the list of requested installer format names.
	Formats []string
	// OutputDir is the absolute path where installer artifacts are written.
	OutputDir string
	// WorkDir is the absolute path of the per-build scratch directory.
	WorkDir string
	// SkipExeBuilder skips the executable-builder stage.
	SkipExeBuilder bool
	// SkipInstallers skips the installer-generation stage.
	SkipInstallers bool
	// Platform is the active platform name ("windows", "macos" or "linux").
	Platform string
	// ExeBuilder is the merged executable-builder options block.
	ExeBuilder map[string]any
	// Platforms retains every platform-specific override block,
	// keyed by platform name, for per-tool option lookup.
	Platforms map[string]map[string]any

	// merged is the full merged configuration tree backing Get.
	merged map[string]any
}

// Get returns the merged configuration value for a dotted key
// ("platforms.linux.deb.depends"), or nil when absent.
func (c *EffectiveConfig) Get(key string) any {
	var current any = c.merged

	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		current, ok = m[part]
		if !ok {
			return nil
		}
	}

	return current
}

// GetString returns the merged string value for a dotted key, or fallback.
func (c *EffectiveConfig) GetString(key, fallback string) string {
	if s, ok := c.Get(key).(string); ok && s != "" {
		return s
	}

	return fallback
}

// InstallerOptions returns the per-tool options block for the given
// installer format on the active platform ("inno_setup", "dmg", "deb", ...).
// The result is never nil.
func (c *EffectiveConfig) InstallerOptions(format string) map[string]any {
	block, ok := c.Platforms[c.Platform]
	if !ok {
		return map[string]any{}
	}

	opts, ok := block[format].(map[string]any)
	if !ok {
		return map[string]any{}
	}

	return opts
}

// DetectPlatform maps the current OS to a configuration platform name.
func DetectPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "macos"
	case "windows":
		return "windows"
	case "linux":
		return "linux"
	default:
		return runtime.GOOS
	}
}

// Load reads a raw layered configuration file. The format is chosen by
// extension: .json, .yaml/.yml or .toml.
func Load(path string) (map[string]any, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	raw := make(map[string]any)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err = json.Unmarshal(contents, &raw); err != nil {
			return nil, newConfigError("", "parse %s: %v", path, err)
		}
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(contents, &raw); err != nil {
			return nil, newConfigError("", "parse %s: %v", path, err)
		}
	case ".toml":
		if err = toml.Unmarshal(contents, &raw); err != nil {
			return nil, newConfigError("", "parse %s: %v", path, err)
		}
	default:
		return nil, newConfigError("", "unsupported config format: %s", path)
	}

	return normalizeTree(raw), nil
}

// normalizeTree rewrites nested maps into map[string]any so that merge
// logic sees a uniform tree regardless of the decoder that produced it.
func normalizeTree(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}

	return out
}

func normalizeValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return normalizeTree(typed)
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, val := range typed {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}

		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = normalizeValue(item)
		}

		return out
	default:
		return v
	}
}

// defaults returns the built-in lowest-precedence configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"version":   DefaultVersion,
		"entry":     DefaultEntry,
		"publisher": DefaultPublisher,
		"onefile":   false,
		exeBuilderKey: map[string]any{
			"clean":     true,
			"noconfirm": true,
		},
	}
}
