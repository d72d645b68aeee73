package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/oshokin/unipack/internal/logger"
)

// MergeInput carries everything Merge needs to produce an EffectiveConfig.
type MergeInput struct {
	// Raw is the layered file configuration as returned by Load (may be nil).
	Raw map[string]any
	// Platform is the active platform name, usually DetectPlatform().
	Platform string
	// Overrides holds CLI-supplied values, the highest precedence layer.
	Overrides map[string]any
	// ProjectRoot anchors every relative path in the configuration.
	ProjectRoot string
	// FallbackName is used when no layer supplies an application name
	// (conventionally the project directory basename).
	FallbackName string
}

// Merge combines the built-in defaults, the global file configuration,
// the active platform's override block and the CLI overrides into one
// EffectiveConfig. Precedence, highest to lowest: CLI > platform block >
// global > defaults. Nested maps merge key-by-key; arrays are replaced
// wholesale by the more specific layer. Path resolution runs exactly once
// on the merged result.
func Merge(ctx context.Context, in MergeInput) (*EffectiveConfig, error) {
	projectRoot, err := filepath.Abs(in.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}

	global := globalLayer(in.Raw)
	platformBlock := platformLayer(in.Raw, in.Platform)

	warnDuplicateKeys(ctx, global, platformBlock)

	merged := deepMerge(defaults(), global)
	merged = deepMerge(merged, platformBlock)
	merged = deepMerge(merged, normalizeTree(in.Overrides))

	if _, ok := merged["name"]; !ok && in.FallbackName != "" {
		merged["name"] = in.FallbackName
	}

	cfg := &EffectiveConfig{
		Platform: in.Platform,
		merged:   merged,
	}

	if err = projectFields(cfg, merged, in.Raw, projectRoot); err != nil {
		return nil, err
	}

	if err = validate(cfg); err != nil {
		return nil, err
	}

	// Exactly-once path resolution on the merged tree.
	if err = ResolvePaths(ctx, cfg, projectRoot); err != nil {
		return nil, err
	}

	return cfg, nil
}

// globalLayer extracts the top-level keys of the raw configuration,
// excluding the per-platform blocks.
func globalLayer(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))

	for k, v := range raw {
		if k == platformsKey || k == platformsLegacyKey {
			continue
		}

		out[k] = v
	}

	return out
}

// platformLayer extracts the override block for the active platform,
// accepting both the current and the legacy spelling of the section.
func platformLayer(raw map[string]any, platform string) map[string]any {
	for _, section := range []string{platformsKey, platformsLegacyKey} {
		blocks, ok := raw[section].(map[string]any)
		if !ok {
			continue
		}

		if block, ok := blocks[platform].(map[string]any); ok {
			return block
		}
	}

	return map[string]any{}
}

// warnDuplicateKeys logs a warning for every scalar key configured in both
// the global section and the active platform block. The platform value wins,
// but the duplication usually signals a config file that drifted.
func warnDuplicateKeys(ctx context.Context, global, platformBlock map[string]any) {
	var duplicates []string

	for key := range platformBlock {
		if _, ok := global[key]; !ok {
			continue
		}

		if _, nested := platformBlock[key].(map[string]any); nested {
			continue
		}

		duplicates = append(duplicates, key)
	}

	sort.Strings(duplicates)

	for _, key := range duplicates {
		logger.WarnKV(ctx, "Key set in both global and platform config, platform value wins", "key", key)
	}
}

// deepMerge returns a new tree where src overrides dst. Maps merge
// recursively; arrays and scalars from src replace dst wholesale.
func deepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))

	for k, v := range dst {
		out[k] = v
	}

	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := out[k].(map[string]any)

		if srcIsMap && dstIsMap {
			out[k] = deepMerge(dstMap, srcMap)
			continue
		}

		out[k] = v
	}

	return out
}

// projectFields copies the typed fields out of the merged tree.
func projectFields(cfg *EffectiveConfig, merged, raw map[string]any, projectRoot string) error {
	var err error

	if cfg.Name, err = stringField(merged, "name"); err != nil {
		return err
	}

	if cfg.DisplayName, err = stringField(merged, "display_name"); err != nil {
		return err
	}

	if cfg.DisplayName == "" {
		cfg.DisplayName = cfg.Name
	}

	if cfg.Version, err = stringField(merged, "version"); err != nil {
		return err
	}

	if cfg.Publisher, err = stringField(merged, "publisher"); err != nil {
		return err
	}

	if cfg.OneFile, err = boolField(merged, "onefile"); err != nil {
		return err
	}

	if cfg.SkipExeBuilder, err = boolField(merged, "skip_exe"); err != nil {
		return err
	}

	if cfg.SkipInstallers, err = boolField(merged, "skip_installer"); err != nil {
		return err
	}

	if cfg.Formats, err = stringListField(merged, "formats"); err != nil {
		return err
	}

	outputDir, err := stringField(merged, "output_dir")
	if err != nil {
		return err
	}

	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	workDir, err := stringField(merged, "work_dir")
	if err != nil {
		return err
	}

	if workDir == "" {
		workDir = DefaultWorkDir
	}

	cfg.OutputDir = anchorPath(outputDir, projectRoot)
	cfg.WorkDir = anchorPath(workDir, projectRoot)

	if block, ok := merged[exeBuilderKey].(map[string]any); ok {
		cfg.ExeBuilder = block
	} else {
		cfg.ExeBuilder = map[string]any{}
	}

	cfg.Platforms = allPlatformBlocks(raw)

	return nil
}

// allPlatformBlocks collects every platform override block from the raw
// file configuration, keyed by platform name.
func allPlatformBlocks(raw map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any)

	for _, section := range []string{platformsLegacyKey, platformsKey} {
		blocks, ok := raw[section].(map[string]any)
		if !ok {
			continue
		}

		for name, block := range blocks {
			if typed, ok := block.(map[string]any); ok {
				out[name] = typed
			}
		}
	}

	return out
}

// validate checks required fields after the merge.
func validate(cfg *EffectiveConfig) error {
	if cfg.Name == "" {
		return newConfigError("name", "required field is missing")
	}

	entry, err := stringField(cfg.merged, "entry")
	if err != nil {
		return err
	}

	if entry == "" {
		return newConfigError("entry", "required field is missing")
	}

	return nil
}

// stringField reads an optional string key, rejecting mistyped values.
func stringField(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}

	s, ok := v.(string)
	if !ok {
		return "", newConfigError(key, "expected a string, got %T", v)
	}

	return s, nil
}

// boolField reads an optional boolean key, rejecting mistyped values.
func boolField(m map[string]any, key string) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, nil
	}

	b, ok := v.(bool)
	if !ok {
		return false, newConfigError(key, "expected a boolean, got %T", v)
	}

	return b, nil
}

// stringListField reads an optional list-of-strings key,
// rejecting scalars and mixed-type lists.
func stringListField(m map[string]any, key string) ([]string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}

	list, ok := v.([]any)
	if !ok {
		return nil, newConfigError(key, "expected a list, got %T", v)
	}

	out := make([]string, 0, len(list))

	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, newConfigError(key, "expected a list of strings, got element %T", item)
		}

		out = append(out, s)
	}

	return out, nil
}

// anchorPath joins a relative path to the project root; absolute paths
// pass through untouched.
func anchorPath(path, projectRoot string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(projectRoot, path)
}
