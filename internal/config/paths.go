package config

import (
	"context"
	"fmt"
	"os"

	"github.com/oshokin/unipack/internal/logger"
)

var (
	// scalarPathFields are single-file configuration keys rewritten
	// to absolute paths anchored at the project root.
	//nolint:gochecknoglobals // Fixed field enumeration, never mutated.
	scalarPathFields = []string{
		"entry",
		"icon",
		"license",
		"readme",
		"setup_icon",
		"setup-icon",
		"version_file",
		"version-file",
	}

	// listPathFields are list-valued keys whose entries follow the
	// "source<sep>dest" convention; only the source half is rewritten.
	//nolint:gochecknoglobals // Fixed field enumeration, never mutated.
	listPathFields = []string{
		"add_data",
		"add-data",
		"add_binary",
		"add-binary",
	}

	// mandatoryPathFields must exist on disk after resolution.
	// Missing optional resources (icon, readme) are warnings instead.
	//nolint:gochecknoglobals // Fixed field enumeration, never mutated.
	mandatoryPathFields = map[string]bool{
		"entry": true,
	}
)

// ResolvePaths rewrites every relative path-valued field in the merged
// configuration to an absolute path anchored at projectRoot. It walks the
// fixed field enumeration at the global level, inside the executable-builder
// block and inside every platform override block. Resolution is idempotent:
// already-absolute values pass through untouched.
//
// Existence rules: mandatory fields (entry) and list-field sources in the
// active scope fail with a ConfigError when missing; optional resources log
// a warning.
func ResolvePaths(ctx context.Context, cfg *EffectiveConfig, projectRoot string) error {
	if err := resolveScope(ctx, cfg.merged, projectRoot, true); err != nil {
		return err
	}

	// Platform blocks are rewritten for consistency but not
	// existence-checked here: the active platform's fields were already
	// enforced through the merged tree, and resources of other platforms
	// only matter on their own platform.
	for _, block := range cfg.Platforms {
		if err := resolveScope(ctx, block, projectRoot, false); err != nil {
			return err
		}
	}

	cfg.Entry, _ = cfg.merged["entry"].(string)
	cfg.Icon, _ = cfg.merged["icon"].(string)
	cfg.License, _ = cfg.merged["license"].(string)
	cfg.Readme, _ = cfg.merged["readme"].(string)

	return nil
}

// resolveScope rewrites the path fields of one configuration map level
// and of its nested executable-builder block.
func resolveScope(ctx context.Context, scope map[string]any, projectRoot string, enforce bool) error {
	for _, field := range scalarPathFields {
		if err := resolveScalar(ctx, scope, field, projectRoot, enforce); err != nil {
			return err
		}
	}

	for _, field := range listPathFields {
		if err := resolveList(scope, field, projectRoot, enforce); err != nil {
			return err
		}
	}

	if nested, ok := scope[exeBuilderKey].(map[string]any); ok {
		if err := resolveScope(ctx, nested, projectRoot, enforce); err != nil {
			return err
		}
	}

	return nil
}

// resolveScalar rewrites one single-file field in place.
func resolveScalar(ctx context.Context, scope map[string]any, field, projectRoot string, enforce bool) error {
	v, ok := scope[field]
	if !ok || v == nil {
		return nil
	}

	value, ok := v.(string)
	if !ok {
		return newConfigError(field, "expected a string path, got %T", v)
	}

	if value == "" {
		return nil
	}

	resolved := anchorPath(value, projectRoot)
	scope[field] = resolved

	if !enforce {
		return nil
	}

	if _, err := os.Stat(resolved); err != nil {
		if mandatoryPathFields[field] {
			return newConfigError(field, "file does not exist: %s", resolved)
		}

		logger.WarnKV(ctx, "Configured resource does not exist", "field", field, "path", resolved)
	}

	return nil
}

// resolveList rewrites the source component of every "source<sep>dest"
// entry of one list field, preserving the destination and the separator
// character used by the caller.
func resolveList(scope map[string]any, field, projectRoot string, enforce bool) error {
	v, ok := scope[field]
	if !ok || v == nil {
		return nil
	}

	list, ok := v.([]any)
	if !ok {
		return newConfigError(field, "expected a list, got %T", v)
	}

	for i, item := range list {
		entry, ok := item.(string)
		if !ok {
			return newConfigError(field, "expected a list of strings, got element %T", item)
		}

		source, dest, sep := splitSourceDest(entry)
		resolved := anchorPath(source, projectRoot)

		if enforce {
			if _, err := os.Stat(resolved); err != nil {
				return newConfigError(field, "source does not exist: %s", resolved)
			}
		}

		if sep == 0 {
			list[i] = resolved
			continue
		}

		list[i] = fmt.Sprintf("%s%c%s", resolved, sep, dest)
	}

	return nil
}

// splitSourceDest splits a "source<sep>dest" list entry on the first ':'
// or ';' that is not a Windows drive designator. A colon counts as a drive
// designator when it follows a single leading ASCII letter and is itself
// followed by a path separator or ends the component ("C:", `C:\x`, "C:/x").
// A zero separator means the entry carries no destination component.
func splitSourceDest(entry string) (source, dest string, sep byte) {
	for i := 0; i < len(entry); i++ {
		switch entry[i] {
		case ';':
			return entry[:i], entry[i+1:], ';'
		case ':':
			if isDriveColon(entry, i) {
				continue
			}

			return entry[:i], entry[i+1:], ':'
		}
	}

	return entry, "", 0
}

// isDriveColon reports whether the colon at index i designates a drive
// letter rather than a source/dest separator.
func isDriveColon(entry string, i int) bool {
	if i != 1 {
		return false
	}

	first := entry[0]
	if !(first >= 'a' && first <= 'z' || first >= 'A' && first <= 'Z') {
		return false
	}

	return i+1 == len(entry) || entry[i+1] == '\\' || entry[i+1] == '/'
}
