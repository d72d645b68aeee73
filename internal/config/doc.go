// Package config loads layered build configuration (JSON, YAML or TOML),
// merges it with CLI overrides and the active platform's override block,
// and resolves every relative path against the project root.
//
// Precedence, highest to lowest: CLI overrides > platform block > global
// file configuration > built-in defaults. The merged result is projected
// into an immutable EffectiveConfig used for the whole build invocation.
package config
