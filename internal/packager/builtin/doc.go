// Package builtin wires every built-in installer shell into an explicitly
// constructed registry, avoiding hidden registration through import side
// effects.
package builtin
