// Package exebuilder wraps the external executable-builder tool that
// turns the application entry point into a runnable artifact consumed
// by the installer packagers.
package exebuilder
