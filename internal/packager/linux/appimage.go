package linux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/runner"
)

// AppImage wraps appimagetool to produce AppImage bundles.
type AppImage struct {
	run runner.Runner
}

// NewAppImage creates the appimage packager.
func NewAppImage(run runner.Runner) *AppImage {
	return &AppImage{run: run}
}

// Target implements packager.Packager.
func (p *AppImage) Target() packager.Target {
	return packager.Target{Platform: packager.PlatformLinux, Format: packager.FormatAppImage}
}

// Package lays out an AppDir (payload, desktop entry, AppRun launcher)
// and invokes appimagetool on it.
func (p *AppImage) Package(ctx context.Context, req *packager.Request) (string, error) {
	cfg := req.Config
	opts := cfg.InstallerOptions("appimage")

	appDir := filepath.Join(cfg.WorkDir, "appimage", cfg.Name+".AppDir")
	payload := filepath.Join(appDir, "usr", "bin")

	if err := packager.StageTree(req.SourcePath, filepath.Join(payload, cfg.Name)); err != nil {
		return "", fmt.Errorf("stage appimage payload: %w", err)
	}

	entrypoint := entrypointPath(cfg.Name, cfg.OneFile)

	appRun := fmt.Sprintf("#!/bin/sh\nexec \"$(dirname \"$0\")%s\" \"$@\"\n", entrypoint)
	if err := os.WriteFile(filepath.Join(appDir, "AppRun"), []byte(appRun), 0o755); err != nil {
		return "", fmt.Errorf("write AppRun: %w", err)
	}

	desktop := desktopEntry(cfg.Name, cfg.DisplayName, stringOpt(opts, "categories", "Utility"))
	if err := os.WriteFile(filepath.Join(appDir, cfg.Name+".desktop"), []byte(desktop), 0o644); err != nil {
		return "", fmt.Errorf("write desktop entry: %w", err)
	}

	if cfg.Icon != "" {
		icon := filepath.Join(appDir, cfg.Name+filepath.Ext(cfg.Icon))
		if err := packager.StageTree(cfg.Icon, icon); err != nil {
			return "", fmt.Errorf("stage icon: %w", err)
		}
	}

	out := filepath.Join(req.OutputDir, packager.ArtifactName(cfg, "AppImage"))
	if err := req.Ledger.PrepareWrite(ctx, out); err != nil {
		return "", err
	}

	if _, err := p.run.Run(ctx, "appimagetool", appDir, out); err != nil {
		return "", err
	}

	return out, nil
}

// entrypointPath locates the executable inside usr/bin relative to AppRun.
func entrypointPath(name string, oneFile bool) string {
	if oneFile {
		return "/usr/bin/" + name
	}

	return "/usr/bin/" + name + "/" + name
}

// desktopEntry renders the .desktop file required by appimagetool.
func desktopEntry(name, displayName, categories string) string {
	return fmt.Sprintf(
		"[Desktop Entry]\nType=Application\nName=%s\nExec=%s\nIcon=%s\nCategories=%s;\nTerminal=false\n",
		displayName, name, name, categories)
}
