package linux

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/runner"
)

// Deb wraps dpkg-deb to produce Debian packages.
type Deb struct {
	run runner.Runner
}

// NewDeb creates the deb packager.
func NewDeb(run runner.Runner) *Deb {
	return &Deb{run: run}
}

// Target implements packager.Packager.
func (p *Deb) Target() packager.Target {
	return packager.Target{Platform: packager.PlatformLinux, Format: packager.FormatDeb}
}

// Package stages the payload under opt/<name>, writes the DEBIAN/control
// file and invokes dpkg-deb.
func (p *Deb) Package(ctx context.Context, req *packager.Request) (string, error) {
	cfg := req.Config
	opts := cfg.InstallerOptions("deb")

	staging := filepath.Join(cfg.WorkDir, "deb")
	payload := filepath.Join(staging, "opt", cfg.Name)

	if err := packager.StagePayload(req.SourcePath, payload); err != nil {
		return "", fmt.Errorf("stage deb payload: %w", err)
	}

	controlDir := filepath.Join(staging, "DEBIAN")
	if err := os.MkdirAll(controlDir, 0o755); err != nil {
		return "", fmt.Errorf("create control directory: %w", err)
	}

	control := controlFile(cfg.Name, cfg.Version, cfg.Publisher, cfg.DisplayName, opts)
	if err := os.WriteFile(filepath.Join(controlDir, "control"), []byte(control), 0o644); err != nil {
		return "", fmt.Errorf("write control file: %w", err)
	}

	out := filepath.Join(req.OutputDir, packager.ArtifactName(cfg, "deb"))
	if err := req.Ledger.PrepareWrite(ctx, out); err != nil {
		return "", err
	}

	if _, err := p.run.Run(ctx, "dpkg-deb", "--build", "--root-owner-group", staging, out); err != nil {
		return "", err
	}

	return out, nil
}

// controlFile renders the DEBIAN/control contents.
func controlFile(name, version, publisher, description string, opts map[string]any) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Package: %s\n", strings.ToLower(name))
	fmt.Fprintf(&b, "Version: %s\n", version)
	fmt.Fprintf(&b, "Architecture: %s\n", stringOpt(opts, "architecture", packager.Arch()))
	fmt.Fprintf(&b, "Maintainer: %s\n", stringOpt(opts, "maintainer", publisher))
	fmt.Fprintf(&b, "Section: %s\n", stringOpt(opts, "section", "utils"))
	fmt.Fprintf(&b, "Priority: %s\n", stringOpt(opts, "priority", "optional"))

	if depends := stringOpt(opts, "depends", ""); depends != "" {
		fmt.Fprintf(&b, "Depends: %s\n", depends)
	}

	fmt.Fprintf(&b, "Description: %s\n", stringOpt(opts, "description", description))

	return b.String()
}

// stringOpt reads an optional string from a per-tool options block.
func stringOpt(opts map[string]any, key, fallback string) string {
	if s, ok := opts[key].(string); ok && s != "" {
		return s
	}

	return fallback
}
