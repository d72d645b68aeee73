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

// RPM wraps rpmbuild to produce RPM packages.
type RPM struct {
	run runner.Runner
}

// NewRPM creates the rpm packager.
func NewRPM(run runner.Runner) *RPM {
	return &RPM{run: run}
}

// Target implements packager.Packager.
func (p *RPM) Target() packager.Target {
	return packager.Target{Platform: packager.PlatformLinux, Format: packager.FormatRPM}
}

// Package stages the payload, renders a spec file and invokes rpmbuild,
// then moves the produced package into the output directory.
func (p *RPM) Package(ctx context.Context, req *packager.Request) (string, error) {
	cfg := req.Config
	opts := cfg.InstallerOptions("rpm")

	topDir := filepath.Join(cfg.WorkDir, "rpm")
	buildRoot := filepath.Join(topDir, "BUILDROOT")
	payload := filepath.Join(buildRoot, "opt", cfg.Name)

	if err := packager.StagePayload(req.SourcePath, payload); err != nil {
		return "", fmt.Errorf("stage rpm payload: %w", err)
	}

	specPath := filepath.Join(topDir, cfg.Name+".spec")
	spec := specFile(cfg.Name, cfg.Version, cfg.Publisher, cfg.DisplayName, opts)

	if err := os.WriteFile(specPath, []byte(spec), 0o644); err != nil {
		return "", fmt.Errorf("write spec file: %w", err)
	}

	if _, err := p.run.Run(ctx, "rpmbuild",
		"-bb",
		"--define", "_topdir "+topDir,
		"--buildroot", buildRoot,
		"--target", rpmArch(),
		specPath,
	); err != nil {
		return "", err
	}

	produced := filepath.Join(topDir, "RPMS", rpmArch(),
		fmt.Sprintf("%s-%s-1.%s.rpm", strings.ToLower(cfg.Name), cfg.Version, rpmArch()))
	out := filepath.Join(req.OutputDir, packager.ArtifactName(cfg, "rpm"))

	if err := req.Ledger.Move(ctx, produced, out); err != nil {
		return "", err
	}

	return out, nil
}

// specFile renders a minimal binary-only RPM spec.
func specFile(name, version, publisher, description string, opts map[string]any) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", strings.ToLower(name))
	fmt.Fprintf(&b, "Version: %s\n", version)
	b.WriteString("Release: 1\n")
	fmt.Fprintf(&b, "Summary: %s\n", stringOpt(opts, "summary", description))
	fmt.Fprintf(&b, "License: %s\n", stringOpt(opts, "license", "Proprietary"))
	fmt.Fprintf(&b, "Vendor: %s\n", stringOpt(opts, "vendor", publisher))

	if requires := stringOpt(opts, "requires", ""); requires != "" {
		fmt.Fprintf(&b, "Requires: %s\n", requires)
	}

	b.WriteString("AutoReqProv: no\n")
	b.WriteString("\n%description\n")
	fmt.Fprintf(&b, "%s\n", stringOpt(opts, "description", description))
	b.WriteString("\n%files\n")
	fmt.Fprintf(&b, "/opt/%s\n", name)

	return b.String()
}

// rpmArch maps the build architecture to rpm's naming.
func rpmArch() string {
	switch packager.Arch() {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	default:
		return packager.Arch()
	}
}
