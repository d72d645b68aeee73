package darwin

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/runner"
)

// PKG wraps pkgbuild to produce macOS installer packages.
type PKG struct {
	run runner.Runner
}

// NewPKG creates the pkg packager.
func NewPKG(run runner.Runner) *PKG {
	return &PKG{run: run}
}

// Target implements packager.Packager.
func (p *PKG) Target() packager.Target {
	return packager.Target{Platform: packager.PlatformMacOS, Format: packager.FormatPKG}
}

// Package builds a component package installing the payload under
// /Applications.
func (p *PKG) Package(ctx context.Context, req *packager.Request) (string, error) {
	cfg := req.Config
	opts := cfg.InstallerOptions("pkg")

	identifier, ok := opts["identifier"].(string)
	if !ok || identifier == "" {
		identifier = fmt.Sprintf("com.%s.%s",
			sanitizeIdentifier(cfg.Publisher), sanitizeIdentifier(cfg.Name))
	}

	installLocation := "/Applications"
	if loc, ok := opts["install_location"].(string); ok && loc != "" {
		installLocation = loc
	}

	out := filepath.Join(req.OutputDir, packager.ArtifactName(cfg, "pkg"))
	if err := req.Ledger.PrepareWrite(ctx, out); err != nil {
		return "", err
	}

	if _, err := p.run.Run(ctx, "pkgbuild",
		"--root", req.SourcePath,
		"--identifier", identifier,
		"--version", cfg.Version,
		"--install-location", installLocation,
		out,
	); err != nil {
		return "", err
	}

	return out, nil
}

// sanitizeIdentifier lowercases and strips spaces for bundle identifiers.
func sanitizeIdentifier(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "-"))
}
