package darwin

import (
	"context"
	"path/filepath"

	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/runner"
)

// DMG wraps hdiutil to produce macOS disk images.
type DMG struct {
	run runner.Runner
}

// NewDMG creates the dmg packager.
func NewDMG(run runner.Runner) *DMG {
	return &DMG{run: run}
}

// Target implements packager.Packager.
func (p *DMG) Target() packager.Target {
	return packager.Target{Platform: packager.PlatformMacOS, Format: packager.FormatDMG}
}

// Package creates a compressed disk image from the executable-builder output.
func (p *DMG) Package(ctx context.Context, req *packager.Request) (string, error) {
	cfg := req.Config
	opts := cfg.InstallerOptions("dmg")

	volume := cfg.DisplayName
	if v, ok := opts["volume_name"].(string); ok && v != "" {
		volume = v
	}

	out := filepath.Join(req.OutputDir, packager.ArtifactName(cfg, "dmg"))
	if err := req.Ledger.PrepareWrite(ctx, out); err != nil {
		return "", err
	}

	if _, err := p.run.Run(ctx, "hdiutil", "create",
		"-volname", volume,
		"-srcfolder", req.SourcePath,
		"-ov",
		"-format", "UDZO",
		out,
	); err != nil {
		return "", err
	}

	return out, nil
}
