package darwin

import (
	"context"
	"path/filepath"

	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/runner"
)

// Zip wraps ditto to produce macOS app archives.
type Zip struct {
	run runner.Runner
}

// NewZip creates the zip packager.
func NewZip(run runner.Runner) *Zip {
	return &Zip{run: run}
}

// Target implements packager.Packager.
func (p *Zip) Target() packager.Target {
	return packager.Target{Platform: packager.PlatformMacOS, Format: packager.FormatZip}
}

// Package archives the executable-builder output with resource forks
// preserved.
func (p *Zip) Package(ctx context.Context, req *packager.Request) (string, error) {
	cfg := req.Config

	out := filepath.Join(req.OutputDir, packager.ArtifactName(cfg, "zip"))
	if err := req.Ledger.PrepareWrite(ctx, out); err != nil {
		return "", err
	}

	if _, err := p.run.Run(ctx, "ditto",
		"-c", "-k", "--keepParent",
		req.SourcePath,
		out,
	); err != nil {
		return "", err
	}

	return out, nil
}
