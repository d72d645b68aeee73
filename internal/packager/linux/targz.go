package linux

import (
	"context"
	"path/filepath"

	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/runner"
)

// TarGz wraps tar to produce compressed tarballs.
type TarGz struct {
	run runner.Runner
}

// NewTarGz creates the tarball packager.
func NewTarGz(run runner.Runner) *TarGz {
	return &TarGz{run: run}
}

// Target implements packager.Packager.
func (p *TarGz) Target() packager.Target {
	return packager.Target{Platform: packager.PlatformLinux, Format: packager.FormatTarGz}
}

// Package archives the executable-builder output as name-version-arch.tar.gz.
func (p *TarGz) Package(ctx context.Context, req *packager.Request) (string, error) {
	cfg := req.Config

	out := filepath.Join(req.OutputDir, packager.ArtifactName(cfg, "tar.gz"))
	if err := req.Ledger.PrepareWrite(ctx, out); err != nil {
		return "", err
	}

	if _, err := p.run.Run(ctx, "tar",
		"-czf", out,
		"-C", filepath.Dir(req.SourcePath),
		filepath.Base(req.SourcePath),
	); err != nil {
		return "", err
	}

	return out, nil
}
