package packager

import (
	"context"
	"fmt"
	"runtime"

	"github.com/oshokin/unipack/internal/config"
	"github.com/oshokin/unipack/internal/ledger"
)

// Request carries everything a packager needs to produce one installer.
type Request struct {
	// Config is the effective configuration of the invocation.
	Config *config.EffectiveConfig
	// SourcePath is the executable-builder output artifact
	// (a single file or a directory).
	SourcePath string
	// OutputDir is where the installer artifact must be written.
	OutputDir string
	// Ledger records the artifact writes performed by the packager.
	Ledger *ledger.Ledger
}

// Packager wraps one external installer-generation tool for one
// (platform, format) pair.
type Packager interface {
	// Target identifies the (platform, format) pair this packager handles.
	Target() Target
	// Package produces one installer artifact and returns its path.
	Package(ctx context.Context, req *Request) (string, error)
}

// ArtifactName builds the conventional installer filename:
// "<name>-<version>-<arch>.<ext>".
func ArtifactName(cfg *config.EffectiveConfig, ext string) string {
	return fmt.Sprintf("%s-%s-%s.%s", cfg.Name, cfg.Version, Arch(), ext)
}

// Arch returns the normalized machine architecture used in artifact names.
func Arch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "amd64"
	case "arm64":
		return "arm64"
	case "386":
		return "i386"
	default:
		return runtime.GOARCH
	}
}
