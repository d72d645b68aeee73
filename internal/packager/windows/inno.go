package windows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/runner"
)

// Inno wraps the Inno Setup compiler (ISCC) to produce Windows EXE installers.
type Inno struct {
	run runner.Runner
}

// NewInno creates the Inno Setup packager.
func NewInno(run runner.Runner) *Inno {
	return &Inno{run: run}
}

// Target implements packager.Packager.
func (p *Inno) Target() packager.Target {
	return packager.Target{Platform: packager.PlatformWindows, Format: packager.FormatExe}
}

// Package renders an .iss script into the work directory and compiles it.
// The compiler path may be overridden with the inno_setup.path option for
// non-standard installations.
func (p *Inno) Package(ctx context.Context, req *packager.Request) (string, error) {
	cfg := req.Config
	opts := cfg.InstallerOptions("inno_setup")

	script := issScript(cfg.Name, cfg.DisplayName, cfg.Version, cfg.Publisher, req.SourcePath, cfg.OneFile, opts)
	scriptPath := filepath.Join(cfg.WorkDir, "setup.iss")

	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		return "", fmt.Errorf("write setup script: %w", err)
	}

	base := fmt.Sprintf("%s-%s-%s", cfg.Name, cfg.Version, packager.Arch())
	out := filepath.Join(req.OutputDir, base+".exe")

	if err := req.Ledger.PrepareWrite(ctx, out); err != nil {
		return "", err
	}

	compiler := "ISCC"
	if path, ok := opts["path"].(string); ok && path != "" {
		compiler = path
	}

	if _, err := p.run.Run(ctx, compiler,
		"/Q",
		"/O"+req.OutputDir,
		"/F"+base,
		scriptPath,
	); err != nil {
		return "", err
	}

	return out, nil
}

// issScript renders a minimal Inno Setup script for the staged payload.
func issScript(name, displayName, version, publisher, source string, oneFile bool, opts map[string]any) string {
	var b strings.Builder

	b.WriteString("[Setup]\n")
	fmt.Fprintf(&b, "AppName=%s\n", displayName)
	fmt.Fprintf(&b, "AppVersion=%s\n", version)
	fmt.Fprintf(&b, "AppPublisher=%s\n", publisher)
	fmt.Fprintf(&b, "DefaultDirName={autopf}\\%s\n", name)
	fmt.Fprintf(&b, "DefaultGroupName=%s\n", displayName)

	if icon, ok := opts["setup_icon"].(string); ok && icon != "" {
		fmt.Fprintf(&b, "SetupIconFile=%s\n", icon)
	}

	b.WriteString("Compression=lzma2\nSolidCompression=yes\n\n[Files]\n")

	if oneFile {
		fmt.Fprintf(&b, "Source: \"%s\"; DestDir: \"{app}\"; Flags: ignoreversion\n", source)
	} else {
		fmt.Fprintf(&b, "Source: \"%s\\*\"; DestDir: \"{app}\"; Flags: ignoreversion recursesubdirs\n", source)
	}

	b.WriteString("\n[Icons]\n")
	fmt.Fprintf(&b, "Name: \"{group}\\%s\"; Filename: \"{app}\\%s.exe\"\n", displayName, name)

	return b.String()
}
