package windows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/runner"
)

// MSI wraps the WiX toolset to produce Windows MSI packages.
type MSI struct {
	run runner.Runner
}

// NewMSI creates the msi packager.
func NewMSI(run runner.Runner) *MSI {
	return &MSI{run: run}
}

// Target implements packager.Packager.
func (p *MSI) Target() packager.Target {
	return packager.Target{Platform: packager.PlatformWindows, Format: packager.FormatMSI}
}

// Package renders a WiX source file and invokes `wix build`. The upgrade
// code may be pinned with the msi.upgrade_code option; otherwise a random
// one is generated per build.
func (p *MSI) Package(ctx context.Context, req *packager.Request) (string, error) {
	cfg := req.Config
	opts := cfg.InstallerOptions("msi")

	upgradeCode, ok := opts["upgrade_code"].(string)
	if !ok || upgradeCode == "" {
		upgradeCode = uuid.NewString()
	}

	wxs := wxsSource(cfg.Name, cfg.DisplayName, cfg.Version, cfg.Publisher, req.SourcePath, upgradeCode)
	wxsPath := filepath.Join(cfg.WorkDir, "product.wxs")

	if err := os.WriteFile(wxsPath, []byte(wxs), 0o644); err != nil {
		return "", fmt.Errorf("write wix source: %w", err)
	}

	out := filepath.Join(req.OutputDir, packager.ArtifactName(cfg, "msi"))
	if err := req.Ledger.PrepareWrite(ctx, out); err != nil {
		return "", err
	}

	if _, err := p.run.Run(ctx, "wix", "build", "-o", out, wxsPath); err != nil {
		return "", err
	}

	return out, nil
}

// wxsSource renders a minimal single-directory WiX authoring.
func wxsSource(name, displayName, version, publisher, source, upgradeCode string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Wix xmlns="http://wixtoolset.org/schemas/v4/wxs">
  <Package Name=%q Version=%q Manufacturer=%q UpgradeCode=%q>
    <MajorUpgrade DowngradeErrorMessage="A newer version of %s is already installed." />
    <StandardDirectory Id="ProgramFiles64Folder">
      <Directory Id="INSTALLFOLDER" Name=%q>
        <Files Include="%s\**" />
      </Directory>
    </StandardDirectory>
  </Package>
</Wix>
`, displayName, version, publisher, upgradeCode, displayName, name, source)
}
