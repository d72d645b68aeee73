package builtin

import (
	"fmt"

	"github.com/oshokin/unipack/internal/packager"
	"github.com/oshokin/unipack/internal/packager/darwin"
	"github.com/oshokin/unipack/internal/packager/linux"
	"github.com/oshokin/unipack/internal/packager/windows"
	"github.com/oshokin/unipack/internal/runner"
)

// NewRegistry builds a registry populated with every built-in packager.
// It is called once at process start; custom packagers may be registered
// on the result before the first lookup.
func NewRegistry(run runner.Runner) (*packager.Registry, error) {
	reg := packager.NewRegistry()

	builtins := []packager.Packager{
		windows.NewInno(run),
		windows.NewMSI(run),
		darwin.NewDMG(run),
		darwin.NewPKG(run),
		darwin.NewZip(run),
		linux.NewDeb(run),
		linux.NewRPM(run),
		linux.NewAppImage(run),
		linux.NewTarGz(run),
	}

	for _, pkg := range builtins {
		pkg := pkg
		if err := reg.Register(pkg.Target(), func() packager.Packager { return pkg }); err != nil {
			return nil, fmt.Errorf("register built-in packagers: %w", err)
		}
	}

	return reg, nil
}
