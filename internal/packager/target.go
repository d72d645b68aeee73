package packager

import (
	"fmt"
	"sort"
	"strings"
)

// Platform is a supported operating system family.
type Platform string

const (
	// PlatformWindows targets Windows installers.
	PlatformWindows Platform = "windows"
	// PlatformMacOS targets macOS installers.
	PlatformMacOS Platform = "macos"
	// PlatformLinux targets Linux installers.
	PlatformLinux Platform = "linux"
)

// Format is a supported installer output format.
type Format string

const (
	// FormatExe is a Windows Inno Setup installer.
	FormatExe Format = "exe"
	// FormatMSI is a Windows MSI package.
	FormatMSI Format = "msi"
	// FormatDMG is a macOS disk image.
	FormatDMG Format = "dmg"
	// FormatPKG is a macOS installer package.
	FormatPKG Format = "pkg"
	// FormatZip is a macOS app archive.
	FormatZip Format = "zip"
	// FormatDeb is a Debian package.
	FormatDeb Format = "deb"
	// FormatRPM is an RPM package.
	FormatRPM Format = "rpm"
	// FormatAppImage is a Linux AppImage.
	FormatAppImage Format = "appimage"
	// FormatTarGz is a Linux tarball.
	FormatTarGz Format = "targz"
)

// Target is a closed (platform, format) pair. Configuration strings are
// validated and converted to a Target once, at config-resolution time.
type Target struct {
	// Platform is the operating system family.
	Platform Platform
	// Format is the installer output format.
	Format Format
}

// String renders the target as "platform/format".
func (t Target) String() string {
	return fmt.Sprintf("%s/%s", t.Platform, t.Format)
}

// knownTargets enumerates every valid (platform, format) pair.
//
//nolint:gochecknoglobals // Closed enumeration, never mutated.
var knownTargets = map[Target]bool{
	{PlatformWindows, FormatExe}:    true,
	{PlatformWindows, FormatMSI}:    true,
	{PlatformMacOS, FormatDMG}:      true,
	{PlatformMacOS, FormatPKG}:      true,
	{PlatformMacOS, FormatZip}:      true,
	{PlatformLinux, FormatDeb}:      true,
	{PlatformLinux, FormatRPM}:      true,
	{PlatformLinux, FormatAppImage}: true,
	{PlatformLinux, FormatTarGz}:    true,
}

// ParseTarget validates a platform and format string pair and converts it
// into a Target.
func ParseTarget(platform, format string) (Target, error) {
	target := Target{
		Platform: Platform(strings.ToLower(strings.TrimSpace(platform))),
		Format:   Format(strings.ToLower(strings.TrimSpace(format))),
	}

	if !knownTargets[target] {
		return Target{}, &UnsupportedFormatError{
			Platform:   target.Platform,
			Format:     target.Format,
			Registered: KnownFormats(target.Platform),
		}
	}

	return target, nil
}

// KnownFormats lists the valid formats for a platform, sorted by name.
func KnownFormats(platform Platform) []Format {
	var formats []Format

	for target := range knownTargets {
		if target.Platform == platform {
			formats = append(formats, target.Format)
		}
	}

	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })

	return formats
}
