// Package packager defines the (platform, format) target enumeration,
// the Packager contract implemented by every installer shell, and the
// registry that maps targets to packager constructors.
package packager
