// Package darwin contains the macOS installer shells: dmg (hdiutil),
// pkg (pkgbuild) and zip (ditto).
package darwin
