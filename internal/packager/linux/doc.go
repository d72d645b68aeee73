// Package linux contains the Linux installer shells: deb (dpkg-deb),
// rpm (rpmbuild), AppImage (appimagetool) and tar.gz (tar).
package linux
