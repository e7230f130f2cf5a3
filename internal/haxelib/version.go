package haxelib

import "strings"

// CleanVersion drops everything from the first hyphen on, so "1.2.0-SNAPSHOT"
// and "1.2.0" refer to the same package release.
func CleanVersion(version string) string {
	if i := strings.IndexByte(version, '-'); i >= 0 {
		return version[:i]
	}
	return version
}

// NormalizeVersion maps a version onto the directory name haxelib uses.
func NormalizeVersion(version string) string {
	return strings.ReplaceAll(CleanVersion(version), ".", ",")
}
