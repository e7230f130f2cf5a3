package repository

import "strings"

// Repository layouts.
const (
	LayoutDefault = "default"
	LayoutHaxelib = "haxelib"
)

// Remote is a repository artifacts can be downloaded from.
type Remote struct {
	ID        string `json:"id" yaml:"id"`
	URL       string `json:"url" yaml:"url"`
	Layout    string `json:"layout,omitempty" yaml:"layout,omitempty"`
	Releases  bool   `json:"releases" yaml:"releases"`
	Snapshots bool   `json:"snapshots" yaml:"snapshots"`
}

// HaxelibRemote is the virtual repository standing in for lib.haxe.org.
// Nothing is downloaded from it over HTTP; managed artifacts are routed to
// the haxelib tool instead.
func HaxelibRemote() Remote {
	return Remote{
		ID:        "lib.haxe.org",
		URL:       "http://lib.haxe.org",
		Layout:    LayoutHaxelib,
		Releases:  false,
		Snapshots: true,
	}
}

// Serves reports whether r may be asked for the given version.
func (r Remote) Serves(version string) bool {
	if r.Layout != "" && r.Layout != LayoutDefault {
		return false
	}
	if strings.HasSuffix(version, "-SNAPSHOT") {
		return r.Snapshots
	}
	return r.Releases
}
