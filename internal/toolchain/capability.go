package toolchain

import (
	"path/filepath"
	"runtime"
	"sort"
)

// Tool names.
const (
	Neko    = "neko"
	Haxe    = "haxe"
	Haxelib = "haxelib"
	NME     = "nme"
	MUnit   = "munit"
	ChxDoc  = "chxdoc"
)

// Layout selects where a tool distribution is unpacked.
type Layout int

const (
	// LayoutHome unpacks into <home>/<name>-<version>.
	LayoutHome Layout = iota
	// LayoutPackage unpacks into the haxelib repository.
	LayoutPackage
)

// Capability describes how one tool is laid out, launched and configured.
// Every tool shares the same Tool implementation; only this record varies.
type Capability struct {
	Name string
	// Mandatory tools abort the bootstrap when they cannot be initialized.
	Mandatory bool
	Layout    Layout
	// SharesWith names a tool whose install directory this tool reuses.
	SharesWith string
	// SetCurrent marks the package current and issues "haxelib set" after
	// the first install.
	SetCurrent bool
	// ProjectDir runs the tool from the project root instead of the output
	// directory.
	ProjectDir bool
	// Command returns the executable and leading arguments.
	Command func(t *Tool) (string, []string, error)
	// Env returns tool specific variables. PATH and HOME are added by Tool.
	Env func(t *Tool) ([]string, error)
}

var capabilities = map[string]Capability{
	Neko: {
		Name:      Neko,
		Mandatory: true,
		Command:   selfExecutable("neko"),
		Env: func(t *Tool) ([]string, error) {
			neko, err := t.InstalledPath()
			if err != nil {
				return nil, err
			}
			return []string{
				"NEKOPATH=" + neko,
				"LD_LIBRARY_PATH=" + neko + ":.",
				"DYLD_LIBRARY_PATH=" + neko + ":.",
			}, nil
		},
	},
	Haxe: {
		Name:      Haxe,
		Mandatory: true,
		Command:   selfExecutable("haxe"),
		Env: func(t *Tool) ([]string, error) {
			dirs, err := t.siblings(Haxe, Neko)
			if err != nil {
				return nil, err
			}
			return []string{
				"HAXEPATH=" + dirs[Haxe],
				"HAXE_STD_PATH=" + filepath.Join(dirs[Haxe], "std"),
				"NEKOPATH=" + dirs[Neko],
			}, nil
		},
	},
	Haxelib: {
		Name:       Haxelib,
		Mandatory:  true,
		SharesWith: Haxe,
		Command:    selfExecutable("haxelib"),
		Env: func(t *Tool) ([]string, error) {
			dirs, err := t.siblings(Haxe, Neko)
			if err != nil {
				return nil, err
			}
			return []string{
				"HAXEPATH=" + dirs[Haxe],
				"NEKOPATH=" + dirs[Neko],
				"LD_LIBRARY_PATH=" + dirs[Neko] + ":.",
				"DYLD_LIBRARY_PATH=" + dirs[Neko] + ":.",
			}, nil
		},
	},
	NME: {
		Name:       NME,
		Layout:     LayoutPackage,
		SetCurrent: true,
		Command: func(t *Tool) (string, []string, error) {
			dirs, err := t.siblings(Neko, NME)
			if err != nil {
				return "", nil, err
			}
			return executable(dirs[Neko], "neko"), []string{filepath.Join(dirs[NME], "run.n")}, nil
		},
		Env: func(t *Tool) ([]string, error) {
			dirs, err := t.siblings(Haxe, Neko, NME)
			if err != nil {
				return nil, err
			}
			return []string{
				"HAXEPATH=" + dirs[Haxe],
				"NEKOPATH=" + dirs[Neko],
				"NMEPATH=" + dirs[NME],
				"HAXE_LIBRARY_PATH=" + filepath.Join(dirs[Haxe], "std") + ":.",
				"LD_LIBRARY_PATH=" + dirs[Neko] + ":.",
				"DYLD_LIBRARY_PATH=" + dirs[Neko] + ":.",
			}, nil
		},
	},
	MUnit: {
		Name:       MUnit,
		ProjectDir: true,
		Command:    haxelibRun("munit"),
		Env: func(t *Tool) ([]string, error) {
			dirs, err := t.siblings(Haxe, Neko)
			if err != nil {
				return nil, err
			}
			env := []string{
				"HAXEPATH=" + dirs[Haxe],
				"NEKOPATH=" + dirs[Neko],
				"DYLD_LIBRARY_PATH=" + dirs[Neko] + ":.",
				"HAXE_LIBRARY_PATH=" + filepath.Join(dirs[Haxe], "std") + ":.",
			}
			if nme, ok := t.tc.Tool(NME); ok && nme.IsReady() {
				if dir, err := nme.InstalledPath(); err == nil {
					env = append(env, "NMEPATH="+dir)
				}
			}
			return env, nil
		},
	},
	ChxDoc: {
		Name:    ChxDoc,
		Command: haxelibRun("chxdoc"),
		Env: func(t *Tool) ([]string, error) {
			dirs, err := t.siblings(Haxe, Neko)
			if err != nil {
				return nil, err
			}
			return []string{
				"HAXEPATH=" + dirs[Haxe],
				"NEKOPATH=" + dirs[Neko],
				"HAXE_LIBRARY_PATH=" + filepath.Join(dirs[Haxe], "std") + ":.",
			}, nil
		},
	},
}

// Keys of the declared tool artifacts.
const (
	HaxeKey = "org.haxe.compiler:haxe-compiler"
	NekoKey = "org.nekovm:nekovm"
	NMEKey  = "org.haxenme:nme"
)

var toolKeys = map[string]string{
	HaxeKey: Haxe,
	NekoKey: Neko,
	NMEKey:  NME,
}

// ToolKeys returns a copy of the declared-key to tool-name table.
func ToolKeys() map[string]string {
	out := make(map[string]string, len(toolKeys))
	for k, v := range toolKeys {
		out[k] = v
	}
	return out
}

// LookupCapability returns the capability registered for name.
func LookupCapability(name string) (Capability, bool) {
	c, ok := capabilities[name]
	return c, ok
}

// KnownTools lists the tool names in the capability table.
func KnownTools() []string {
	names := make([]string, 0, len(capabilities))
	for name := range capabilities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToolForKey returns the tool provided by a declared group:name key.
func ToolForKey(key string) (string, bool) {
	name, ok := toolKeys[key]
	return name, ok
}

func selfExecutable(name string) func(t *Tool) (string, []string, error) {
	return func(t *Tool) (string, []string, error) {
		dir, err := t.InstalledPath()
		if err != nil {
			return "", nil, err
		}
		return executable(dir, name), nil, nil
	}
}

func haxelibRun(library string) func(t *Tool) (string, []string, error) {
	return func(t *Tool) (string, []string, error) {
		if _, err := t.InstalledPath(); err != nil {
			return "", nil, err
		}
		dirs, err := t.siblings(Haxelib)
		if err != nil {
			return "", nil, err
		}
		return executable(dirs[Haxelib], "haxelib"), []string{"run", library}, nil
	}
}

func executable(dir, name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name)
}
