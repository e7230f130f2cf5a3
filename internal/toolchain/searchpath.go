package toolchain

import (
	"path/filepath"
	"strings"
	"sync"
)

// SearchPath is the ordered, append-only executable search path handed to
// every tool as PATH.
type SearchPath struct {
	mu      sync.Mutex
	entries []string
	seen    map[string]struct{}
}

// NewSearchPath returns a SearchPath seeded with dirs.
func NewSearchPath(dirs ...string) *SearchPath {
	p := &SearchPath{seen: make(map[string]struct{})}
	for _, d := range dirs {
		p.Add(d)
	}
	return p
}

// Add appends dir unless it is empty or already present.
func (p *SearchPath) Add(dir string) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen == nil {
		p.seen = make(map[string]struct{})
	}
	if _, ok := p.seen[dir]; ok {
		return
	}
	p.seen[dir] = struct{}{}
	p.entries = append(p.entries, dir)
}

// Entries returns a copy of the path in insertion order.
func (p *SearchPath) Entries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.entries))
	copy(out, p.entries)
	return out
}

func (p *SearchPath) String() string {
	return strings.Join(p.Entries(), string(filepath.ListSeparator))
}
