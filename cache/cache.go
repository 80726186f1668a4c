package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/fs"
	"github.com/podhmo/vsharp/parser"
)

type entry struct {
	modTime time.Time
	size    int64
	program *ast.Program
}

// ProgramCache holds parsed programs keyed by path. An entry is reused as
// long as the file's modification time and size are unchanged.
// It is safe for concurrent use.
type ProgramCache struct {
	mu      sync.RWMutex
	fsys    fs.FS
	entries map[string]*entry
	hits    int
	misses  int
}

// NewProgramCache creates a cache that reads sources from fsys.
func NewProgramCache(fsys fs.FS) *ProgramCache {
	if fsys == nil {
		fsys = fs.NewOSFS()
	}
	return &ProgramCache{fsys: fsys, entries: make(map[string]*entry)}
}

// Load returns the parsed program at path, parsing it if the cached copy
// is missing or stale. Parse errors are returned as is and never cached.
func (pc *ProgramCache) Load(path string) (*ast.Program, error) {
	info, err := pc.fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	pc.mu.RLock()
	e, ok := pc.entries[path]
	pc.mu.RUnlock()
	if ok && e.modTime.Equal(info.ModTime()) && e.size == info.Size() {
		pc.mu.Lock()
		pc.hits++
		pc.mu.Unlock()
		return e.program, nil
	}

	src, err := pc.fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	prog, err := parser.ParseString(string(src))
	if err != nil {
		return nil, err
	}

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.misses++
	pc.entries[path] = &entry{modTime: info.ModTime(), size: info.Size(), program: prog}
	return prog, nil
}

// Invalidate drops the entry for path.
func (pc *ProgramCache) Invalidate(path string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	delete(pc.entries, path)
}

// Len returns the number of cached programs.
func (pc *ProgramCache) Len() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.entries)
}

// Stats returns the number of cache hits and misses so far.
func (pc *ProgramCache) Stats() (hits, misses int) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.hits, pc.misses
}
