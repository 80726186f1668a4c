package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/podhmo/vsharp/fs"
)

func TestProgramCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.vs")
	if err := os.WriteFile(path, []byte("set x = 1\nx"), 0o644); err != nil {
		t.Fatal(err)
	}

	pc := NewProgramCache(fs.NewOSFS())
	first, err := pc.Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	second, err := pc.Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if first != second {
		t.Errorf("an unchanged file should be served from the cache")
	}
	if hits, misses := pc.Stats(); hits != 1 || misses != 1 {
		t.Errorf("Stats() = %d hits, %d misses; want 1, 1", hits, misses)
	}

	if err := os.WriteFile(path, []byte("set x = 22\nx"), 0o644); err != nil {
		t.Fatal(err)
	}
	third, err := pc.Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if third == first {
		t.Errorf("a changed file should be parsed again")
	}

	pc.Invalidate(path)
	if pc.Len() != 0 {
		t.Errorf("Len() = %d after Invalidate, want 0", pc.Len())
	}
}

func TestProgramCacheParseError(t *testing.T) {
	pc := NewProgramCache(fs.NewMapFS(map[string]string{"bad.vs": "set = 1"}))
	if _, err := pc.Load("bad.vs"); err == nil {
		t.Fatalf("expected a syntax error")
	}
	if pc.Len() != 0 {
		t.Errorf("failed parses must not be cached")
	}
}

func TestProgramCacheConcurrent(t *testing.T) {
	pc := NewProgramCache(fs.NewMapFS(map[string]string{
		"a.vs": "set a = 1",
		"b.vs": "set b = 2",
	}))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "a.vs"
			if i%2 == 0 {
				name = "b.vs"
			}
			if _, err := pc.Load(name); err != nil {
				t.Errorf("Load(%s) failed: %v", name, err)
			}
		}(i)
	}
	wg.Wait()
	if pc.Len() != 2 {
		t.Errorf("Len() = %d, want 2", pc.Len())
	}
}

func TestCheckedCache(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state", "checked.json")
	c := NewCheckedCache(file)
	if err := c.Load(); err != nil {
		t.Fatalf("Load() of a missing file failed: %v", err)
	}
	src := []byte("set x = 1")
	c.Mark("/p/main.vs", src, []string{"/p/lib/util.vs"})
	if err := c.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	existing := map[string]bool{"/p/lib/util.vs": true}
	exists := func(path string) bool { return existing[path] }

	reloaded := NewCheckedCache(file)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !reloaded.Fresh("/p/main.vs", src, exists) {
		t.Errorf("expected the marked file to be fresh")
	}
	if reloaded.Fresh("/p/main.vs", []byte("set x = 2"), exists) {
		t.Errorf("changed content must not be fresh")
	}
	delete(existing, "/p/lib/util.vs")
	if reloaded.Fresh("/p/main.vs", src, exists) {
		t.Errorf("a file whose import was removed must not be fresh")
	}
	existing["/p/lib/util.vs"] = true
	reloaded.Forget("/p/main.vs")
	if reloaded.Fresh("/p/main.vs", src, exists) {
		t.Errorf("forgotten files must not be fresh")
	}

	disabled := NewCheckedCache("")
	if disabled.IsEnabled() || disabled.Save() != nil || disabled.Load() != nil {
		t.Errorf("a disabled cache should be a no-op")
	}
}
