package locator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupProject creates a temporary project with the given manifest file
// and sub directories. It returns the root directory.
func setupProject(t *testing.T, manifest string, subDirs ...string) string {
	t.Helper()
	rootDir := t.TempDir()
	if manifest != "" {
		if err := os.WriteFile(filepath.Join(rootDir, manifest), []byte("name: test\n"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", manifest, err)
		}
	}
	for _, p := range subDirs {
		if err := os.MkdirAll(filepath.Join(rootDir, p), 0755); err != nil {
			t.Fatalf("Failed to create sub dir %s: %v", p, err)
		}
	}
	return rootDir
}

func TestNew(t *testing.T) {
	t.Run("from_subdirectory", func(t *testing.T) {
		rootDir := setupProject(t, "vsharp.yaml", filepath.Join("src", "lib"))

		l, err := New(filepath.Join(rootDir, "src", "lib"))
		if err != nil {
			t.Fatalf("New() returned an error: %v", err)
		}
		if l.RootDir() != rootDir {
			t.Errorf("Expected root dir %q, got %q", rootDir, l.RootDir())
		}
		if want := filepath.Join(rootDir, "vsharp.yaml"); l.ManifestPath() != want {
			t.Errorf("Expected manifest %q, got %q", want, l.ManifestPath())
		}
	})

	t.Run("from_file", func(t *testing.T) {
		rootDir := setupProject(t, "vsharp.toml", "src")
		script := filepath.Join(rootDir, "src", "main.vs")
		if err := os.WriteFile(script, []byte("1"), 0644); err != nil {
			t.Fatal(err)
		}

		l, err := New(script)
		if err != nil {
			t.Fatalf("New() returned an error: %v", err)
		}
		if l.RootDir() != rootDir {
			t.Errorf("Expected root dir %q, got %q", rootDir, l.RootDir())
		}
		if !strings.HasSuffix(l.ManifestPath(), "vsharp.toml") {
			t.Errorf("Expected a toml manifest, got %q", l.ManifestPath())
		}
	})

	t.Run("yaml_wins_over_toml", func(t *testing.T) {
		rootDir := setupProject(t, "vsharp.toml")
		if err := os.WriteFile(filepath.Join(rootDir, "vsharp.yaml"), []byte("name: x\n"), 0644); err != nil {
			t.Fatal(err)
		}
		l, err := New(rootDir)
		if err != nil {
			t.Fatalf("New() returned an error: %v", err)
		}
		if filepath.Base(l.ManifestPath()) != "vsharp.yaml" {
			t.Errorf("Expected vsharp.yaml, got %q", l.ManifestPath())
		}
	})

	t.Run("no_manifest", func(t *testing.T) {
		rootDir := setupProject(t, "", "a")
		_, err := New(filepath.Join(rootDir, "a"))
		if err == nil {
			t.Fatal("expected an error when no manifest exists")
		}
		if !strings.Contains(err.Error(), "vsharp.yaml") {
			t.Errorf("error should name the manifest files: %v", err)
		}
	})
}

func TestResolve(t *testing.T) {
	rootDir := setupProject(t, "vsharp.yaml")
	l, err := FromManifest(filepath.Join(rootDir, "vsharp.yaml"))
	if err != nil {
		t.Fatalf("FromManifest() returned an error: %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"main.vs", filepath.Join(rootDir, "main.vs")},
		{"src/../lib/a.vs", filepath.Join(rootDir, "lib", "a.vs")},
		{"/abs/x.vs", "/abs/x.vs"},
	}
	for _, tt := range tests {
		if got := l.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if got := l.Rel(filepath.Join(rootDir, "lib", "a.vs")); got != filepath.Join("lib", "a.vs") {
		t.Errorf("Rel() = %q", got)
	}
	if got := l.Rel("/elsewhere/a.vs"); got != "/elsewhere/a.vs" {
		t.Errorf("Rel() outside the root = %q", got)
	}

	if _, err := FromManifest(filepath.Join(rootDir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing manifest")
	}
}
