package locator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestNames are the recognized project manifest file names, in the
// order they are tried within one directory.
var ManifestNames = []string{"vsharp.yaml", "vsharp.yml", "vsharp.toml"}

// Locator knows the project root and resolves script paths against it.
type Locator struct {
	rootDir      string
	manifestPath string
}

// New creates a new Locator by searching for a manifest file.
// It starts searching from startPath and moves up the directory tree.
func New(startPath string) (*Locator, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", startPath, err)
	}
	if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
		absPath = filepath.Dir(absPath)
	}

	rootDir, manifest, err := findProjectRoot(absPath)
	if err != nil {
		return nil, err
	}
	return &Locator{rootDir: rootDir, manifestPath: manifest}, nil
}

// FromManifest creates a Locator for an explicitly given manifest file.
func FromManifest(path string) (*Locator, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("manifest not found: %w", err)
	}
	return &Locator{rootDir: filepath.Dir(absPath), manifestPath: absPath}, nil
}

// RootDir returns the project's root directory (where the manifest is located).
func (l *Locator) RootDir() string {
	return l.rootDir
}

// ManifestPath returns the path of the manifest file.
func (l *Locator) ManifestPath() string {
	return l.manifestPath
}

// Resolve converts a project-relative path into an absolute one.
// Absolute paths are returned cleaned.
func (l *Locator) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.rootDir, path)
}

// Rel returns path relative to the project root, for diagnostics. Paths
// outside the root are returned unchanged.
func (l *Locator) Rel(path string) string {
	rel, err := filepath.Rel(l.rootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// findProjectRoot searches for a manifest starting from a given directory and moving upwards.
func findProjectRoot(dir string) (string, string, error) {
	for cur := dir; ; {
		for _, name := range ManifestNames {
			candidate := filepath.Join(cur, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return cur, candidate, nil
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", "", fmt.Errorf("no %s found in %s or any parent directory", strings.Join(ManifestNames, ", "), dir)
		}
		cur = parent
	}
}
