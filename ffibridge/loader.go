package ffibridge

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"strings"
	"sync"

	"github.com/podhmo/vsharp/object"
	"golang.org/x/mod/semver"
)

// APIMajor is the only major version of the exports contract that this
// runtime understands.
const APIMajor = "v1"

// Loader resolves `lib` paths. Libraries registered in-process are
// consulted before the file system.
type Loader struct {
	mu       sync.Mutex
	registry map[string]Exports
	loaded   map[string]*object.DynamicObject
	paths    []string
	logger   *slog.Logger
}

// NewLoader creates a Loader that searches the given directories for
// relative plugin paths.
func NewLoader(logger *slog.Logger, paths ...string) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		registry: make(map[string]Exports),
		loaded:   make(map[string]*object.DynamicObject),
		paths:    paths,
		logger:   logger,
	}
}

// Register makes exports available under path without a plugin file.
func (l *Loader) Register(path string, exports Exports) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.registry[path] = exports
	delete(l.loaded, "registry:"+path)
}

// Load returns the projected library for path. dir is the directory of
// the script containing the `lib` statement.
func (l *Loader) Load(path, dir string) (*object.DynamicObject, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if exports, ok := l.registry[path]; ok {
		key := "registry:" + path
		if obj, ok := l.loaded[key]; ok {
			return obj, nil
		}
		obj, err := Project(exports)
		if err != nil {
			return nil, fmt.Errorf("lib %s: %w", path, err)
		}
		l.logger.Debug("lib from registry", "path", path, "exports", obj.Len())
		l.loaded[key] = obj
		return obj, nil
	}

	file, err := l.find(path, dir)
	if err != nil {
		return nil, err
	}
	if obj, ok := l.loaded[file]; ok {
		return obj, nil
	}
	exports, err := openPlugin(file)
	if err != nil {
		return nil, err
	}
	obj, err := Project(exports)
	if err != nil {
		return nil, fmt.Errorf("lib %s: %w", file, err)
	}
	l.logger.Debug("lib loaded", "path", file, "exports", obj.Len())
	l.loaded[file] = obj
	return obj, nil
}

func (l *Loader) find(path, dir string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	candidates := []string{filepath.Join(dir, path)}
	for _, p := range l.paths {
		candidates = append(candidates, filepath.Join(p, path))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
		if !strings.HasSuffix(c, ".so") {
			if _, err := os.Stat(c + ".so"); err == nil {
				return c + ".so", nil
			}
		}
	}
	return "", fmt.Errorf("library %q not found (searched %s)", path, strings.Join(candidates, ", "))
}

func openPlugin(file string) (Exports, error) {
	p, err := plugin.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open plugin %s: %w", file, err)
	}
	if sym, err := p.Lookup("APIVersion"); err == nil {
		v, ok := sym.(*string)
		if !ok {
			return nil, fmt.Errorf("plugin %s: APIVersion must be a string variable, got %T", file, sym)
		}
		if err := CheckAPIVersion(*v); err != nil {
			return nil, fmt.Errorf("plugin %s: %w", file, err)
		}
	}
	sym, err := p.Lookup("Exports")
	if err != nil {
		return nil, fmt.Errorf("plugin %s does not export Exports: %w", file, err)
	}
	switch x := sym.(type) {
	case *map[string]any:
		return Exports(*x), nil
	case *Exports:
		return *x, nil
	case func() map[string]any:
		return Exports(x()), nil
	case func() Exports:
		return x(), nil
	}
	return nil, fmt.Errorf("plugin %s: unsupported Exports symbol of type %T", file, sym)
}

// CheckAPIVersion validates a library's declared contract version.
func CheckAPIVersion(v string) error {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid APIVersion %q", v)
	}
	if major := semver.Major(v); major != APIMajor {
		return fmt.Errorf("unsupported APIVersion %s (want %s.x)", v, APIMajor)
	}
	return nil
}
