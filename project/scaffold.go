package project

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

const mainTemplate = `import "lib/greet.vs" as greet

println(greet.hello(%q))
`

const greetTemplate = `func hello(name: str): str {
  return "hello, " + name
}
`

// Scaffold creates a new project named name in dir: a manifest in the
// given format, an entry script and one imported module. Existing files
// are never overwritten.
func Scaffold(dir, name string, format Format) (*Manifest, error) {
	if name == "" {
		name = filepath.Base(dir)
	}
	m := &Manifest{Name: name, Version: "0.1.0", Entry: DefaultEntry}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := m.Encode(&buf, format); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	files := []struct {
		path    string
		content []byte
	}{
		{"vsharp." + string(format), buf.Bytes()},
		{DefaultEntry, []byte(fmt.Sprintf(mainTemplate, name))},
		{filepath.Join("lib", "greet.vs"), []byte(greetTemplate)},
	}
	for _, f := range files {
		if _, err := os.Stat(filepath.Join(dir, f.path)); err == nil {
			return nil, fmt.Errorf("%s already exists", filepath.Join(dir, f.path))
		}
	}
	for _, f := range files {
		path := filepath.Join(dir, f.path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, f.content, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
	}

	m.Path, _ = filepath.Abs(filepath.Join(dir, files[0].path))
	return m, nil
}
