package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// Manifest represents the parsed contents of vsharp.yaml or vsharp.toml.
type Manifest struct {
	Name    string         `yaml:"name" toml:"name"`
	Version string         `yaml:"version,omitempty" toml:"version,omitempty"`
	Entry   string         `yaml:"entry,omitempty" toml:"entry,omitempty"`
	Libs    []string       `yaml:"libs,omitempty" toml:"libs,omitempty"`
	Globals map[string]any `yaml:"globals,omitempty" toml:"globals,omitempty"`

	// Path is the absolute path the manifest was loaded from.
	Path string `yaml:"-" toml:"-"`
}

// DefaultEntry is used when a manifest does not name an entry file.
const DefaultEntry = "main.vs"

// Format is a manifest encoding.
type Format string

const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

// FormatOf returns the format implied by a manifest file name.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return "", fmt.Errorf("manifest: unsupported file extension %q", filepath.Ext(path))
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Load parses a manifest from disk, returning a validated manifest.
func Load(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	format, err := FormatOf(absPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}
	m.Path = absPath
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse decodes a manifest without validating it. Unknown fields are errors.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("manifest is empty")
			}
			return nil, err
		}
	case TOML:
		md, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown field %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return &m, nil
}

// Validate checks the manifest fields.
func (m *Manifest) Validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	if m.Version != "" && !semver.IsValid(canonicalVersion(m.Version)) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("version %q is not a semantic version", m.Version))
	}
	if m.Entry != "" && filepath.IsAbs(m.Entry) {
		errs.Issues = append(errs.Issues, fmt.Sprintf("entry %q must be relative to the project root", m.Entry))
	}
	for i, lib := range m.Libs {
		if lib == "" {
			errs.Issues = append(errs.Issues, fmt.Sprintf("libs[%d] must be a non-empty path", i))
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

// Dir returns the directory holding the manifest.
func (m *Manifest) Dir() string {
	if m.Path == "" {
		return "."
	}
	return filepath.Dir(m.Path)
}

// EntryPath returns the absolute path of the entry script.
func (m *Manifest) EntryPath() string {
	entry := m.Entry
	if entry == "" {
		entry = DefaultEntry
	}
	return filepath.Join(m.Dir(), entry)
}

// LibPaths returns the library search paths, resolved against the
// manifest directory.
func (m *Manifest) LibPaths() []string {
	paths := make([]string, len(m.Libs))
	for i, lib := range m.Libs {
		if filepath.IsAbs(lib) {
			paths[i] = lib
		} else {
			paths[i] = filepath.Join(m.Dir(), lib)
		}
	}
	return paths
}

// Encode writes the manifest in the given format.
func (m *Manifest) Encode(w io.Writer, format Format) error {
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case TOML:
		return toml.NewEncoder(w).Encode(m)
	}
	return fmt.Errorf("unsupported format %q", format)
}
