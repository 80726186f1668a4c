package vsharptest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/fs"
	"github.com/podhmo/vsharp/object"
)

// Project is a set of script files to be evaluated together.
type Project struct {
	// Files maps slash separated paths, relative to the project root, to
	// their content.
	Files map[string]string
	// Entry is the file that is run. It defaults to "main.vs".
	Entry string
}

// Result provides access to the results of a script execution.
type Result struct {
	Value  object.Object
	Stdout string
	interp *vsharp.Interpreter
}

// Get retrieves a top-level binding of the entry script.
func (r *Result) Get(name string) (object.Object, bool) {
	return r.interp.Lookup(name)
}

// Interpreter returns the interpreter the project ran in.
func (r *Result) Interpreter() *vsharp.Interpreter {
	return r.interp
}

// Runner is a test helper for running vsharp scripts in isolated projects.
type Runner struct {
	options []vsharp.Option
	setup   []func(*vsharp.Interpreter)
}

// NewRunner creates a new test runner. The options are applied to every
// interpreter it creates.
func NewRunner(options ...vsharp.Option) *Runner {
	return &Runner{options: options}
}

// Use adds registration functions, e.g. stdlib.Install, applied to every
// interpreter before the project runs.
func (r *Runner) Use(setup ...func(*vsharp.Interpreter)) *Runner {
	r.setup = append(r.setup, setup...)
	return r
}

// Run evaluates the project in memory and returns its result.
func (r *Runner) Run(ctx context.Context, p *Project) (*Result, error) {
	files := make(map[string]string, len(p.Files))
	for name, content := range p.Files {
		files[filepath.Join("/project", name)] = content
	}
	return r.run(ctx, fs.NewMapFS(files), "/project", p.entry())
}

// RunOnDisk writes the project into a temporary directory and evaluates it
// from there.
func (r *Runner) RunOnDisk(t *testing.T, p *Project) (*Result, error) {
	t.Helper()
	dir := WriteFiles(t, p.Files)
	return r.run(context.Background(), fs.NewOSFS(), dir, p.entry())
}

func (r *Runner) run(ctx context.Context, fsys fs.FS, dir, entry string) (*Result, error) {
	var stdout bytes.Buffer
	options := append([]vsharp.Option{vsharp.WithFS(fsys), vsharp.WithBaseDir(dir), vsharp.WithStdout(&stdout)}, r.options...)
	interp := vsharp.NewInterpreter(options...)
	for _, setup := range r.setup {
		setup(interp)
	}

	value, err := interp.EvalFile(ctx, entry)
	result := &Result{Value: value, Stdout: stdout.String(), interp: interp}
	if err != nil {
		return result, fmt.Errorf("evaluation failed: %w", err)
	}
	return result, nil
}

func (p *Project) entry() string {
	if p.Entry == "" {
		return "main.vs"
	}
	return p.Entry
}

// WriteFiles creates a temporary directory and populates it with files.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll(%q): %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%q): %v", path, err)
		}
	}
	return dir
}

// Run runs files in memory with main.vs as the entry and fails the test
// on any error.
func Run(t *testing.T, files map[string]string, options ...vsharp.Option) *Result {
	t.Helper()
	result, err := NewRunner(options...).Run(context.Background(), &Project{Files: files})
	if err != nil {
		t.Fatalf("%v", err)
	}
	return result
}
