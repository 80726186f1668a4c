package stdfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	i_fs "io/fs"

	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/fs"
	"github.com/podhmo/vsharp/object"
)

// Install registers the native `file` functions with the interpreter.
// Paths resolve against the interpreter's base directory and go through
// its file system, so scripts run against a MapFS never touch the disk.
func Install(interp *vsharp.Interpreter) {
	f := &files{fsys: interp.FS(), resolve: interp.Path}
	interp.Register("file", map[string]any{
		"read":       f.read,
		"read_lines": f.readLines,
		"exists":     f.exists,
		"write":      f.write,
		"append":     f.append,
		"delete":     f.delete,
		"copy":       f.copy,
	})
}

type files struct {
	fsys    fs.FS
	resolve func(string) string
}

func (f *files) writable() (fs.WriteFS, error) {
	w, ok := f.fsys.(fs.WriteFS)
	if !ok {
		return nil, errors.New("the file system is read-only")
	}
	return w, nil
}

func (f *files) read(name string) (string, error) {
	data, err := f.fsys.ReadFile(f.resolve(name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *files) readLines(name string) ([]string, error) {
	data, err := f.fsys.ReadFile(f.resolve(name))
	if err != nil {
		return nil, err
	}
	lines := []string{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func (f *files) exists(name string) bool {
	info, err := f.fsys.Stat(f.resolve(name))
	return err == nil && !info.IsDir()
}

// write replaces the content of name. Values other than strings are
// written the way `str` renders them.
func (f *files) write(name string, value object.Object) error {
	w, err := f.writable()
	if err != nil {
		return err
	}
	return w.WriteFile(f.resolve(name), []byte(text(value)), 0o644)
}

func (f *files) append(name string, value object.Object) error {
	w, err := f.writable()
	if err != nil {
		return err
	}
	return w.AppendFile(f.resolve(name), []byte(text(value)))
}

func (f *files) delete(name string) error {
	w, err := f.writable()
	if err != nil {
		return err
	}
	if err := w.Remove(f.resolve(name)); err != nil {
		if errors.Is(err, i_fs.ErrNotExist) {
			return fmt.Errorf("file %q does not exist", name)
		}
		return err
	}
	return nil
}

// copy copies src to dst. An existing dst is only replaced when overwrite
// is given and true.
func (f *files) copy(src, dst string, overwrite ...bool) error {
	w, err := f.writable()
	if err != nil {
		return err
	}
	if (len(overwrite) == 0 || !overwrite[0]) && f.exists(dst) {
		return fmt.Errorf("file %q already exists", dst)
	}
	data, err := f.fsys.ReadFile(f.resolve(src))
	if err != nil {
		return err
	}
	return w.WriteFile(f.resolve(dst), data, 0o644)
}

func text(v object.Object) string {
	if s, ok := v.(*object.String); ok {
		return s.Value
	}
	return v.Inspect()
}
