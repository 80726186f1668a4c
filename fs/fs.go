package fs

import (
	i_fs "io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing/fstest"
)

// FS is an interface abstracting the file system operations used to load
// scripts, so that imports can be resolved against an in-memory tree in tests.
type FS interface {
	Stat(name string) (i_fs.FileInfo, error)
	ReadDir(name string) ([]i_fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	WalkDir(root string, fn i_fs.WalkDirFunc) error
}

// WriteFS is an FS that can also be modified, as the `file` module does.
type WriteFS interface {
	FS
	WriteFile(name string, data []byte, perm i_fs.FileMode) error
	AppendFile(name string, data []byte) error
	Remove(name string) error
}

// osFS implements FS using the underlying os package. This is the default
// implementation used for real file system operations.
type osFS struct{}

// NewOSFS creates a new osFS instance. It also implements WriteFS.
func NewOSFS() FS {
	return &osFS{}
}

func (f *osFS) Stat(name string) (i_fs.FileInfo, error) {
	return os.Stat(name)
}

func (f *osFS) ReadDir(name string) ([]i_fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (f *osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (f *osFS) WalkDir(root string, fn i_fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

func (f *osFS) WriteFile(name string, data []byte, perm i_fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (f *osFS) AppendFile(name string, data []byte) error {
	fp, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := fp.Write(data); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}

func (f *osFS) Remove(name string) error {
	return os.Remove(name)
}

// MapFS is an in-memory FS. Keys are slash separated paths; a leading "/"
// is ignored, so "/app/main.vs" and "app/main.vs" name the same file.
type MapFS map[string]string

// NewMapFS creates a MapFS from path to content pairs.
func NewMapFS(files map[string]string) MapFS {
	m := MapFS{}
	for k, v := range files {
		m[clean(k)] = v
	}
	return m
}

func clean(name string) string {
	name = path.Clean(filepath.ToSlash(name))
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "."
	}
	return name
}

func (m MapFS) fsys() fstest.MapFS {
	fsys := fstest.MapFS{}
	for k, v := range m {
		fsys[clean(k)] = &fstest.MapFile{Data: []byte(v), Mode: 0o644}
	}
	return fsys
}

func (m MapFS) Stat(name string) (i_fs.FileInfo, error) {
	return i_fs.Stat(m.fsys(), clean(name))
}

func (m MapFS) ReadDir(name string) ([]i_fs.DirEntry, error) {
	return i_fs.ReadDir(m.fsys(), clean(name))
}

func (m MapFS) ReadFile(name string) ([]byte, error) {
	return i_fs.ReadFile(m.fsys(), clean(name))
}

func (m MapFS) WalkDir(root string, fn i_fs.WalkDirFunc) error {
	return i_fs.WalkDir(m.fsys(), clean(root), fn)
}

func (m MapFS) WriteFile(name string, data []byte, perm i_fs.FileMode) error {
	m[clean(name)] = string(data)
	return nil
}

func (m MapFS) AppendFile(name string, data []byte) error {
	m[clean(name)] += string(data)
	return nil
}

func (m MapFS) Remove(name string) error {
	key := clean(name)
	if _, ok := m[key]; !ok {
		return &i_fs.PathError{Op: "remove", Path: name, Err: i_fs.ErrNotExist}
	}
	delete(m, key)
	return nil
}
