package vsharp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"

	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/cache"
	"github.com/podhmo/vsharp/evaluator"
	"github.com/podhmo/vsharp/ffibridge"
	"github.com/podhmo/vsharp/fs"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/parser"
)

// Interpreter is the main entry point for the vsharp language.
// It holds the explicit registration list every program scope is seeded
// from, and the evaluator that runs scripts.
type Interpreter struct {
	registrations []registration
	hostTypes     map[string]reflect.Type
	methods       map[object.ObjectType]map[string]*object.Builtin

	eval    *evaluator.Evaluator
	libs    *ffibridge.Loader
	cache   *cache.ProgramCache
	env     *object.Environment
	replEnv *object.Environment

	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	logger   *slog.Logger
	fs       fs.FS
	baseDir  string
	libPaths []string
}

type registration struct {
	name  string
	value object.Object
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithStdin sets the standard input for the interpreter.
func WithStdin(r io.Reader) Option {
	return func(i *Interpreter) {
		i.stdin = r
	}
}

// WithStdout sets the standard output for the interpreter.
func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) {
		i.stdout = w
	}
}

// WithStderr sets the standard error for the interpreter.
func WithStderr(w io.Writer) Option {
	return func(i *Interpreter) {
		i.stderr = w
	}
}

// WithLogger sets the logger used for debug output of imports, library
// loading and host calls.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// WithFS sets the file system scripts are read from.
func WithFS(fsys fs.FS) Option {
	return func(i *Interpreter) {
		i.fs = fsys
	}
}

// WithGlobals registers Go values under the given names, in name order.
func WithGlobals(globals map[string]any) Option {
	return func(i *Interpreter) {
		names := make([]string, 0, len(globals))
		for name := range globals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			i.Register(name, globals[name])
		}
	}
}

// WithBaseDir sets the directory that relative paths given to EvalFile,
// and imports of EvalString and EvalLine, resolve against.
func WithBaseDir(dir string) Option {
	return func(i *Interpreter) {
		i.baseDir = dir
	}
}

// WithLibraryPaths adds directories searched by `lib` statements.
func WithLibraryPaths(paths ...string) Option {
	return func(i *Interpreter) {
		i.libPaths = append(i.libPaths, paths...)
	}
}

// NewInterpreter creates a new interpreter instance, configured with options.
func NewInterpreter(options ...Option) *Interpreter {
	i := &Interpreter{
		hostTypes: make(map[string]reflect.Type),
		methods:   make(map[object.ObjectType]map[string]*object.Builtin),
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		baseDir:   ".",
	}
	for _, opt := range options {
		opt(i)
	}

	if i.logger == nil {
		i.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if i.fs == nil {
		i.fs = fs.NewOSFS()
	}
	i.cache = cache.NewProgramCache(i.fs)
	i.libs = ffibridge.NewLoader(i.logger, i.libPaths...)
	i.eval = evaluator.New(evaluator.Config{
		Stdin:     i.stdin,
		Stdout:    i.stdout,
		Stderr:    i.stderr,
		Logger:    i.logger,
		FS:        i.fs,
		Cache:     i.cache,
		Seed:      i.seed,
		HostTypes: i.hostTypes,
		Methods:   i.methods,
		Libraries: i.libs,
	})
	return i
}

// Register appends name to the registration list. Go functions become
// native functions, maps with string keys become objects and other Go
// values are wrapped; script values are stored as is.
func (i *Interpreter) Register(name string, value any) {
	i.registrations = append(i.registrations, registration{name: name, value: object.FromGo(name, value)})
}

// RegisterType makes a host type usable by name in type expressions.
func (i *Interpreter) RegisterType(name string, t reflect.Type) {
	i.hostTypes[name] = t
}

// RegisterMethods adds methods callable on every value of the given type,
// e.g. `"abc".to_upper()`. The receiver is passed as the first argument.
func (i *Interpreter) RegisterMethods(t object.ObjectType, methods map[string]*object.Builtin) {
	table, ok := i.methods[t]
	if !ok {
		table = make(map[string]*object.Builtin, len(methods))
		i.methods[t] = table
	}
	for name, m := range methods {
		table[name] = m
	}
}

// RegisterLibrary makes exports loadable with `lib "path"` without a
// plugin file.
func (i *Interpreter) RegisterLibrary(path string, exports ffibridge.Exports) {
	i.libs.Register(path, exports)
}

// Registered returns the registered names in registration order.
func (i *Interpreter) Registered() []string {
	names := make([]string, len(i.registrations))
	for n, r := range i.registrations {
		names[n] = r.name
	}
	return names
}

// seed returns a fresh scope holding the registered values. Later
// registrations of a name shadow earlier ones.
func (i *Interpreter) seed() *object.Environment {
	env := object.NewEnvironment()
	for _, r := range i.registrations {
		env.SetLocal(r.name, r.value)
	}
	return env
}

func (i *Interpreter) fileScope(filename string) *object.FileScope {
	if filename == "" {
		return &object.FileScope{Dir: i.baseDir}
	}
	return evaluator.FileScopeOf(i.resolve(filename))
}

func (i *Interpreter) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(i.baseDir, path)
}

func result(obj object.Object) (object.Object, error) {
	if err, ok := obj.(*object.Error); ok {
		return nil, err
	}
	return obj, nil
}

// Interpret runs a parsed program in a fresh scope seeded from the
// registration list. filename is used for relative imports and
// diagnostics; it may be empty.
func (i *Interpreter) Interpret(ctx context.Context, prog *ast.Program, filename string) (object.Object, error) {
	i.env = object.NewEnclosedEnvironment(i.seed())
	return result(i.eval.Run(ctx, prog, i.env, i.fileScope(filename)))
}

// EvalString parses and runs src as a complete program.
func (i *Interpreter) EvalString(ctx context.Context, src string) (object.Object, error) {
	prog, err := parser.ParseString(src)
	if err != nil {
		return nil, err
	}
	return i.Interpret(ctx, prog, "")
}

// EvalFile parses and runs the script at path.
func (i *Interpreter) EvalFile(ctx context.Context, path string) (object.Object, error) {
	path = i.resolve(path)
	prog, err := i.cache.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	i.logger.Debug("run", "path", path)
	return i.Interpret(ctx, prog, path)
}

// EvalLine evaluates a single line of input for the REPL. Bindings
// persist across calls.
func (i *Interpreter) EvalLine(ctx context.Context, line string) (object.Object, error) {
	if i.replEnv == nil {
		i.replEnv = object.NewEnclosedEnvironment(i.seed())
	}
	prog, err := parser.ParseString(line)
	if err != nil {
		return nil, err
	}
	i.env = i.replEnv
	return result(i.eval.Run(ctx, prog, i.replEnv, i.fileScope("")))
}

// Lookup returns a binding of the scope the last program or REPL line ran in.
func (i *Interpreter) Lookup(name string) (object.Object, bool) {
	if i.env == nil {
		return nil, false
	}
	return i.env.Get(name)
}

// Call invokes a script callable. Arguments are converted like registered
// values.
func (i *Interpreter) Call(ctx context.Context, fn object.Object, args ...any) (object.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := make([]object.Object, len(args))
	for n, a := range args {
		in[n] = object.FromGo("", a)
	}
	return result(i.eval.Apply(fn, in))
}

// CallFunction looks up name with Lookup and calls it.
func (i *Interpreter) CallFunction(ctx context.Context, name string, args ...any) (object.Object, error) {
	fn, ok := i.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("function %q not found", name)
	}
	return i.Call(ctx, fn, args...)
}

// As converts a script value into the Go value target points to.
func (i *Interpreter) As(obj object.Object, target any) error {
	dst := reflect.ValueOf(target)
	if dst.Kind() != reflect.Ptr || dst.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, but got %T", target)
	}
	v, err := object.ToReflect(obj, dst.Elem().Type(), i.eval.Call)
	if err != nil {
		return err
	}
	dst.Elem().Set(v)
	return nil
}

// Logger returns the interpreter's logger.
func (i *Interpreter) Logger() *slog.Logger {
	return i.logger
}

// Stdout returns the interpreter's standard output.
func (i *Interpreter) Stdout() io.Writer {
	return i.stdout
}

// Stdin returns the interpreter's standard input.
func (i *Interpreter) Stdin() io.Reader {
	return i.stdin
}

// FS returns the file system scripts are read from.
func (i *Interpreter) FS() fs.FS {
	return i.fs
}

// Path resolves name against the base directory.
func (i *Interpreter) Path(name string) string {
	return i.resolve(name)
}

// ExitStatus reports the status a script asked to exit with through
// sys.exit, if err is such a request.
func ExitStatus(err error) (int, bool) {
	var oe *object.Error
	if errors.As(err, &oe) && oe.Kind == object.Exit {
		return oe.Code, true
	}
	return 0, false
}
