package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"github.com/podhmo/vsharp"
	"github.com/podhmo/vsharp/ast"
	"github.com/podhmo/vsharp/astwalk"
	"github.com/podhmo/vsharp/cache"
	"github.com/podhmo/vsharp/evaluator"
	"github.com/podhmo/vsharp/fs"
	"github.com/podhmo/vsharp/locator"
	"github.com/podhmo/vsharp/object"
	"github.com/podhmo/vsharp/parser"
	"github.com/podhmo/vsharp/project"
	"github.com/podhmo/vsharp/stdlib"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const (
	appName     = "vsharp"
	historyFile = ".vsharp_history"
	promptMain  = ">> "
	promptCont  = ".. "
	checkedFile = ".vsharp/checked.json"
)

var version = "0.1.0"

const usage = `usage: vsharp <command> [options] [args]

commands:
  run [file] [-- args...]   run a script, or the entry of the current project
  check [files...]          parse scripts and verify their imports, or every *.vs file
                            of the current project
  repl                      start an interactive session
  new <dir>                 create a new project
  version                   print the version
`

// errReported is returned by a command that has already printed its
// diagnostics.
var errReported = errors.New("reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := runMain(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

func runMain(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	a := &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "run":
		err = a.cmdRun(ctx, rest)
	case "check":
		err = a.cmdCheck(ctx, rest)
	case "repl":
		err = a.cmdRepl(ctx, rest)
	case "new":
		err = a.cmdNew(rest)
	case "version", "--version":
		fmt.Fprintf(stdout, "%s %s\n", appName, version)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
	default:
		if strings.HasSuffix(cmd, ".vs") {
			err = a.cmdRun(ctx, args)
			break
		}
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	if code, ok := vsharp.ExitStatus(err); ok {
		return code
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, errReported):
		return 1
	}
	fmt.Fprintln(stderr, diagnostic(err))
	return 1
}

// diagnostic renders err for the terminal. Runtime errors carry their
// call stack.
func diagnostic(err error) string {
	var oe *object.Error
	if errors.As(err, &oe) {
		return oe.Inspect()
	}
	return err.Error()
}

type commonFlags struct {
	verbose  bool
	manifest string
}

func (a *app) flagSet(name string, c *commonFlags) *pflag.FlagSet {
	fset := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fset.SetOutput(a.stderr)
	fset.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	fset.StringVar(&c.manifest, "manifest", "", "path to the project manifest (default: searched upwards)")
	return fset
}

func (a *app) parse(fset *pflag.FlagSet, c *commonFlags, args []string) error {
	if err := fset.Parse(args); err != nil {
		return err
	}
	if c.verbose {
		a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return nil
}

// loadProject returns the manifest given by --manifest or found above
// start. Running outside of a project is not an error; the manifest is nil.
func (a *app) loadProject(c *commonFlags, start string) (*project.Manifest, *locator.Locator, error) {
	var loc *locator.Locator
	var err error
	if c.manifest != "" {
		loc, err = locator.FromManifest(c.manifest)
		if err != nil {
			return nil, nil, err
		}
	} else {
		loc, err = locator.New(start)
		if err != nil {
			a.logger.Debug("no project found", "start", start, "error", err)
			return nil, nil, nil
		}
	}

	m, err := project.Load(loc.ManifestPath())
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("project loaded", "name", m.Name, "manifest", m.Path)
	return m, loc, nil
}

func (a *app) newInterpreter(m *project.Manifest, baseDir string) *vsharp.Interpreter {
	options := []vsharp.Option{
		vsharp.WithStdin(a.stdin),
		vsharp.WithStdout(a.stdout),
		vsharp.WithStderr(a.stderr),
		vsharp.WithLogger(a.logger),
		vsharp.WithBaseDir(baseDir),
	}
	if m != nil {
		options = append(options, vsharp.WithGlobals(m.Globals), vsharp.WithLibraryPaths(m.LibPaths()...))
	}
	interp := vsharp.NewInterpreter(options...)
	stdlib.Install(interp)
	return interp
}

func (a *app) cmdRun(ctx context.Context, args []string) error {
	var c commonFlags
	fset := a.flagSet("run", &c)
	if err := a.parse(fset, &c, args); err != nil {
		return err
	}

	// `run -- a b` runs the project entry with every argument passed on.
	var file string
	argv := fset.Args()
	if len(argv) > 0 && fset.ArgsLenAtDash() != 0 {
		file, argv = argv[0], argv[1:]
	}

	start := "."
	if file != "" {
		start = file
	}
	m, _, err := a.loadProject(&c, start)
	if err != nil {
		return err
	}
	if file == "" {
		if m == nil {
			return fmt.Errorf("no script given and no project manifest found")
		}
		file = m.EntryPath()
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	interp := a.newInterpreter(m, filepath.Dir(abs))
	interp.Register("args", argv)
	_, err = interp.EvalFile(ctx, abs)
	return err
}

// checkFailure is one file that failed to parse or imports a missing file.
type checkFailure struct {
	path string
	err  error
}

func (a *app) cmdCheck(ctx context.Context, args []string) error {
	var c commonFlags
	fset := a.flagSet("check", &c)
	noCache := fset.Bool("no-cache", false, "check every file, ignoring the cache of previously checked files")
	if err := a.parse(fset, &c, args); err != nil {
		return err
	}

	files := fset.Args()
	m, loc, err := a.loadProject(&c, ".")
	if err != nil {
		return err
	}
	osfs := fs.NewOSFS()
	if len(files) == 0 {
		if loc == nil {
			return fmt.Errorf("no files given and no project manifest found")
		}
		files, err = collectScripts(osfs, loc.RootDir())
		if err != nil {
			return err
		}
	}

	checked := cache.NewCheckedCache("")
	if loc != nil && !*noCache {
		checked = cache.NewCheckedCache(filepath.Join(loc.RootDir(), checkedFile))
		if err := checked.Load(); err != nil {
			return err
		}
	}
	if m != nil {
		a.logger.Debug("checking project", "name", m.Name, "files", len(files))
	}

	exists := func(path string) bool {
		_, err := osfs.Stat(path)
		return err == nil
	}
	programs := cache.NewProgramCache(osfs)
	var (
		mu       sync.Mutex
		failures []checkFailure
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := filepath.Abs(file)
			if err != nil {
				return err
			}
			src, err := osfs.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}
			if checked.Fresh(path, src, exists) {
				a.logger.Debug("skip unchanged file", "path", path)
				return nil
			}
			var imports []string
			prog, err := programs.Load(path)
			if err == nil {
				imports, err = checkImports(osfs, path, prog)
			}
			if err != nil {
				checked.Forget(path)
				mu.Lock()
				failures = append(failures, checkFailure{path: file, err: err})
				mu.Unlock()
				return nil
			}
			checked.Mark(path, src, imports)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := checked.Save(); err != nil {
		return err
	}

	hits, misses := programs.Stats()
	a.logger.Debug("check finished", "files", len(files), "parsed", misses, "hits", hits, "failures", len(failures))
	if len(failures) == 0 {
		return nil
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].path < failures[j].path })
	for _, f := range failures {
		fmt.Fprintf(a.stderr, "%s: %v\n", f.path, f.err)
	}
	return errReported
}

// checkImports resolves the top-level imports of the script at path and
// reports the first one whose target does not exist.
func checkImports(fsys fs.FS, path string, prog *ast.Program) ([]string, error) {
	dir := filepath.Dir(path)
	var resolved []string
	for imp, target := range astwalk.ToplevelImports(prog) {
		candidate := target
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(dir, candidate)
		}
		if _, err := fsys.Stat(candidate); err == nil {
			resolved = append(resolved, candidate)
			continue
		}
		if filepath.Ext(candidate) != evaluator.SourceExt {
			if _, err := fsys.Stat(candidate + evaluator.SourceExt); err == nil {
				resolved = append(resolved, candidate+evaluator.SourceExt)
				continue
			}
		}
		return nil, &object.Error{Kind: object.ImportError, Pos: imp.Pos(), Message: fmt.Sprintf("cannot import %q: no such file", target)}
	}
	return resolved, nil
}

// collectScripts returns every *.vs file under root. Hidden directories
// are skipped.
func collectScripts(fsys fs.FS, root string) ([]string, error) {
	var files []string
	err := fsys.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".vs" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// prompter reads one line of input after showing prompt. *liner.State
// implements it.
type prompter interface {
	Prompt(prompt string) (string, error)
}

type plainPrompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (p *plainPrompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

func (a *app) cmdRepl(ctx context.Context, args []string) error {
	var c commonFlags
	fset := a.flagSet("repl", &c)
	if err := a.parse(fset, &c, args); err != nil {
		return err
	}
	m, _, err := a.loadProject(&c, ".")
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	interp := a.newInterpreter(m, cwd)

	var p prompter
	if f, ok := a.stdin.(*os.File); ok && f == os.Stdin && liner.TerminalSupported() {
		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)

		home, _ := os.UserHomeDir()
		histPath := filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
		p = &historyPrompter{State: ln}
		fmt.Fprintf(a.stdout, "%s %s\nCtrl+D exits. Type :quit to exit.\n", appName, version)
	} else {
		p = &plainPrompter{scanner: bufio.NewScanner(a.stdin), out: a.stdout}
	}
	return a.repl(ctx, interp, p)
}

// historyPrompter records every entered line in the liner history.
type historyPrompter struct {
	*liner.State
}

func (h *historyPrompter) Prompt(prompt string) (string, error) {
	line, err := h.State.Prompt(prompt)
	if err == nil && strings.TrimSpace(line) != "" {
		h.State.AppendHistory(line)
	}
	return line, err
}

func (a *app) repl(ctx context.Context, interp *vsharp.Interpreter, p prompter) error {
	for ctx.Err() == nil {
		code, ok := readStatement(p)
		if !ok {
			fmt.Fprintln(a.stdout)
			return nil
		}
		code = strings.TrimSpace(code)
		switch {
		case code == "":
			continue
		case code == ":quit":
			return nil
		case strings.HasPrefix(code, ":"):
			fmt.Fprintln(a.stdout, "unknown command. Type :quit to exit.")
			continue
		}

		v, err := interp.EvalLine(ctx, code)
		if _, ok := vsharp.ExitStatus(err); ok {
			return err
		}
		if err != nil {
			fmt.Fprintln(a.stderr, diagnostic(err))
			continue
		}
		if v != nil && v != object.NULL {
			fmt.Fprintln(a.stdout, v.Inspect())
		}
	}
	return ctx.Err()
}

// readStatement keeps reading continuation lines while the input so
// far is an incomplete program.
func readStatement(p prompter) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := p.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := parser.ParseString(src); err != nil && parser.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}

func (a *app) cmdNew(args []string) error {
	var c commonFlags
	fset := a.flagSet("new", &c)
	name := fset.String("name", "", "project name (default: the directory name)")
	format := fset.String("format", string(project.YAML), "manifest format: yaml or toml")
	if err := a.parse(fset, &c, args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return fmt.Errorf("new: expected exactly one directory, got %d", fset.NArg())
	}

	dir := fset.Arg(0)
	m, err := project.Scaffold(dir, *name, project.Format(*format))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "created project %q in %s\n", m.Name, dir)
	return nil
}
