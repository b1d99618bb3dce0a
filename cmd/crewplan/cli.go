package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/crewplan/internal/config"
	"github.com/aristath/crewplan/internal/events"
	"github.com/aristath/crewplan/internal/persistence"
	"github.com/aristath/crewplan/internal/project"
	"github.com/aristath/crewplan/internal/report"
	"github.com/aristath/crewplan/internal/runner"
	"github.com/aristath/crewplan/internal/scheduler"
	"github.com/aristath/crewplan/internal/tui"
)

const usage = `usage: crewplan [flags] <project-file> [manpower] [more project files...]
       crewplan [flags] -catalog <name> [manpower]
       crewplan -list | -delete <name> | -export <name>

`

// options holds the parsed command line.
type options struct {
	configPath string
	useTUI     bool
	importName string
	catalog    string
	list       bool
	deleteName string
	exportName string
	logFormat  string
	logLevel   string

	files   []string
	ceiling int
	hasCeil bool
}

var errUsage = errors.New("invalid arguments")

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("crewplan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "config file replacing .crewplan/config.json (JSON or YAML)")
	fs.BoolVar(&opts.useTUI, "tui", false, "watch the analysis in the terminal viewer")
	fs.StringVar(&opts.importName, "import", "", "store the project file in the catalog under `name`")
	fs.StringVar(&opts.catalog, "catalog", "", "analyse the catalog project `name` instead of a file")
	fs.BoolVar(&opts.list, "list", false, "list catalog projects")
	fs.StringVar(&opts.deleteName, "delete", "", "remove the catalog project `name`")
	fs.StringVar(&opts.exportName, "export", "", "write the catalog project `name` in project file format")
	fs.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.list || opts.deleteName != "" || opts.exportName != "" {
		if fs.NArg() > 0 {
			fs.Usage()
			return nil, errUsage
		}
		return opts, nil
	}

	rest := fs.Args()
	if opts.catalog == "" {
		if len(rest) == 0 {
			fs.Usage()
			return nil, errUsage
		}
		opts.files = append(opts.files, rest[0])
		rest = rest[1:]
	}

	if len(rest) > 0 {
		if n, err := strconv.Atoi(rest[0]); err == nil {
			if n < 0 {
				fmt.Fprintf(stderr, "manpower must not be negative: %d\n", n)
				return nil, errUsage
			}
			opts.ceiling = n
			opts.hasCeil = true
			rest = rest[1:]
		}
	}

	if opts.catalog != "" && len(rest) > 0 {
		fs.Usage()
		return nil, errUsage
	}
	opts.files = append(opts.files, rest...)

	if opts.importName != "" && len(opts.files) != 1 {
		fmt.Fprintln(stderr, "-import needs exactly one project file")
		return nil, errUsage
	}

	return opts, nil
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 1
	}

	globalPath, projectPath, err := config.DefaultPaths()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.configPath != "" {
		projectPath = opts.configPath
	}

	cfg, err := config.Load(globalPath, projectPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.hasCeil {
		cfg.StaffCeiling = opts.ceiling
	}

	logger := newLogger(cfg.Log, stderr)

	if opts.list || opts.deleteName != "" || opts.exportName != "" || opts.catalog != "" || opts.importName != "" {
		store, err := openCatalog(ctx, cfg.Catalog.Path)
		if err != nil {
			fmt.Fprintf(stderr, "Error opening catalog: %v\n", err)
			return 1
		}
		defer store.Close()

		switch {
		case opts.list:
			return listProjects(ctx, store, stdout, stderr)
		case opts.deleteName != "":
			if err := store.DeleteProject(ctx, opts.deleteName); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
			logger.Info("project deleted", "project", opts.deleteName)
			return 0
		case opts.exportName != "":
			return exportProject(ctx, store, opts.exportName, stdout, stderr)
		}

		jobs, err := loadJobs(ctx, opts, store, logger)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return analyse(ctx, opts, cfg, jobs, globalPath, projectPath, logger, stdout)
	}

	jobs, err := loadJobs(ctx, opts, nil, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return analyse(ctx, opts, cfg, jobs, globalPath, projectPath, logger, stdout)
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func openCatalog(ctx context.Context, path string) (persistence.Store, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".crewplan", "catalog.db")
	}
	return persistence.NewSQLiteStore(ctx, path)
}

func listProjects(ctx context.Context, store persistence.Store, stdout, stderr io.Writer) int {
	projects, err := store.ListProjects(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, p := range projects {
		fmt.Fprintf(stdout, "%s\t%d tasks\t%s\n", p.Name, p.Tasks, p.UpdatedAt.Format(time.DateTime))
	}
	return 0
}

func exportProject(ctx context.Context, store persistence.Store, name string, stdout, stderr io.Writer) int {
	specs, err := store.LoadProject(ctx, name)
	if err == nil {
		err = project.Format(stdout, specs)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// loadJobs reads every requested project. store is nil when no catalog
// operation was requested.
func loadJobs(ctx context.Context, opts *options, store persistence.Store, logger *slog.Logger) ([]runner.Job, error) {
	if opts.catalog != "" {
		specs, err := store.LoadProject(ctx, opts.catalog)
		if err != nil {
			return nil, err
		}
		return []runner.Job{{Name: opts.catalog, Specs: specs}}, nil
	}

	jobs := make([]runner.Job, 0, len(opts.files))
	for _, path := range opts.files {
		specs, err := project.ParseFile(path)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, runner.Job{Name: path, Specs: specs})
	}

	if opts.importName != "" {
		if err := store.SaveProject(ctx, opts.importName, jobs[0].Specs); err != nil {
			return nil, fmt.Errorf("importing %s: %w", jobs[0].Name, err)
		}
		logger.Info("project imported", "project", opts.importName, "tasks", len(jobs[0].Specs))
	}

	return jobs, nil
}

func analyse(ctx context.Context, opts *options, cfg *config.Config, jobs []runner.Job, globalPath, projectPath string, logger *slog.Logger, stdout io.Writer) int {
	bus := events.NewEventBus()
	defer bus.Close()

	r := runner.New(runner.Config{
		Concurrency: cfg.Concurrency,
		Ceiling:     cfg.StaffCeiling,
		Bus:         bus,
		Logger:      logger,
	})

	logger.Debug("analysing", "projects", names(jobs), "ceiling", cfg.StaffCeiling)

	if opts.useTUI {
		return runTUI(ctx, r, jobs, bus, cfg, globalPath, projectPath, logger)
	}

	results, err := r.Run(ctx, jobs)
	if err != nil {
		logger.Error("analysis interrupted", "error", err)
		return 1
	}

	w := report.New(stdout, cfg.Output.Color)
	code := 0
	for _, res := range results {
		if len(results) > 1 {
			fmt.Fprintf(stdout, "\n== %s ==\n", res.Name)
		}
		if !writeResult(w, cfg.Output, res) {
			code = 1
		}
	}
	return code
}

// writeResult prints one result in pass order and reports whether it succeeded.
func writeResult(w *report.Writer, out config.OutputConfig, res runner.Result) bool {
	var cycleErr *scheduler.CycleError
	switch {
	case errors.As(res.Err, &cycleErr):
		w.WriteCycleError(cycleErr)
		return false
	case res.Analysis == nil:
		w.WriteFailure(res.Err)
		return false
	}

	w.WriteCycle(nil)
	if out.ShowTimeline {
		w.WriteTimeline(res.Analysis.Events)
	}
	if res.Err != nil {
		w.WriteFailure(res.Err)
		return false
	}

	w.WriteSummary(res.Analysis)
	if out.ShowSlack {
		w.WriteSlackTable(res.Analysis.Tasks)
	}
	return true
}

func runTUI(ctx context.Context, r *runner.Runner, jobs []runner.Job, bus *events.EventBus, cfg *config.Config, globalPath, projectPath string, logger *slog.Logger) int {
	// Subscribe before the runner publishes
	model := tui.New(bus, cfg, globalPath, projectPath)

	// Start Bubble Tea program in a goroutine so main can handle shutdown
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	errChan := make(chan error, 1)
	go func() {
		_, err := p.Run()
		errChan <- err
	}()

	go func() {
		if _, err := r.Run(ctx, jobs); err != nil {
			logger.Warn("analysis interrupted", "error", err)
		}
	}()

	// Handle shutdown
	select {
	case err := <-errChan:
		// Normal TUI exit (user pressed 'q')
		if err != nil {
			logger.Error("viewer failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		p.Quit()

		// Wait for TUI to exit with timeout
		select {
		case <-errChan:
		case <-time.After(5 * time.Second):
			logger.Warn("shutdown timeout exceeded, forcing exit")
		}
		return 1
	}

	if r.Failed() > 0 {
		return 1
	}
	return 0
}

// names lists job names for log fields.
func names(jobs []runner.Job) string {
	out := make([]string, len(jobs))
	for i, job := range jobs {
		out[i] = job.Name
	}
	return strings.Join(out, ", ")
}
