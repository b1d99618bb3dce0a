// Package runner analyses several project plans concurrently.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/crewplan/internal/events"
	"github.com/aristath/crewplan/internal/scheduler"
)

// Job is one project plan to analyse.
type Job struct {
	Name  string
	Specs []scheduler.TaskSpec
}

// Result represents the outcome of one job.
type Result struct {
	Name     string
	Analysis *scheduler.Analysis // Partial when the ceiling was exceeded, nil for other failures
	Err      error
	Elapsed  time.Duration
}

// Config configures the runner.
type Config struct {
	Concurrency int // Max concurrent analyses (default 4)
	Ceiling     int
	Bus         *events.EventBus // Optional, nil disables publication
	Logger      *slog.Logger     // Optional, defaults to slog.Default()
}

// Runner analyses jobs with bounded concurrency. Each analysis owns its own
// graph, so no state is shared between goroutines.
type Runner struct {
	config Config
	mu     sync.Mutex
	failed int
}

// New creates a runner.
func New(cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Runner{config: cfg}
}

// Run analyses every job and returns the results in job order. Analysis
// failures are recorded per result; the returned error is only set when the
// context ends before all jobs ran.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{
					Name: job.Name,
					Err:  fmt.Errorf("context cancelled before analysis: %w", err),
				}
				return nil // Return nil to not abort errgroup
			}

			results[i] = r.Analyze(job)
			return nil
		})
	}

	// Jobs always return nil
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Analyze runs a single job synchronously.
func (r *Runner) Analyze(job Job) Result {
	logger := r.config.Logger.With("project", job.Name)
	start := time.Now()

	r.publish(events.AnalysisStartedEvent{
		Name:      job.Name,
		Tasks:     len(job.Specs),
		Ceiling:   r.config.Ceiling,
		Timestamp: start,
	})
	logger.Debug("analysis started", "tasks", len(job.Specs), "ceiling", r.config.Ceiling)

	d, err := scheduler.NewDAG(job.Specs)
	if err != nil {
		return r.fail(logger, job.Name, nil, fmt.Errorf("building graph: %w", err), start)
	}

	analysis, err := scheduler.NewAnalyzer(r.config.Ceiling).Analyze(d)
	if analysis != nil {
		for _, ev := range analysis.Events {
			r.publish(events.TimelineEvent{
				Name:       job.Name,
				Time:       ev.Time,
				Started:    ev.Started,
				Finished:   ev.Finished,
				StaffTotal: ev.StaffTotal,
				Ceiling:    r.config.Ceiling,
			})
		}
	}
	if err != nil {
		return r.fail(logger, job.Name, analysis, err, start)
	}

	elapsed := time.Since(start)
	r.publish(events.AnalysisCompletedEvent{
		Name:          job.Name,
		TotalDuration: analysis.Schedule.TotalDuration,
		PeakStaff:     analysis.PeakStaff,
		CriticalPath:  analysis.CriticalPath,
		Tasks:         analysis.Tasks,
		Records:       analysis.Events,
		Elapsed:       elapsed,
		Timestamp:     time.Now(),
	})
	logger.Info("analysis completed",
		"duration", analysis.Schedule.TotalDuration,
		"peak_staff", analysis.PeakStaff,
		"critical_tasks", len(analysis.CriticalPath),
	)
	logger.Debug("critical path", "tasks", analysis.CriticalPath)

	return Result{Name: job.Name, Analysis: analysis, Elapsed: elapsed}
}

// Failed returns how many analyses failed so far.
func (r *Runner) Failed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failed
}

func (r *Runner) fail(logger *slog.Logger, name string, analysis *scheduler.Analysis, err error, start time.Time) Result {
	r.mu.Lock()
	r.failed++
	r.mu.Unlock()

	var records []scheduler.SimulationEvent
	if analysis != nil {
		records = analysis.Events
	}

	elapsed := time.Since(start)
	r.publish(events.AnalysisFailedEvent{
		Name:      name,
		Err:       err,
		Records:   records,
		Elapsed:   elapsed,
		Timestamp: time.Now(),
	})
	logger.Warn("analysis failed", "error", err)

	return Result{Name: name, Analysis: analysis, Err: err, Elapsed: elapsed}
}

func (r *Runner) publish(event events.Event) {
	if r.config.Bus == nil {
		return
	}
	r.config.Bus.Emit(event)
}
