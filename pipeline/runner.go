package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/c360studio/semcode/codebook"
	"github.com/c360studio/semcode/export"
	"github.com/c360studio/semcode/normalize"
	"github.com/c360studio/semcode/source"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrUnmappedLabels is returned when a run configured to fail on unmapped
// labels met at least one.
var ErrUnmappedLabels = errors.New("unmapped vocabulary labels")

// Stats summarises one run.
type Stats struct {
	RunID    string               `json:"run_id"`
	Pipeline string               `json:"pipeline"`
	Source   string               `json:"source"`
	Revision string               `json:"revision"`
	Records  int                  `json:"records"`
	Failed   int                  `json:"failed"`
	Triples  int                  `json:"triples"`
	Unmapped []normalize.Unmapped `json:"unmapped,omitempty"`
	Started  time.Time            `json:"started"`
	Finished time.Time            `json:"finished"`
}

// Duration returns the wall time of the run.
func (s *Stats) Duration() time.Duration {
	return s.Finished.Sub(s.Started)
}

// Runner executes pipelines against a codebook revision.
type Runner struct {
	revision       *codebook.Revision
	diagnostics    normalize.Sink
	sinks          []export.Sink
	workers        int
	failOnUnmapped bool
	logger         *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets the number of records processed in parallel. Values
// below one select the number of CPUs.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) { r.workers = n }
}

// WithOutput adds a sink that receives the triples of every record.
func WithOutput(sink export.Sink) RunnerOption {
	return func(r *Runner) {
		if sink != nil {
			r.sinks = append(r.sinks, sink)
		}
	}
}

// WithDiagnostics adds a sink for unmapped-label diagnostics. The runner
// always logs them and collects them into Stats.
func WithDiagnostics(sink normalize.Sink) RunnerOption {
	return func(r *Runner) { r.diagnostics = sink }
}

// WithFailOnUnmapped makes Run return ErrUnmappedLabels after a run that
// met unmapped labels.
func WithFailOnUnmapped(fail bool) RunnerOption {
	return func(r *Runner) { r.failOnUnmapped = fail }
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a runner using revision for vocabulary lookups.
func NewRunner(revision *codebook.Revision, opts ...RunnerOption) *Runner {
	r := &Runner{
		revision: revision,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = runtime.NumCPU()
	}
	return r
}

type job struct {
	index  int
	record source.Record
}

type result struct {
	index   int
	row     int
	triples []export.Triple
	err     error
}

// Run reads every record of src, applies p and writes the triples of each
// record to the sinks in source order. A failing record is logged and
// counted; source and sink errors abort the run.
func (r *Runner) Run(ctx context.Context, p *Pipeline, src source.Source) (*Stats, error) {
	collector := normalize.NewCollector()
	normalizer := normalize.New(r.revision, normalize.WithSink(
		normalize.Multi(collector, normalize.LogSink(r.logger), r.diagnostics)))

	stats := &Stats{
		RunID:    uuid.New().String(),
		Pipeline: p.Name,
		Source:   src.Name(),
		Revision: r.revision.Name(),
		Started:  time.Now(),
	}
	logger := r.logger.With("run_id", stats.RunID, "pipeline", p.Name)
	logger.Info("Pipeline run started", "source", stats.Source, "revision", stats.Revision, "workers", r.workers)

	jobs := make(chan job, r.workers)
	results := make(chan result, r.workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		index := 0
		err := src.Read(gctx, func(rec source.Record) error {
			select {
			case jobs <- job{index: index, record: rec}:
				index++
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		if err != nil {
			return fmt.Errorf("read %s: %w", src.Name(), err)
		}
		return nil
	})

	workers, wctx := errgroup.WithContext(gctx)
	for i := 0; i < r.workers; i++ {
		workers.Go(func() error {
			for j := range jobs {
				c := NewContext(j.record, normalizer)
				err := p.Apply(c)
				select {
				case results <- result{index: j.index, row: j.record.Row, triples: c.Triples(), err: err}:
				case <-wctx.Done():
					return wctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(results)
		return workers.Wait()
	})

	g.Go(func() error {
		pending := make(map[int]result)
		next := 0
		for res := range results {
			pending[res.index] = res
			for {
				ready, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if err := r.emit(gctx, logger, stats, ready); err != nil {
					return err
				}
			}
		}
		return nil
	})

	err := g.Wait()
	stats.Finished = time.Now()
	stats.Unmapped = collector.Unmapped()
	if err != nil {
		logger.Error("Pipeline run failed", "error", err, "records", stats.Records)
		return stats, err
	}

	logger.Info("Pipeline run finished",
		"records", stats.Records,
		"failed", stats.Failed,
		"triples", stats.Triples,
		"unmapped", collector.Total(),
		"duration", stats.Duration())

	if r.failOnUnmapped && collector.Total() > 0 {
		return stats, fmt.Errorf("%w: %d occurrences of %d labels", ErrUnmappedLabels, collector.Total(), len(stats.Unmapped))
	}
	return stats, nil
}

func (r *Runner) emit(ctx context.Context, logger *slog.Logger, stats *Stats, res result) error {
	stats.Records++
	if res.err != nil {
		stats.Failed++
		logger.Warn("Record skipped", "row", res.row, "error", res.err)
		return nil
	}
	logger.Debug("Record processed", "row", res.row, "triples", len(res.triples))
	if len(res.triples) == 0 {
		return nil
	}
	for _, sink := range r.sinks {
		if err := sink.Write(ctx, res.triples); err != nil {
			return fmt.Errorf("write row %d: %w", res.row, err)
		}
	}
	stats.Triples += len(res.triples)
	return nil
}
