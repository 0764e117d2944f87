package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/c360studio/semcode/codebook"
	"github.com/c360studio/semcode/config"
	"github.com/c360studio/semcode/export"
	"github.com/c360studio/semcode/graph"
	"github.com/c360studio/semcode/normalize"
	"github.com/c360studio/semcode/pipeline"
	"github.com/c360studio/semcode/source"
	"github.com/c360studio/semcode/validation"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// maxLoggedResults caps the validation results logged per run.
const maxLoggedResults = 20

type runFlags struct {
	revision       string
	inputs         []string
	format         string
	sheet          string
	output         string
	outputFormat   string
	unmappedReport string
	publish        bool
	watch          bool
	workers        int
	shapes         string
	terminateOn    string
	failOnUnmapped bool
	allowPrivate   bool
	metricsAddr    string
}

func runCmd(g *globals) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run PIPELINE",
		Short: "Run a pipeline and export or publish its graph",
		Long: `Run reads the pipeline's inputs (or --input locations), maps every record
to triples, validates the resulting graph and writes it as Turtle, N-Triples
or JSON-LD. With --publish the graph is sent to the knowledge graph over
NATS after validation passes. With --watch the pipeline re-runs whenever a
local input file changes.`,
		Example: `  semcode run content-features -o cf.ttl
  semcode run annotations --input 'annotations/**/*.csv' --publish
  semcode run datasets --input cbs.csv --watch -o datasets.jsonld`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := g.config()
			if err != nil {
				return err
			}
			env, err := newRunEnv(g, cfg, f, args[0], cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return env.execute(ctx)
		},
	}

	cmd.Flags().StringVarP(&f.revision, "revision", "r", "", "Codebook revision (default from config)")
	cmd.Flags().StringArrayVarP(&f.inputs, "input", "i", nil, "Input file, glob or URL (repeatable; default: the pipeline's inputs)")
	cmd.Flags().StringVar(&f.format, "format", "", "Input format (csv, xlsx, json; default: detect)")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet of XLSX inputs")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file (default from config, - for stdout)")
	cmd.Flags().StringVar(&f.outputFormat, "output-format", "", "Output format (turtle, ntriples, jsonld)")
	cmd.Flags().StringVar(&f.unmappedReport, "unmapped-report", "", "Write unmapped labels as JSON to this file")
	cmd.Flags().BoolVar(&f.publish, "publish", false, "Publish the graph to NATS")
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Re-run when local inputs change")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Parallel record workers (default from config)")
	cmd.Flags().StringVar(&f.shapes, "shapes", "", "Shape file, builtin, or none (default from config)")
	cmd.Flags().StringVar(&f.terminateOn, "terminate-on", "", "Fail on validation results of this severity (violation, warning, never)")
	cmd.Flags().BoolVar(&f.failOnUnmapped, "fail-on-unmapped", false, "Fail the run if any label is unmapped")
	cmd.Flags().BoolVar(&f.allowPrivate, "allow-private", false, "Allow plain HTTP and private network input URLs")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}

func pipelinesCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "pipelines",
		Short: "List the built-in pipelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Pipeline", "Graph", "Default inputs", "Description"})
			for _, name := range pipeline.Names() {
				p, err := pipeline.Lookup(name)
				if err != nil {
					return err
				}
				t.AppendRow(table.Row{p.Name, p.Graph, len(p.Inputs), p.Description})
			}
			t.Render()
			return nil
		},
	}
}

// runEnv is a resolved pipeline invocation.
type runEnv struct {
	logger   *slog.Logger
	cfg      *config.Config
	flags    *runFlags
	stdout   io.Writer
	pipeline *pipeline.Pipeline
	revision *codebook.Revision
	shapes   *validation.Shapes
	policy   validation.TerminateOn
	format   export.Format
	output   string
	fetcher  *source.Fetcher
	metrics  *runMetrics
	sinks    []export.Sink
}

func newRunEnv(g *globals, cfg *config.Config, f *runFlags, name string, stdout io.Writer) (*runEnv, error) {
	p, err := pipeline.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, pipeline.Names())
	}
	rev, err := g.revision(f.revision)
	if err != nil {
		return nil, err
	}

	env := &runEnv{
		logger:   g.logger,
		cfg:      cfg,
		flags:    f,
		stdout:   stdout,
		pipeline: p,
		revision: rev,
		fetcher:  &source.Fetcher{AllowPrivate: f.allowPrivate},
	}

	shapesRef := firstNonEmpty(f.shapes, cfg.Validation.Shapes)
	if env.shapes, err = loadShapes(shapesRef); err != nil {
		return nil, err
	}
	if env.policy, err = validation.ParseTerminateOn(firstNonEmpty(f.terminateOn, cfg.Validation.TerminateOn)); err != nil {
		return nil, err
	}

	env.output = firstNonEmpty(f.output, cfg.Output.Path)
	if env.format, err = outputFormat(f.outputFormat, env.output, cfg.Output.Format); err != nil {
		return nil, err
	}
	return env, nil
}

func (e *runEnv) execute(ctx context.Context) error {
	if addr := firstNonEmpty(e.flags.metricsAddr, e.cfg.Metrics.Addr); addr != "" {
		m, err := newRunMetrics()
		if err != nil {
			return err
		}
		if err := m.serve(ctx, addr, e.logger); err != nil {
			return err
		}
		e.metrics = m
	}

	if e.flags.publish {
		client, err := connectToNATS(ctx, e.cfg.NATS.URL, e.logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(context.Background()); err != nil {
				e.logger.Warn("Failed to close NATS client", "error", err)
			}
		}()
		e.sinks = append(e.sinks, graph.NewPublisher(client,
			graph.WithSubject(e.cfg.NATS.Subject),
			graph.WithSource(appName+"."+e.pipeline.Name),
			graph.WithLogger(e.logger)))
	}

	if !e.flags.watch {
		_, err := e.once(ctx)
		return err
	}
	return e.watch(ctx)
}

// once runs the pipeline a single time: read, map, validate, write, publish.
func (e *runEnv) once(ctx context.Context) (stats *pipeline.Stats, err error) {
	if e.metrics != nil {
		defer func() { e.metrics.observe(e.pipeline.Name, stats, err) }()
	}
	if timeout := e.cfg.Pipeline.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	src, err := e.openSource()
	if err != nil {
		return nil, err
	}

	g := export.NewGraph(e.pipeline.Graph)
	var diagnostics normalize.Sink = normalize.Discard
	if e.metrics != nil {
		diagnostics = e.metrics.unmapped
	}
	runner := pipeline.NewRunner(e.revision,
		pipeline.WithWorkers(firstPositive(e.flags.workers, e.cfg.Pipeline.Workers)),
		pipeline.WithOutput(g),
		pipeline.WithDiagnostics(diagnostics),
		pipeline.WithFailOnUnmapped(e.flags.failOnUnmapped || e.cfg.Pipeline.FailOnUnmapped),
		pipeline.WithRunnerLogger(e.logger),
	)

	stats, err = runner.Run(ctx, e.pipeline, src)
	if stats != nil && e.flags.unmappedReport != "" {
		if rerr := writeUnmappedReport(e.flags.unmappedReport, stats); rerr != nil {
			return stats, rerr
		}
	}
	if err != nil {
		return stats, err
	}

	if e.shapes != nil {
		report := validation.Validate(g, e.shapes)
		e.logReport(report)
		if err := report.Err(e.policy); err != nil {
			return stats, err
		}
	}

	if err := e.writeGraph(g); err != nil {
		return stats, err
	}

	triples := g.Triples()
	for _, sink := range e.sinks {
		if err := sink.Write(ctx, triples); err != nil {
			return stats, fmt.Errorf("publish graph: %w", err)
		}
	}
	if len(e.sinks) > 0 {
		e.logger.Info("Graph published", "run_id", stats.RunID, "subjects", len(g.Subjects()), "triples", g.Len())
	}
	return stats, nil
}

// watch runs the pipeline once and again after every change to a local input.
func (e *runEnv) watch(ctx context.Context) error {
	files, err := e.localInputs()
	if err != nil {
		return err
	}

	w, err := source.NewWatcher(source.WatcherConfig{
		Files:         files,
		DebounceDelay: e.cfg.Pipeline.WatchDebounce,
		Logger:        e.logger,
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}

	if _, err := e.once(ctx); err != nil && ctx.Err() == nil {
		e.logger.Error("Pipeline run failed", "pipeline", e.pipeline.Name, "error", err)
	}

	for event := range w.Events() {
		e.logger.Info("Inputs changed", "files", event.Files)
		if _, err := e.once(ctx); err != nil && ctx.Err() == nil {
			e.logger.Error("Pipeline run failed", "pipeline", e.pipeline.Name, "error", err)
		}
	}
	e.logger.Info("Watch stopped", "pipeline", e.pipeline.Name)
	return nil
}

// openSource opens explicit inputs, or the pipeline's defaults with their
// declared format and sheet.
func (e *runEnv) openSource() (source.Source, error) {
	format, err := e.inputFormat()
	if err != nil {
		return nil, err
	}
	if len(e.flags.inputs) > 0 {
		return source.Open(e.flags.inputs, format, e.flags.sheet, e.fetcher)
	}
	if len(e.pipeline.Inputs) == 0 {
		return nil, fmt.Errorf("pipeline %s has no default inputs, use --input", e.pipeline.Name)
	}
	if format == "" {
		format = e.pipeline.Format
	}
	return source.Open(e.pipeline.Inputs, format, firstNonEmpty(e.flags.sheet, e.pipeline.Sheet), e.fetcher)
}

func (e *runEnv) inputFormat() (source.Format, error) {
	if e.flags.format == "" {
		return "", nil
	}
	return source.ParseFormat(e.flags.format)
}

func (e *runEnv) localInputs() ([]string, error) {
	locations := e.flags.inputs
	if len(locations) == 0 {
		locations = e.pipeline.Inputs
	}
	expanded, err := source.Expand(locations)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, loc := range expanded {
		if !source.IsRemote(loc) {
			files = append(files, loc)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("watch needs at least one local input file")
	}
	return files, nil
}

func (e *runEnv) writeGraph(g *export.Graph) error {
	if e.output == "" || e.output == "-" {
		if e.flags.publish {
			return nil
		}
		return g.WriteTo(e.stdout, e.format)
	}

	if err := os.MkdirAll(filepath.Dir(e.output), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp := e.output + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := g.WriteTo(f, e.format); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp, e.output); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	e.logger.Info("Graph written", "path", e.output, "format", e.format, "triples", g.Len())
	return nil
}

func (e *runEnv) logReport(report *validation.Report) {
	for i, res := range report.Results {
		if i == maxLoggedResults {
			e.logger.Warn("Further validation results omitted", "count", len(report.Results)-i)
			break
		}
		e.logger.Warn("Validation result",
			"severity", res.Severity,
			"shape", res.Shape,
			"focus", res.Focus,
			"path", res.Path,
			"value", res.Value,
			"message", res.Message)
	}
	e.logger.Info("Validation finished",
		"conforms", report.Conforms(),
		"focus_nodes", report.Focus,
		"violations", report.Violations(),
		"warnings", report.Warnings())
}

// loadShapes resolves builtin, none, or a shape file path.
func loadShapes(ref string) (*validation.Shapes, error) {
	switch ref {
	case "", "none":
		return nil, nil
	case "builtin":
		return validation.Builtin()
	default:
		return validation.LoadFile(ref)
	}
}

// outputFormat prefers the explicit flag, then the output file extension,
// then the configured format.
func outputFormat(flag, path, configured string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if path != "" && path != "-" {
		if f, err := export.FormatForPath(path); err == nil {
			return f, nil
		}
	}
	return export.ParseFormat(configured)
}

type unmappedReport struct {
	RunID    string               `json:"run_id"`
	Pipeline string               `json:"pipeline"`
	Revision string               `json:"revision"`
	Source   string               `json:"source"`
	Unmapped []normalize.Unmapped `json:"unmapped"`
}

func writeUnmappedReport(path string, stats *pipeline.Stats) error {
	report := unmappedReport{
		RunID:    stats.RunID,
		Pipeline: stats.Pipeline,
		Revision: stats.Revision,
		Source:   stats.Source,
		Unmapped: stats.Unmapped,
	}
	if report.Unmapped == nil {
		report.Unmapped = []normalize.Unmapped{}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal unmapped report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write unmapped report: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
