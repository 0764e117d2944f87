// Package main provides the semcode binary entry point.
// Semcode normalizes MCAL controlled-vocabulary labels and runs the ODISSEI
// knowledge graph pipelines that turn spreadsheets into RDF.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/c360studio/semcode/codebook"
	"github.com/c360studio/semcode/config"
	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "semcode"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globals holds the state shared by all subcommands.
type globals struct {
	configPath string
	logLevel   string

	logger *slog.Logger
	cfg    *config.Config
}

func rootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "MCAL vocabulary normalizer and ODISSEI graph pipelines",
		Long: `Semcode maps free-text MCAL annotation labels to controlled-vocabulary
codes and runs the ODISSEI knowledge graph pipelines.

It provides:
- Label normalization against versioned codebook revisions
- Declarative pipelines from CSV, XLSX and JSON sources to RDF
- Shape validation and publication to the graph over NATS`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			g.logger = newLogger(cmd.ErrOrStderr(), g.logLevel)
			slog.SetDefault(g.logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		normalizeCmd(g),
		runCmd(g),
		pipelinesCmd(g),
		codebookCmd(g),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// config loads the layered configuration once per invocation.
func (g *globals) config() (*config.Config, error) {
	if g.cfg != nil {
		return g.cfg, nil
	}
	cfg, err := config.NewLoader(g.logger).Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	g.cfg = cfg
	return cfg, nil
}

// revision resolves the codebook revision: an explicit name wins over the
// configured file, which wins over the configured revision name.
func (g *globals) revision(name string) (*codebook.Revision, error) {
	if name != "" {
		return codebook.Load(name)
	}
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	if cfg.Codebook.File != "" {
		return codebook.LoadFile(cfg.Codebook.File)
	}
	return codebook.Load(cfg.Codebook.Revision)
}
