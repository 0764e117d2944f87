package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "semcode.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/semcode"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Environment variables that override file configuration.
const (
	EnvRevision    = "SEMCODE_REVISION"
	EnvNATSURL     = "NATS_URL"
	EnvMetricsAddr = "SEMCODE_METRICS_ADDR"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger  *slog.Logger
	workDir string
	homeDir string
	getenv  func(string) string
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithWorkDir sets the directory the project config search starts from
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) { l.workDir = dir }
}

// WithHomeDir sets the home directory holding the user config
func WithHomeDir(dir string) LoaderOption {
	return func(l *Loader) { l.homeDir = dir }
}

// WithEnv sets the environment lookup function
func WithEnv(getenv func(string) string) LoaderOption {
	return func(l *Loader) { l.getenv = getenv }
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger, getenv: os.Getenv}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/semcode/config.yaml)
// 3. Project config (explicit path, or semcode.yaml in current or parent directories)
// 4. Environment variables (SEMCODE_REVISION, NATS_URL, SEMCODE_METRICS_ADDR)
func (l *Loader) Load(explicitPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	userConfigPath := l.userConfigPath()
	if userConfigPath != "" {
		if _, err := os.Stat(userConfigPath); err == nil {
			if userConfig, err := LoadFromFile(userConfigPath); err == nil {
				l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
				config.Merge(userConfig)
			} else {
				l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
			}
		}
	}

	// Load project config
	if explicitPath != "" {
		projectConfig, err := LoadFromFile(explicitPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", explicitPath))
		config.Merge(projectConfig)
	} else if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	l.applyEnv(config)

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv applies environment overrides
func (l *Loader) applyEnv(config *Config) {
	if v := l.getenv(EnvRevision); v != "" {
		config.Codebook.Revision = v
		config.Codebook.File = ""
		l.logger.Debug("Codebook revision from environment", slog.String("revision", v))
	}
	if v := l.getenv(EnvNATSURL); v != "" {
		config.NATS.URL = v
	}
	if v := l.getenv(EnvMetricsAddr); v != "" {
		config.Metrics.Addr = v
	}
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	// Check if it already exists
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	// Create default config
	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home := l.homeDir
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for semcode.yaml in the working and parent directories
func (l *Loader) findProjectConfig() string {
	dir := l.workDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}
