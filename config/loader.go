package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// ProjectConfigFile is the name of the project-level config file.
	ProjectConfigFile = "loom.yaml"
	// UserConfigDir is the directory for user-level config.
	UserConfigDir = ".config/loom"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"
	// DataDirName holds per-project output under the home directory.
	DataDirName = ".loom"
)

// Environment overrides, applied last.
const (
	EnvOutputPath = "LOOM_OUTPUT_PATH"
	EnvProtocol   = "LOOM_PROTOCOL"
	EnvModelName  = "LOOM_AI_MODEL"
	EnvEndpoint   = "LOOM_AI_ENDPOINT"
	EnvServerAddr = "LOOM_SERVER_ADDR"
	EnvDebounce   = "LOOM_WATCH_DEBOUNCE"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/loom/config.yaml)
// 3. Project config (loom.yaml in current or parent directories)
// 4. Environment variables
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !os.IsNotExist(err) {
		l.logger.Warn("failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("no project config found")
	}

	l.applyEnv(config)

	if config.Output.Root == "" {
		config.Output.Root = l.defaultOutputRoot()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnv applies environment variable overrides on top of file
// config.
func (l *Loader) applyEnv(config *Config) {
	if v := os.Getenv(EnvOutputPath); v != "" {
		config.Output.Root = v
	}
	if v := os.Getenv(EnvProtocol); v != "" {
		config.Protocol = v
	}
	if v := os.Getenv(EnvModelName); v != "" {
		config.Model.Name = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		config.Model.Endpoint = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		config.Server.Addr = v
	}
	if v := os.Getenv(EnvDebounce); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			config.Watch.Debounce = time.Duration(ms) * time.Millisecond
		} else if d, err := time.ParseDuration(v); err == nil && d > 0 {
			config.Watch.Debounce = d
		}
	}
}

// defaultOutputRoot derives ~/.loom/<project> from the working
// directory name, falling back to the working directory itself when no
// home directory is available.
func (l *Loader) defaultOutputRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return cwd
	}
	return filepath.Join(home, DataDirName, filepath.Base(cwd))
}

// EnsureUserConfig creates the user config file with defaults if it
// does not exist.
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}
	l.logger.Info("created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file.
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for loom.yaml in the current and parent
// directories.
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}
