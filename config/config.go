// Package config provides configuration loading and management for loom.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete loom configuration.
type Config struct {
	Output     OutputConfig        `yaml:"output"`
	Protocol   string              `yaml:"protocol"`
	Formatters map[string][]string `yaml:"formatters"`
	Model      ModelConfig         `yaml:"model"`
	Render     RenderConfig        `yaml:"render"`
	Server     ServerConfig        `yaml:"server"`
	Watch      WatchConfig         `yaml:"watch"`
	Ignore     []string            `yaml:"ignore"`
}

// OutputConfig controls where tangle and weave output lands.
type OutputConfig struct {
	// Root is the tangle output directory. Empty resolves to
	// ~/.loom/<project> at load time; LOOM_OUTPUT_PATH overrides both.
	Root string `yaml:"root"`
	// Book is the weave output directory, relative to the invocation
	// unless absolute.
	Book string `yaml:"book"`
}

// ModelConfig configures the chat model fallback chain.
type ModelConfig struct {
	// Provider selects the primary provider ("ollama", "anthropic").
	Provider string `yaml:"provider"`
	// Endpoint is the provider base URL (empty = provider default).
	Endpoint string `yaml:"endpoint"`
	// Name is the model identifier.
	Name string `yaml:"name"`
	// Temperature controls randomness (0.0-1.0).
	Temperature float64 `yaml:"temperature"`
	// Timeout is the maximum time to wait for model responses.
	Timeout time.Duration `yaml:"timeout"`
	// Fallbacks are tried in order when the primary endpoint fails.
	Fallbacks []FallbackConfig `yaml:"fallbacks"`
}

// FallbackConfig is one secondary model endpoint.
type FallbackConfig struct {
	Provider string `yaml:"provider"`
	Endpoint string `yaml:"endpoint"`
	Name     string `yaml:"name"`
}

// RenderConfig controls HTML book generation.
type RenderConfig struct {
	// CSS replaces the built-in page style when set.
	CSS string `yaml:"css"`
	// MermaidJS overrides the diagram script URL.
	MermaidJS string `yaml:"mermaid_js"`
	// DisableMermaid renders diagrams as plain listings.
	DisableMermaid bool `yaml:"disable_mermaid"`
}

// ServerConfig configures the chat/book HTTP server.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`
}

// WatchConfig configures the auto-retangle watcher.
type WatchConfig struct {
	// Debounce collapses rapid filesystem events into one run.
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Protocol: "default",
		Model: ModelConfig{
			Provider:    "ollama",
			Endpoint:    "http://localhost:11434/v1",
			Name:        "qwen2.5-coder:32b",
			Temperature: 0.2,
			Timeout:     5 * time.Minute,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		// A previous run's woven book must never be re-ingested as input.
		Ignore: []string{"book/**"},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Protocol {
	case "", "default", "aimm", "located":
	default:
		return fmt.Errorf("protocol must be \"default\" or \"aimm\", got %q", c.Protocol)
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("model.temperature must be between 0 and 1")
	}
	if c.Model.Provider == "" {
		return fmt.Errorf("model.provider is required")
	}
	for lang, argv := range c.Formatters {
		if len(argv) == 0 {
			return fmt.Errorf("formatters.%s must name a command", lang)
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile writes the configuration as YAML, creating parent
// directories as needed.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge merges another config into this one; other takes precedence
// for non-zero values.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Output.Root != "" {
		c.Output.Root = other.Output.Root
	}
	if other.Output.Book != "" {
		c.Output.Book = other.Output.Book
	}
	if other.Protocol != "" {
		c.Protocol = other.Protocol
	}
	for lang, argv := range other.Formatters {
		if c.Formatters == nil {
			c.Formatters = map[string][]string{}
		}
		c.Formatters[lang] = argv
	}

	if other.Model.Provider != "" {
		c.Model.Provider = other.Model.Provider
	}
	if other.Model.Endpoint != "" {
		c.Model.Endpoint = other.Model.Endpoint
	}
	if other.Model.Name != "" {
		c.Model.Name = other.Model.Name
	}
	if other.Model.Temperature != 0 {
		c.Model.Temperature = other.Model.Temperature
	}
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}
	if len(other.Model.Fallbacks) > 0 {
		c.Model.Fallbacks = other.Model.Fallbacks
	}

	if other.Render.CSS != "" {
		c.Render.CSS = other.Render.CSS
	}
	if other.Render.MermaidJS != "" {
		c.Render.MermaidJS = other.Render.MermaidJS
	}
	if other.Render.DisableMermaid {
		c.Render.DisableMermaid = true
	}

	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if len(other.Ignore) > 0 {
		c.Ignore = other.Ignore
	}
}
