// internal/config/config.go
//
// This package handles configuration and the .teasaga directory structure.
// Every project that runs teasaga gets a .teasaga/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".teasaga"

	defaultDemoID     = "counter"
	defaultLogLevel   = "info"
	defaultLogFormat  = "json"
	defaultFetchDelay = 750 * time.Millisecond
	defaultMetrics    = "127.0.0.1:9464"
	defaultBridgeHost = "127.0.0.1"
	defaultBridgePort = 8765
)

const defaultProjectConfigYAML = `# teasaga project configuration
version: 1

# Log level (debug, info, warn, error) and format (json, console).
# TEASAGA_LOG_LEVEL overrides the level.
logging:
  level: info
  format: json

demos:
  default: counter

# Latency of the fetch demo's fake request.
effects:
  fetch_delay: 750ms

# HTTP endpoint where outside systems answer the running demo's pending
# requests and send it actions. TEASAGA_BRIDGE_ENABLED, TEASAGA_BRIDGE_HOST
# and TEASAGA_BRIDGE_PORT override these.
eventbridge:
  enabled: false
  host: 127.0.0.1
  port: 8765

metrics:
  enabled: false
  address: 127.0.0.1:9464
`

// LoggingConfig captures log preferences.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DemoConfig captures demo preferences.
type DemoConfig struct {
	Default string `yaml:"default"`
}

// EffectsConfig tunes the demo effects.
type EffectsConfig struct {
	FetchDelay time.Duration `yaml:"fetch_delay"`
}

// EventBridgeConfig mirrors the eventbridge section. Enabled is a pointer so
// an omitted key keeps the bridge's own default.
type EventBridgeConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"`
	Port    int    `yaml:"port,omitempty"`
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address,omitempty"`
}

// ProjectConfig models .teasaga/config.yaml.
type ProjectConfig struct {
	Version     int               `yaml:"version"`
	Logging     LoggingConfig     `yaml:"logging"`
	Demos       DemoConfig        `yaml:"demos"`
	Effects     EffectsConfig     `yaml:"effects"`
	EventBridge EventBridgeConfig `yaml:"eventbridge"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// Config holds the runtime configuration for teasaga.
type Config struct {
	// ProjectDir is the directory teasaga was started from
	ProjectDir string

	// StateDir is ProjectDir/.teasaga
	StateDir string

	Project ProjectConfig
}

// InitDir creates the .teasaga directory structure in the given project directory.
//
// Structure created:
// .teasaga/
// ├── config.yaml
// ├── logs/        <- teasaga.log and journey.log
// └── scenarios/   <- replayable action scripts
func InitDir(projectDir string) error {
	root := filepath.Join(projectDir, Dir)
	dirs := []string{
		filepath.Join(root, "logs"),
		filepath.Join(root, "scenarios"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return ensureProjectConfig(filepath.Join(root, "config.yaml"))
}

// NewConfig loads .teasaga/config.yaml from projectDir. A missing file yields
// the defaults.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir: projectDir,
		StateDir:   filepath.Join(projectDir, Dir),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.StateDir, "logs")
}

// JourneyLogPath returns the path of the human readable journey log.
func (c *Config) JourneyLogPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// ScenariosDir returns the directory scenario files are read from
func (c *Config) ScenariosDir() string {
	return filepath.Join(c.StateDir, "scenarios")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.StateDir, "config.yaml")
}

// DefaultDemo returns the configured default demo identifier.
func (c *Config) DefaultDemo() string {
	return c.Project.Demos.Default
}

// FetchDelay returns the configured latency of the fetch demo.
func (c *Config) FetchDelay() time.Duration {
	return c.Project.Effects.FetchDelay
}

// BridgeEnabled reports whether the event bridge should be served.
func (c *Config) BridgeEnabled() bool {
	enabled := c.Project.EventBridge.Enabled
	return enabled != nil && *enabled
}

// BridgeAddress returns the host:port the event bridge listens on.
func (c *Config) BridgeAddress() string {
	host := c.Project.EventBridge.Host
	if host == "" {
		host = defaultBridgeHost
	}
	port := c.Project.EventBridge.Port
	if port == 0 {
		port = defaultBridgePort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// SetDefaultDemo updates the default demo and persists the value back to
// .teasaga/config.yaml.
func (c *Config) SetDefaultDemo(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("config: demo id is required")
	}
	c.Project.Demos.Default = id
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnvOverrides() {
	if level := strings.TrimSpace(os.Getenv("TEASAGA_LOG_LEVEL")); level != "" {
		level = strings.ToLower(level)
		if validLogLevel(level) {
			c.Project.Logging.Level = level
		}
	}
	if value := strings.TrimSpace(os.Getenv("TEASAGA_BRIDGE_ENABLED")); value != "" {
		if enabled, err := strconv.ParseBool(value); err == nil {
			c.Project.EventBridge.Enabled = &enabled
		}
	}
	if host := strings.TrimSpace(os.Getenv("TEASAGA_BRIDGE_HOST")); host != "" {
		c.Project.EventBridge.Host = host
	}
	if value := strings.TrimSpace(os.Getenv("TEASAGA_BRIDGE_PORT")); value != "" {
		if port, err := strconv.Atoi(value); err == nil && port > 0 && port <= 65535 {
			c.Project.EventBridge.Port = port
		}
	}
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Logging: LoggingConfig{Level: defaultLogLevel, Format: defaultLogFormat},
		Demos:   DemoConfig{Default: defaultDemoID},
		Effects: EffectsConfig{FetchDelay: defaultFetchDelay},
		Metrics: MetricsConfig{Address: defaultMetrics},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Effects.FetchDelay == 0 {
		pc.Effects.FetchDelay = defaultFetchDelay
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Logging.Level = strings.ToLower(strings.TrimSpace(pc.Logging.Level))
	if pc.Logging.Level == "" {
		pc.Logging.Level = defaultLogLevel
	}
	pc.Logging.Format = strings.ToLower(strings.TrimSpace(pc.Logging.Format))
	if pc.Logging.Format == "" {
		pc.Logging.Format = defaultLogFormat
	}
	pc.Demos.Default = strings.ToLower(strings.TrimSpace(pc.Demos.Default))
	if pc.Demos.Default == "" {
		pc.Demos.Default = defaultDemoID
	}
	pc.EventBridge.Host = strings.TrimSpace(pc.EventBridge.Host)
	pc.Metrics.Address = strings.TrimSpace(pc.Metrics.Address)
	if pc.Metrics.Address == "" {
		pc.Metrics.Address = defaultMetrics
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !validLogLevel(pc.Logging.Level) {
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch pc.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}
	if pc.Effects.FetchDelay < 0 {
		return fmt.Errorf("effects.fetch_delay must not be negative")
	}
	if port := pc.EventBridge.Port; port < 0 || port > 65535 {
		return fmt.Errorf("eventbridge.port %d out of range", port)
	}
	return nil
}

func validLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.StateDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure state dir: %w", err)
	}
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0o644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
