package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied before any file or environment variable.
const (
	DefaultServer         = "http://127.0.0.1:5000"
	DefaultPollInterval   = 2 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultLogLevel       = "warn"
	DefaultStartPath      = "/"
	DefaultClearLogPath   = "/clear_log"
)

// FieldConfig describes one start form field.
type FieldConfig struct {
	Name     string   `yaml:"name"`
	Title    string   `yaml:"title,omitempty"`
	Default  string   `yaml:"default,omitempty"`
	Options  []string `yaml:"options,omitempty"`
	Required bool     `yaml:"required,omitempty"`
}

// DisplayTitle returns Title, or Name when no title is set.
func (f FieldConfig) DisplayTitle() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

// FormConfig holds the start form layout.
type FormConfig struct {
	// Fields replaces the free-text form when non-empty.
	Fields []FieldConfig `yaml:"fields,omitempty"`
}

// Config holds jobctl configuration
type Config struct {
	Server         string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	LogLevel       string
	LogFile        string
	StartPath      string
	ClearLogPath   string
	Form           FormConfig

	// Files lists the config files that were merged, lowest precedence first.
	Files []string
}

type fileConfig struct {
	Server         string     `yaml:"server"`
	PollInterval   string     `yaml:"poll_interval"`
	RequestTimeout string     `yaml:"request_timeout"`
	LogLevel       string     `yaml:"log_level"`
	LogFile        string     `yaml:"log_file"`
	StartPath      string     `yaml:"start_path"`
	ClearLogPath   string     `yaml:"clear_log_path"`
	Form           FormConfig `yaml:"form"`
}

// configFile is the name of the config file
const configFile = "config.yaml"

// repoConfigDir is the per-directory config folder searched upward from cwd.
const repoConfigDir = ".jobctl"

// Default returns a config holding only built-in defaults.
func Default() *Config {
	return &Config{
		Server:         DefaultServer,
		PollInterval:   DefaultPollInterval,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       DefaultLogLevel,
		StartPath:      DefaultStartPath,
		ClearLogPath:   DefaultClearLogPath,
	}
}

// Load loads configuration with the following precedence (highest first):
// 1. Repo-local .jobctl/config.yaml in the current directory
// 2. Parent .jobctl/config.yaml files (searched upward from cwd)
// 3. Environment variables
// 4. Global ~/.config/jobctl/config.yaml
func Load() (*Config, error) {
	cfg := Default()

	globalPath := globalConfigPath()
	if globalPath != "" {
		if err := loadFromFile(globalPath, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	repoPaths, err := findRepoConfigs()
	if err != nil {
		return nil, err
	}
	for _, repoPath := range repoPaths {
		if err := loadFromFile(repoPath, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadFile loads defaults, then environment variables, then the single file
// at path. Unlike Load, a missing file is an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := loadFromFile(ExpandPath(path, ""), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Primary returns the highest-precedence file that was merged, or "".
func (c *Config) Primary() string {
	if len(c.Files) == 0 {
		return ""
	}
	return c.Files[len(c.Files)-1]
}

// findRepoConfigs searches upward from cwd for .jobctl/config.yaml files.
// Returned paths are ordered from furthest ancestor to closest (highest precedence last).
func findRepoConfigs() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	dir := cwd
	var paths []string
	for {
		configPath := filepath.Join(dir, repoConfigDir, configFile)
		if _, err := os.Stat(configPath); err == nil {
			paths = append(paths, configPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}

	return paths, nil
}

// globalConfigPath returns the path to global config
func globalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "jobctl", configFile)
}

// loadFromFile loads config from a YAML file, merging non-empty values into cfg.
// A relative log_file is resolved against the directory holding .jobctl (or
// the global config directory).
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fileCfg fileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	configDir := filepath.Dir(path)
	baseDir := configDir
	if filepath.Base(configDir) == repoConfigDir {
		baseDir = filepath.Dir(configDir)
	}

	if fileCfg.Server != "" {
		cfg.Server = fileCfg.Server
	}
	if fileCfg.PollInterval != "" {
		d, err := parseDuration("poll_interval", fileCfg.PollInterval)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		cfg.PollInterval = d
	}
	if fileCfg.RequestTimeout != "" {
		d, err := parseDuration("request_timeout", fileCfg.RequestTimeout)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		cfg.RequestTimeout = d
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogFile != "" {
		cfg.LogFile = ExpandPath(fileCfg.LogFile, baseDir)
	}
	if fileCfg.StartPath != "" {
		cfg.StartPath = fileCfg.StartPath
	}
	if fileCfg.ClearLogPath != "" {
		cfg.ClearLogPath = fileCfg.ClearLogPath
	}
	if len(fileCfg.Form.Fields) > 0 {
		for i, f := range fileCfg.Form.Fields {
			if strings.TrimSpace(f.Name) == "" {
				return fmt.Errorf("%s: form.fields[%d]: name is required", path, i)
			}
		}
		cfg.Form.Fields = fileCfg.Form.Fields
	}

	cfg.Files = append(cfg.Files, path)
	return nil
}

// applyEnv applies environment variables to config
func applyEnv(cfg *Config) error {
	if v := os.Getenv("JOBCTL_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := os.Getenv("JOBCTL_POLL_INTERVAL"); v != "" {
		d, err := parseDuration("JOBCTL_POLL_INTERVAL", v)
		if err != nil {
			return err
		}
		cfg.PollInterval = d
	}
	if v := os.Getenv("JOBCTL_REQUEST_TIMEOUT"); v != "" {
		d, err := parseDuration("JOBCTL_REQUEST_TIMEOUT", v)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = d
	}
	if v := os.Getenv("JOBCTL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JOBCTL_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	return nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, value)
	}
	return d, nil
}

// ExpandPath expands ~ and makes path absolute relative to base
func ExpandPath(path, base string) string {
	if path == "" {
		return ""
	}

	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}

	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}

	return path
}
