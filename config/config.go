package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/guardflow/guard"
	"github.com/BaSui01/guardflow/parser"
	"github.com/BaSui01/guardflow/validators"
)

// Config is the engine configuration loaded from YAML with environment
// overrides. Precedence: defaults, then file, then environment.
type Config struct {
	// MaxReasks is the default retry budget per call.
	MaxReasks int `yaml:"max_reasks"`
	// LenientParse resolves parse failures as root-level reasks.
	LenientParse bool `yaml:"lenient_parse"`
	// ParseMode is "strict" or "lenient".
	ParseMode string `yaml:"parse_mode"`
	// Parallelism bounds concurrent sibling validation within a pass.
	Parallelism int `yaml:"parallelism"`
	// CallTimeout bounds each model call.
	CallTimeout time.Duration `yaml:"call_timeout"`
	// Isolation configures the process-isolated validator runner.
	Isolation validators.IsolatedConfig `yaml:"isolation"`
	// Log configures engine logging.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures engine logging.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the default engine configuration.
func Default() *Config {
	return &Config{
		MaxReasks:   1,
		ParseMode:   string(parser.ModeStrict),
		Parallelism: 1,
		CallTimeout: 60 * time.Second,
		Isolation: validators.IsolatedConfig{
			Timeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the configuration from path, if non-empty, on top of defaults,
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from GUARDFLOW_* environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("GUARDFLOW_MAX_REASKS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GUARDFLOW_MAX_REASKS: %w", err)
		}
		c.MaxReasks = n
	}
	if v := os.Getenv("GUARDFLOW_LENIENT_PARSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GUARDFLOW_LENIENT_PARSE: %w", err)
		}
		c.LenientParse = b
	}
	if v := os.Getenv("GUARDFLOW_PARSE_MODE"); v != "" {
		c.ParseMode = v
	}
	if v := os.Getenv("GUARDFLOW_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GUARDFLOW_PARALLELISM: %w", err)
		}
		c.Parallelism = n
	}
	if v := os.Getenv("GUARDFLOW_CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GUARDFLOW_CALL_TIMEOUT: %w", err)
		}
		c.CallTimeout = d
	}
	if v := os.Getenv("GUARDFLOW_WORKER_PATH"); v != "" {
		c.Isolation.WorkerPath = v
	}
	if v := os.Getenv("GUARDFLOW_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

// GuardConfig converts the engine configuration into a guard configuration,
// wiring the validator runner: in-process by default, with an isolated
// runner dispatched per validator when a worker path is configured.
func (c *Config) GuardConfig() *guard.Config {
	var runner validators.Runner = validators.NewInProcessRunner(nil, nil)
	if c.Isolation.WorkerPath != "" {
		runner = validators.NewDispatchRunner(runner, validators.NewIsolatedRunner(c.Isolation, nil))
	}
	return &guard.Config{
		MaxReasks:    c.MaxReasks,
		LenientParse: c.LenientParse,
		ParseMode:    parser.Mode(c.ParseMode),
		Parallelism:  c.Parallelism,
		CallTimeout:  c.CallTimeout,
		Runner:       runner,
	}
}
