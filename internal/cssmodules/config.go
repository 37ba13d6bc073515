package icm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sjc5/kit/pkg/safecache"
	"gopkg.in/yaml.v3"
)

var defaultIncludePatterns = []string{"**/*.css"}

type Config struct {
	/*
		RootDir is the directory CSS module names are relative to. A module
		at "<RootDir>/styles/a.css" is loaded as "styles/a.css". We run
		filepath.Clean on it, so leaving it blank means ".".
	*/
	RootDir string `yaml:"root" toml:"root"`

	// Include and Exclude are doublestar glob patterns, relative to RootDir,
	// selecting which files are CSS modules. Include defaults to "**/*.css".
	Include []string `yaml:"include" toml:"include"`
	Exclude []string `yaml:"exclude" toml:"exclude"`

	// Strategy is "auto" (default), "inline" or "external". It is resolved
	// once per Config.
	Strategy string `yaml:"strategy" toml:"strategy"`

	// DebounceMillis is the quiet period before the live container is
	// re-rendered. Defaults to 500.
	DebounceMillis int `yaml:"debounce_ms" toml:"debounce_ms"`

	Bundle BundleOptions `yaml:"bundle" toml:"bundle"`

	Dev DevConfig `yaml:"dev" toml:"dev"`

	// LogLevel is "none", "normal" or "debug". Ignored when Logger is set.
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// LogFormat is "color" (default) or "zap".
	LogFormat string `yaml:"log_format" toml:"log_format"`

	Logger Logger `yaml:"-" toml:"-"`

	initOnce sync.Once
	initErr  error
	strategy *safecache.Cache[EmbedStrategy]
}

type DevConfig struct {
	Port int `yaml:"port" toml:"port"` // 0 picks a free port starting at 10000
}

// LoadConfig reads a YAML or TOML config file (by extension), applies
// environment overrides, then overrides, and fills in defaults. An empty
// path skips the file.
func LoadConfig(path string, overrides ...func(*Config)) (*Config, error) {
	c := &Config{}
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, fmt.Errorf("error loading config %s: %w", path, err)
		}
	}
	c.applyEnv()
	for _, override := range overrides {
		override(c)
	}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.DecodeFile(path, c)
		return err
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return yaml.Unmarshal(data, c)
	}
	return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
}

func (c *Config) init() error {
	c.initOnce.Do(func() {
		if len(c.Include) == 0 {
			c.Include = defaultIncludePatterns
		}
		if c.DebounceMillis <= 0 {
			c.DebounceMillis = int(DefaultDebounceDelay / time.Millisecond)
		}
		if c.Logger == nil {
			level := c.LogLevel
			if level == "" && GetIsDev() {
				level = "debug"
			}
			logger, lerr := newConfiguredLogger(c.LogFormat, level)
			if lerr != nil {
				c.initErr = fmt.Errorf("error creating logger: %w", lerr)
				return
			}
			c.Logger = logger
		}
		c.strategy = safecache.New(c.getInitialStrategy, nil)
	})
	return c.initErr
}

func newConfiguredLogger(format, level string) (Logger, error) {
	switch format {
	case "", "color":
		return NewColorLogger(level)
	case "zap":
		logger, err := NewLogger(level)
		if err != nil {
			return nil, err
		}
		return logger.Sugar(), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}

func (c *Config) getInitialStrategy() (EmbedStrategy, error) {
	return ParseStrategy(c.Strategy, ServerCapabilities)
}

// EmbedStrategy resolves the configured strategy. The result is fixed for
// the lifetime of the Config.
func (c *Config) EmbedStrategy() (EmbedStrategy, error) {
	if err := c.init(); err != nil {
		return StrategyInline, err
	}
	return c.strategy.Get()
}

func (c *Config) DebounceDelay() time.Duration {
	if c.DebounceMillis <= 0 {
		return DefaultDebounceDelay
	}
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

func (c *Config) getCleanRootDir() string {
	return filepath.Clean(c.RootDir)
}

// getLogger returns the configured logger, initializing defaults first.
func (c *Config) getLogger() Logger {
	if err := c.init(); err != nil || c.Logger == nil {
		return NopLogger()
	}
	return c.Logger
}
