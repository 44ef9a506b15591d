package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"filtermerge/internal/domain"
)

const (
	configPathEnv  = "FILTERMERGE_CONFIG"
	databaseDSNEnv = "DATABASE_DSN"
	outputFileEnv  = "FILTERMERGE_OUTPUT"
	strategyEnv    = "FILTERMERGE_STRATEGY"
	patternsDirEnv = "FILTERMERGE_PATTERNS_DIR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Output     OutputConfig     `yaml:"output"`
	Patterns   PatternsConfig   `yaml:"patterns"`
	Processing ProcessingConfig `yaml:"processing"`
	Download   DownloadConfig   `yaml:"download"`
	Database   DatabaseConfig   `yaml:"database"`
	Lists      []ListConfig     `yaml:"lists"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// OutputConfig describes the generated list.
type OutputConfig struct {
	File    string `yaml:"file"`
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// PatternsConfig points at the syntax pattern descriptors.
type PatternsConfig struct {
	Dir              string `yaml:"dir"`
	CanonicalDialect string `yaml:"canonicalDialect"`
}

// ProcessingConfig tunes the rule classification stage.
type ProcessingConfig struct {
	// Strategy is one of rewrite, comment_out_untranslatable, drop,
	// passthrough.
	Strategy string `yaml:"strategy"`
	// MaxWorkers <= 0 means host parallelism.
	MaxWorkers int `yaml:"maxWorkers"`
}

// DownloadConfig tunes the list fetch stage.
type DownloadConfig struct {
	MaxParallel    int `yaml:"maxParallel"`
	TimeoutSeconds int `yaml:"timeoutSeconds"`
	MaxRetries     int `yaml:"maxRetries"`
}

// DatabaseConfig describes the optional Postgres audit store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ListConfig names one upstream filter list.
type ListConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Sources converts configured lists into domain sources.
func (c Config) Sources() []domain.ListSource {
	sources := make([]domain.ListSource, 0, len(c.Lists))
	for _, l := range c.Lists {
		sources = append(sources, domain.ListSource{Name: l.Name, URL: l.URL})
	}
	return sources
}

// Strategy returns the configured translation strategy.
func (c Config) Strategy() domain.Strategy {
	return domain.Strategy(c.Processing.Strategy)
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// LoadFile reads YAML configuration from an explicit path, then applies
// environment overrides. Missing or unreadable files are an error here,
// unlike the env-driven Load.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, fileCfg)
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(outputFileEnv); v != "" {
		c.Output.File = v
	}

	if v := os.Getenv(strategyEnv); v != "" {
		c.Processing.Strategy = v
	}

	if v := os.Getenv(patternsDirEnv); v != "" {
		c.Patterns.Dir = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Output.File != "" {
		base.Output.File = override.Output.File
	}
	if override.Output.Title != "" {
		base.Output.Title = override.Output.Title
	}
	if override.Output.Version != "" {
		base.Output.Version = override.Output.Version
	}

	if override.Patterns.Dir != "" {
		base.Patterns.Dir = override.Patterns.Dir
	}
	if override.Patterns.CanonicalDialect != "" {
		base.Patterns.CanonicalDialect = override.Patterns.CanonicalDialect
	}

	if override.Processing.Strategy != "" {
		base.Processing.Strategy = override.Processing.Strategy
	}
	if override.Processing.MaxWorkers > 0 {
		base.Processing.MaxWorkers = override.Processing.MaxWorkers
	}

	if override.Download.MaxParallel > 0 {
		base.Download.MaxParallel = override.Download.MaxParallel
	}
	if override.Download.TimeoutSeconds > 0 {
		base.Download.TimeoutSeconds = override.Download.TimeoutSeconds
	}
	if override.Download.MaxRetries > 0 {
		base.Download.MaxRetries = override.Download.MaxRetries
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if len(override.Lists) > 0 {
		base.Lists = override.Lists
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Output: OutputConfig{
			File:    "output/unified_list.txt",
			Title:   "Unified Filter List",
			Version: "1.0",
		},
		Patterns: PatternsConfig{
			Dir:              "syntax_patterns",
			CanonicalDialect: "brave",
		},
		Processing: ProcessingConfig{
			Strategy:   string(domain.StrategyCommentOut),
			MaxWorkers: 0,
		},
		Download: DownloadConfig{
			MaxParallel:    5,
			TimeoutSeconds: 30,
			MaxRetries:     2,
		},
		Lists: []ListConfig{
			{Name: "easylist", URL: "https://easylist.to/easylist/easylist.txt"},
		},
	}
}
