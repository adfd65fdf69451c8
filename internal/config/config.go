package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Input  InputConfig  `yaml:"input" mapstructure:"input"`
	Report ReportConfig `yaml:"report" mapstructure:"report"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// InputConfig configures how the transaction file is read.
type InputConfig struct {
	Sheet      string `yaml:"sheet" mapstructure:"sheet"`
	SheetIndex int    `yaml:"sheet_index" mapstructure:"sheet_index"`
	Delimiter  string `yaml:"delimiter" mapstructure:"delimiter"` // empty = sniff
	Encoding   string `yaml:"encoding" mapstructure:"encoding"`   // empty = auto
	Strict     bool   `yaml:"strict" mapstructure:"strict"`
	Timezone   string `yaml:"timezone" mapstructure:"timezone"`
}

// ReportConfig configures aggregation and output artifacts.
type ReportConfig struct {
	TopN     int      `yaml:"top_n" mapstructure:"top_n"`
	OutDir   string   `yaml:"out_dir" mapstructure:"out_dir"`
	Formats  []string `yaml:"formats" mapstructure:"formats"`
	Render   bool     `yaml:"render" mapstructure:"render"`
	Currency string   `yaml:"currency" mapstructure:"currency"`
}

// StoreConfig configures the run archive backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
	// Archive writes failing with transient errors are retried.
	RetryAttempts  int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBackoffMs int `yaml:"retry_backoff_ms" mapstructure:"retry_backoff_ms"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// working directory for an optional config.yaml; a named file must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("RETAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("input.sheet", "")
	v.SetDefault("input.sheet_index", 0)
	v.SetDefault("input.delimiter", "")
	v.SetDefault("input.encoding", "")
	v.SetDefault("input.strict", false)
	v.SetDefault("input.timezone", "UTC")
	v.SetDefault("report.top_n", 10)
	v.SetDefault("report.out_dir", "report")
	v.SetDefault("report.formats", []string{"csv", "xlsx", "json"})
	v.SetDefault("report.render", true)
	v.SetDefault("report.currency", "£")
	v.SetDefault("store.driver", "none")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("store.retry_attempts", 3)
	v.SetDefault("store.retry_backoff_ms", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Report.TopN <= 0 {
		return eris.Errorf("config: report.top_n must be positive, got %d", c.Report.TopN)
	}
	if len([]rune(c.Input.Delimiter)) > 1 {
		return eris.Errorf("config: input.delimiter must be a single character, got %q", c.Input.Delimiter)
	}
	switch strings.ToLower(c.Input.Encoding) {
	case "", "utf-8", "utf8", "latin1", "iso-8859-1", "windows-1252", "cp1252":
	default:
		return eris.Errorf("config: unsupported input.encoding %q", c.Input.Encoding)
	}
	for _, f := range c.Report.Formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "csv", "xlsx", "json", "yaml", "yml":
		default:
			return eris.Errorf("config: unsupported report format %q", f)
		}
	}
	switch c.Store.Driver {
	case "none", "sqlite", "postgres":
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
