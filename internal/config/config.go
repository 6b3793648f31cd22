package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. EMDAT_DATA_DIR.
const EnvPrefix = "EMDAT"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Data       DataConfig       `mapstructure:"data"`
	Indicators IndicatorsConfig `mapstructure:"indicators"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	DB         DatabaseConfig   `mapstructure:"db"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Query      QueryConfig      `mapstructure:"query"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	RateLimit       int           `mapstructure:"rate_limit" validate:"min=1"`
	AllowOrigins    []string      `mapstructure:"allow_origins" validate:"min=1"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DataConfig struct {
	Dir       string `mapstructure:"dir" validate:"required"`
	EMDATFile string `mapstructure:"emdat_file" validate:"required"`
	CPIFile   string `mapstructure:"cpi_file" validate:"required"`
	ISOFile   string `mapstructure:"iso_file" validate:"required"`
}

func (d DataConfig) EMDATPath() string { return filepath.Join(d.Dir, d.EMDATFile) }
func (d DataConfig) CPIPath() string   { return filepath.Join(d.Dir, d.CPIFile) }
func (d DataConfig) ISOPath() string   { return filepath.Join(d.Dir, d.ISOFile) }

type IndicatorsConfig struct {
	BaseURL         string        `mapstructure:"base_url" validate:"required,url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	PerPage         int           `mapstructure:"per_page" validate:"min=1"`
	MaxRetries      uint64        `mapstructure:"max_retries"`
	PrefetchOnStart bool          `mapstructure:"prefetch_on_start"`
	BatchSize       int           `mapstructure:"batch_size" validate:"min=1"`
}

type WorkerConfig struct {
	Count      int `mapstructure:"count" validate:"min=1"`
	BufferSize int `mapstructure:"buffer_size" validate:"min=0"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type QueryConfig struct {
	BaseYear int `mapstructure:"base_year" validate:"min=1900,max=2100"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 5)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.emdat_file", "emdat.xlsx")
	v.SetDefault("data.cpi_file", "US_CPI.csv")
	v.SetDefault("data.iso_file", "ISO_codes.csv")

	v.SetDefault("indicators.base_url", "https://api.worldbank.org/v2")
	v.SetDefault("indicators.timeout", 15*time.Second)
	v.SetDefault("indicators.per_page", 1000)
	v.SetDefault("indicators.max_retries", 3)
	v.SetDefault("indicators.prefetch_on_start", false)
	v.SetDefault("indicators.batch_size", 20)

	v.SetDefault("worker.count", 2)
	v.SetDefault("worker.buffer_size", 20)

	v.SetDefault("db.path", "./data/emdat-stats.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("query.base_year", 2010)
}

// Load reads defaults, then the file named by EMDAT_CONFIG if set, then
// EMDAT_* environment variables.
func Load() (*Config, error) {
	return load(os.Getenv(EnvPrefix + "_CONFIG"))
}

func load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Indicators.Timeout < time.Second {
		return fmt.Errorf("indicator timeout must be at least 1 second")
	}

	return nil
}
