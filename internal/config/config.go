package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type RateLimit struct {
	Events   int           `mapstructure:"events"`
	Interval time.Duration `mapstructure:"interval"`
}

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	QueueSize       int           `mapstructure:"queue_size"`
	WriteWait       time.Duration `mapstructure:"write_wait"`
	PongWait        time.Duration `mapstructure:"pong_wait"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	RateLimit       RateLimit     `mapstructure:"rate_limit"`
	Backpressure    string        `mapstructure:"backpressure"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3000)
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("read_limit", 1<<20)
	v.SetDefault("send_buffer", 256)
	v.SetDefault("queue_size", 1024)
	v.SetDefault("write_wait", "10s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("ping_period", "54s")
	v.SetDefault("rate_limit.events", 50)
	v.SetDefault("rate_limit.interval", "1s")
	v.SetDefault("backpressure", "drop")
	v.SetDefault("shutdown_timeout", "5s")
}

// Load reads .env, an optional YAML file and the environment, in that
// order of increasing precedence. PORT is honoured without the prefix.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info().Str("module", "config").Msg("loaded .env")
	}

	v := viper.New()
	v.SetConfigType("yaml")

	fileName := os.Getenv("CONFIG_FILE")
	if fileName == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(fileName)

	setDefaults(v)
	v.SetEnvPrefix("DOCRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "DOCRELAY_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind port env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Str("addr", cfg.Addr()).
		Strs("origins", cfg.AllowedOrigins).
		Str("backpressure", cfg.Backpressure).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("mode %q must be debug, release or test", c.Mode))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.ReadLimit <= 0 {
		errs = append(errs, errors.New("read_limit must be positive"))
	}
	if c.SendBuffer <= 0 {
		errs = append(errs, errors.New("send_buffer must be positive"))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, errors.New("queue_size must be positive"))
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		errs = append(errs, errors.New("ping_period must be positive and shorter than pong_wait"))
	}
	if c.RateLimit.Events <= 0 || c.RateLimit.Interval <= 0 {
		errs = append(errs, errors.New("rate_limit needs positive events and interval"))
	}
	switch c.Backpressure {
	case "drop", "kick":
	default:
		errs = append(errs, fmt.Errorf("backpressure %q must be drop or kick", c.Backpressure))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
