package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	FeedAuto     = "auto"
	FeedPostgres = "postgres"
	FeedRedis    = "redis"
	FeedMemory   = "memory"
)

type Config struct {
	Port          string `mapstructure:"port"`
	DatabaseURL   string `mapstructure:"database_url"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	JWTIssuer     string `mapstructure:"jwt_issuer"`
	JWTTTLMinutes int    `mapstructure:"jwt_ttl_minutes"`

	StorageDriver string `mapstructure:"storage_driver"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	FixturesPath  string `mapstructure:"fixtures_path"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Feed          string `mapstructure:"feed"`

	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	MatchLimit   int           `mapstructure:"match_limit"`
	JobsPageSize int           `mapstructure:"jobs_page_size"`
	// NotifyRate: сколько перезагрузок в секунду допускает одна подписка.
	NotifyRate float64 `mapstructure:"notify_rate"`

	Debug bool `mapstructure:"debug"`
	JSON  bool `mapstructure:"json"`
}

var defaults = map[string]any{
	"port":            "8080",
	"database_url":    "",
	"jwt_secret":      "dev-secret-change",
	"jwt_issuer":      "jobmatch",
	"jwt_ttl_minutes": 60,
	"storage_driver":  DriverPostgres,
	"sqlite_path":     "data/jobmatch.db",
	"fixtures_path":   "",
	"redis_addr":      "",
	"redis_password":  "",
	"redis_db":        0,
	"feed":            FeedAuto,
	"cache_ttl":       time.Hour,
	"match_limit":     100,
	"jobs_page_size":  500,
	"notify_rate":     2.0,
	"debug":           false,
	"json":            false,
}

// Load reads environment variables, optionally from a .env file if present, then the
// config file when one is given. Environment wins over the file. v may carry bound
// command-line flags; nil means a fresh instance.
func Load(v *viper.Viper, configFile string) (Config, error) {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	if v == nil {
		v = viper.New()
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.Feed = strings.ToLower(strings.TrimSpace(cfg.Feed))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	switch c.Feed {
	case FeedAuto, FeedMemory:
	case FeedPostgres:
		if c.StorageDriver != DriverPostgres {
			errs = append(errs, errors.New("FEED=postgres needs STORAGE_DRIVER=postgres"))
		}
	case FeedRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("FEED=redis needs REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown FEED %q", c.Feed))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be empty"))
	}
	if c.MatchLimit <= 0 || c.JobsPageSize <= 0 {
		errs = append(errs, errors.New("MATCH_LIMIT and JOBS_PAGE_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// ResolvedFeed turns "auto" into a concrete feed: the database feed for Postgres, Redis
// when it is configured, the in-process hub otherwise.
func (c Config) ResolvedFeed() string {
	if c.Feed != FeedAuto {
		return c.Feed
	}
	switch {
	case c.StorageDriver == DriverPostgres:
		return FeedPostgres
	case c.RedisAddr != "":
		return FeedRedis
	default:
		return FeedMemory
	}
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}
