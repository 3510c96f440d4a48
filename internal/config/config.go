package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/Starbem/star-db-query-builder/query/dialect"
)

// AppFs is the filesystem config and env files are read from.
var AppFs = afero.NewOsFs()

const (
	fileName  = ".stardb"
	envPrefix = "STARDB"
)

// Config holds the connection and client configuration
type Config struct {
	Dialect     string
	Driver      string
	URL         string
	Debug       bool
	Retry       Retry
	Pool        Pool
	Events      Events
	Connections map[string]Connection
}

// Retry mirrors the execution client retry settings.
type Retry struct {
	Count    int
	Factor   float64
	MinDelay time.Duration
	MaxDelay time.Duration
	Jitter   bool
}

// Pool holds settings passed through to database/sql.
type Pool struct {
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

// Events configures the event sink.
type Events struct {
	Sink          string
	SlowThreshold time.Duration
	Buffer        int
}

// Connection is a named connection in the registry.
type Connection struct {
	Dialect string
	Driver  string
	URL     string
}

type loadOptions struct {
	file   string
	dotenv bool
}

// Option configures Load.
type Option func(*loadOptions)

// WithFile reads configuration from path instead of searching for
// .stardb.yaml.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithoutDotenv skips loading .env and .env.local.
func WithoutDotenv() Option {
	return func(o *loadOptions) {
		o.dotenv = false
	}
}

// Load loads configuration from the config file, environment variables
// prefixed with STARDB_, and .env files, in increasing priority order for
// the environment.
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{dotenv: true}
	for _, opt := range opts {
		opt(&o)
	}

	if o.dotenv {
		// .env never overrides the process environment; .env.local does.
		if err := loadDotenv(".env", false); err != nil {
			return nil, err
		}
		if err := loadDotenv(".env.local", true); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigType("yaml")
	if o.file != "" {
		v.SetConfigFile(o.file)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(fileName)
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "stardb"))
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Dialect: v.GetString("dialect"),
		Driver:  v.GetString("driver"),
		URL:     v.GetString("url"),
		Debug:   v.GetBool("debug"),
		Retry: Retry{
			Count:    v.GetInt("retry.count"),
			Factor:   v.GetFloat64("retry.factor"),
			MinDelay: v.GetDuration("retry.min_delay"),
			MaxDelay: v.GetDuration("retry.max_delay"),
			Jitter:   v.GetBool("retry.jitter"),
		},
		Pool: Pool{
			MaxOpen:         v.GetInt("pool.max_open"),
			MaxIdle:         v.GetInt("pool.max_idle"),
			ConnMaxLifetime: v.GetDuration("pool.conn_max_lifetime"),
		},
		Events: Events{
			Sink:          v.GetString("events.sink"),
			SlowThreshold: v.GetDuration("events.slow_threshold"),
			Buffer:        v.GetInt("events.buffer"),
		},
		Connections: map[string]Connection{},
	}
	if cfg.URL == "" {
		cfg.URL = os.Getenv("DATABASE_URL")
	}
	for name := range v.GetStringMap("connections") {
		key := "connections." + name
		cfg.Connections[name] = Connection{
			Dialect: v.GetString(key + ".dialect"),
			Driver:  v.GetString(key + ".driver"),
			URL:     v.GetString(key + ".url"),
		}
	}
	return cfg, nil
}

// Default returns the configuration used for every key left unset.
func Default() *Config {
	return &Config{
		Retry: Retry{
			Count:    3,
			Factor:   2,
			MinDelay: 100 * time.Millisecond,
			MaxDelay: 5 * time.Second,
			Jitter:   true,
		},
		Events:      Events{Sink: "slog", Buffer: 256},
		Connections: map[string]Connection{},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("dialect", d.Dialect)
	v.SetDefault("driver", d.Driver)
	v.SetDefault("url", d.URL)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("retry.count", d.Retry.Count)
	v.SetDefault("retry.factor", d.Retry.Factor)
	v.SetDefault("retry.min_delay", d.Retry.MinDelay)
	v.SetDefault("retry.max_delay", d.Retry.MaxDelay)
	v.SetDefault("retry.jitter", d.Retry.Jitter)
	v.SetDefault("pool.max_open", d.Pool.MaxOpen)
	v.SetDefault("pool.max_idle", d.Pool.MaxIdle)
	v.SetDefault("pool.conn_max_lifetime", d.Pool.ConnMaxLifetime)
	v.SetDefault("events.sink", d.Events.Sink)
	v.SetDefault("events.slow_threshold", d.Events.SlowThreshold)
	v.SetDefault("events.buffer", d.Events.Buffer)
}

func loadDotenv(name string, override bool) error {
	data, err := afero.ReadFile(AppFs, name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	for k, val := range vars {
		if _, set := os.LookupEnv(k); set && !override {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the named connections in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate rejects unknown dialects and negative numeric settings.
func (c *Config) Validate() error {
	var errs []error
	if c.URL != "" {
		if _, err := ResolveDialect(c.Dialect, c.URL); err != nil {
			errs = append(errs, err)
		}
	} else if c.Dialect != "" {
		if _, err := dialect.Lookup(c.Dialect); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Retry.Count < 0 {
		errs = append(errs, errors.New("retry.count must not be negative"))
	}
	if c.Retry.Factor < 0 {
		errs = append(errs, errors.New("retry.factor must not be negative"))
	}
	if c.Retry.MinDelay < 0 || c.Retry.MaxDelay < 0 {
		errs = append(errs, errors.New("retry delays must not be negative"))
	}
	if c.Pool.MaxOpen < 0 || c.Pool.MaxIdle < 0 || c.Pool.ConnMaxLifetime < 0 {
		errs = append(errs, errors.New("pool settings must not be negative"))
	}
	if c.Events.Buffer < 0 {
		errs = append(errs, errors.New("events.buffer must not be negative"))
	}
	for _, name := range c.Names() {
		conn := c.Connections[name]
		if conn.URL == "" {
			errs = append(errs, fmt.Errorf("connections.%s.url is required", name))
			continue
		}
		if _, err := ResolveDialect(conn.Dialect, conn.URL); err != nil {
			errs = append(errs, fmt.Errorf("connections.%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// ResolveDialect returns the dialect named by name, or the one implied by
// the url when name is empty.
func ResolveDialect(name, url string) (dialect.Dialect, error) {
	if name == "" {
		name = inferDialect(url)
	}
	if name == "" {
		return nil, errors.New("cannot infer dialect from url; set dialect")
	}
	return dialect.Lookup(name)
}

func inferDialect(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return dialect.NamePostgres
	case strings.Contains(lower, "@tcp("), strings.Contains(lower, "@unix("):
		return dialect.NameMySQL
	case strings.HasPrefix(lower, "file:"), strings.Contains(lower, ":memory:"),
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return dialect.NameSQLite
	}
	return ""
}
