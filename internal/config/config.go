// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server       ServerConfig    `mapstructure:"server"`
	Database     DatabaseConfig  `mapstructure:"database"`
	PostDatabase DatabaseConfig  `mapstructure:"post_database"`
	Health       HealthConfig    `mapstructure:"health"`
	Build        BuildConfig     `mapstructure:"build"`
	PubSub       PubSubConfig    `mapstructure:"pubsub"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	Session      SessionConfig   `mapstructure:"session"`
	Logging      LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP listener behavior for both services.
type ServerConfig struct {
	CommentPort     int           `mapstructure:"comment_port"`
	PostPort        int           `mapstructure:"post_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig describes one PostgreSQL database.
type DatabaseConfig struct {
	Backend  string `mapstructure:"backend"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`

	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// HealthConfig tunes the background health prober.
type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// BuildConfig points at the build artifacts read once at startup.
type BuildConfig struct {
	VersionFile string `mapstructure:"version_file"`
	InfoFile    string `mapstructure:"info_file"`
}

// PubSubConfig holds metadata for comment notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// RateLimitConfig controls per-client write throttling.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`

	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

// SessionConfig configures the session cookie of the post service.
type SessionConfig struct {
	CookieName string `mapstructure:"cookie_name"`
	Secure     bool   `mapstructure:"secure"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// legacyEnv maps config keys to the environment names the deployment
// manifests already use.
var legacyEnv = map[string][]string{
	"database.host":      {"COMMENT_DATABASE_HOST"},
	"database.port":      {"COMMENT_DATABASE_PORT"},
	"database.name":      {"COMMENT_DATABASE"},
	"post_database.host": {"POST_DATABASE_HOST"},
	"post_database.port": {"POST_DATABASE_PORT"},
	"post_database.name": {"POST_DATABASE"},
}

const envPrefix = "LINKBOARD"

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func bindLegacyEnv(v *viper.Viper) error {
	for key, names := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		args := append([]string{key, prefixed}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.comment_port", 9292)
	v.SetDefault("server.post_port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	setDatabaseDefaults(v, "database", "comments")
	setDatabaseDefaults(v, "post_database", "user_posts")
	v.SetDefault("health.interval", 5*time.Second)
	v.SetDefault("health.timeout", 2*time.Second)
	v.SetDefault("build.version_file", "VERSION")
	v.SetDefault("build.info_file", "build_info.txt")
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 5.0)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.idle_ttl", 10*time.Minute)
	v.SetDefault("session.cookie_name", "linkboard_session")
	v.SetDefault("session.secure", false)
	v.SetDefault("logging.development", true)
}

func setDatabaseDefaults(v *viper.Viper, prefix, name string) {
	v.SetDefault(prefix+".backend", BackendPostgres)
	v.SetDefault(prefix+".host", "127.0.0.1")
	v.SetDefault(prefix+".port", 5432)
	v.SetDefault(prefix+".name", name)
	v.SetDefault(prefix+".user", "postgres")
	v.SetDefault(prefix+".password", "")
	v.SetDefault(prefix+".sslmode", "disable")
	v.SetDefault(prefix+".max_conns", 0)
	v.SetDefault(prefix+".min_conns", 0)
	v.SetDefault(prefix+".max_conn_lifetime", time.Duration(0))
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.CommentPort <= 0 {
		return fmt.Errorf("server.comment_port must be > 0")
	}
	if c.Server.PostPort <= 0 {
		return fmt.Errorf("server.post_port must be > 0")
	}
	if err := c.Database.validate("database"); err != nil {
		return err
	}
	if err := c.PostDatabase.validate("post_database"); err != nil {
		return err
	}
	if c.Health.Interval <= 0 {
		return fmt.Errorf("health.interval must be > 0")
	}
	if c.Health.Timeout <= 0 {
		return fmt.Errorf("health.timeout must be > 0")
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		return fmt.Errorf("rate_limit.rps must be > 0 when rate limiting is enabled")
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set together")
	}
	return nil
}

func (d DatabaseConfig) validate(prefix string) error {
	switch d.Backend {
	case BackendPostgres:
	case BackendMemory:
		return nil
	default:
		return fmt.Errorf("%s.backend must be %q or %q", prefix, BackendPostgres, BackendMemory)
	}
	if d.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("%s.port must be within 1-65535", prefix)
	}
	if d.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if d.MinConns < 0 || (d.MaxConns > 0 && d.MinConns > d.MaxConns) {
		return fmt.Errorf("%s.min_conns must be between 0 and max_conns", prefix)
	}
	return nil
}

// DSN renders the database settings as a postgres:// connection URL.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", d.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}
