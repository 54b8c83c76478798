package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "BLOG"
	defaultEnv = "development"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Env    string
	Server struct {
		Addr         string
		Origin       string
		Credentials  bool
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret        string
		AccessTTLMinutes int
	}
	Log struct {
		Level  string
		Format string
		Dir    string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// AccessTTL is the lifetime of issued access tokens.
func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.Auth.AccessTTLMinutes) * time.Minute
}

// IsDevelopment reports whether the server runs in the development environment.
func (c Config) IsDevelopment() bool {
	return c.Env == defaultEnv
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth jwt secret is required")
	}
	if c.Auth.AccessTTLMinutes <= 0 {
		return fmt.Errorf("auth access ttl must be positive, got %d minutes", c.Auth.AccessTTLMinutes)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Load reads configuration from environment variables and optional config files.
// env selects the environment file .env.<env>.local; when empty BLOG_ENV is used,
// falling back to "development".
func Load(env string) (Config, error) {
	if env == "" {
		env = os.Getenv(envPrefix + "_ENV")
	}
	if env == "" {
		env = defaultEnv
	}
	loadDotEnv(env)

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", env)
	v.SetDefault("server.addr", "0.0.0.0:3000")
	v.SetDefault("server.origin", "*")
	v.SetDefault("server.credentials", true)
	v.SetDefault("server.readtimeout", 15*time.Second)
	v.SetDefault("server.writetimeout", 30*time.Second)
	v.SetDefault("database.path", "data/blog.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.accessttlminutes", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.dir", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "blog-attachments")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Env = env

	return cfg, nil
}

// loadDotEnv loads .env.<env>.local and then .env. Variables already present in
// the environment are never overridden, so the more specific file wins.
func loadDotEnv(env string) {
	for _, name := range []string{fmt.Sprintf(".env.%s.local", env), ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		_ = godotenv.Load(name)
	}
}
