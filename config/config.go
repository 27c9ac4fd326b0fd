// Package config loads the server settings. Values are applied in order:
// defaults, an optional YAML file, environment variables, then flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr            string        `yaml:"addr"`
	MongoURI        string        `yaml:"mongo_uri"`
	Database        string        `yaml:"database"`
	Collection      string        `yaml:"collection"`
	JWTSecret       string        `yaml:"jwt_secret"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	FrontendOrigin  string        `yaml:"frontend_origin"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	RepoTimeout     time.Duration `yaml:"repo_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
}

// LoadDefaults populates c with development defaults. The JWT secret is
// left empty on purpose so a deployment must set one.
func (c *Config) LoadDefaults() {
	c.Addr = ":3001"
	c.MongoURI = "mongodb://127.0.0.1:27017"
	c.Database = "marketing"
	c.Collection = "users"
	c.SessionTTL = 15 * time.Minute
	c.FrontendOrigin = "http://localhost:3000"
	c.BcryptCost = 12
	c.RepoTimeout = 5 * time.Second
	c.ShutdownTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Load builds a Config from args (without the program name) and the
// process environment.
func Load(args []string) (*Config, error) {
	return load(args, os.LookupEnv)
}

func load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	fs := flag.NewFlagSet("agencyauth", flag.ContinueOnError)
	path := fs.String("config", "", "path to a YAML config file")
	addr := fs.String("addr", "", "address to listen on")
	mongoURI := fs.String("mongo-uri", "", "MongoDB connection string")
	secret := fs.String("jwt-secret", "", "HMAC secret for session tokens")
	origin := fs.String("frontend-origin", "", "origin allowed by CORS")
	level := fs.String("log-level", "", "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *path != "" {
		if err := cfg.loadFile(*path); err != nil {
			return nil, err
		}
	}

	cfg.loadEnv(lookup)

	overrideIfSet(&cfg.Addr, *addr)
	overrideIfSet(&cfg.MongoURI, *mongoURI)
	overrideIfSet(&cfg.JWTSecret, *secret)
	overrideIfSet(&cfg.FrontendOrigin, *origin)
	overrideIfSet(&cfg.LogLevel, *level)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("PORT"); ok && v != "" {
		c.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := lookup("MONGO_URI"); ok {
		overrideIfSet(&c.MongoURI, v)
	}
	if v, ok := lookup("JWT_SECRET"); ok {
		overrideIfSet(&c.JWTSecret, v)
	}
	if v, ok := lookup("FRONTEND_ORIGIN"); ok {
		overrideIfSet(&c.FrontendOrigin, v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		overrideIfSet(&c.LogLevel, v)
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret must be set"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	return errors.Join(errs...)
}

func overrideIfSet(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
