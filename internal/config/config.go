package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// InsecureJWTSecret is the built-in secret. It is only accepted in development.
const InsecureJWTSecret = "supersecretkey"

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	BcryptCost    int           `yaml:"bcrypt_cost"`
	Uploads       UploadsConfig `yaml:"uploads"`
}

type UploadsConfig struct {
	Dir       string `yaml:"dir"`
	URLPrefix string `yaml:"url_prefix"`
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	apiTimeout := 15 * time.Second
	tokenDuration := 24 * time.Hour

	cfg := &Config{
		Addr:          getEnv("JOBTRACK_ADDR", ":8080"),
		JWTSecret:     getEnv("JOBTRACK_JWT_SECRET", InsecureJWTSecret),
		APITimeout:    apiTimeout,
		DatabasePath:  getEnv("JOBTRACK_DATABASE_PATH", "jobtrack.db"),
		TokenDuration: tokenDuration,
		BcryptCost:    bcrypt.DefaultCost,
		Uploads: UploadsConfig{
			Dir:       getEnv("JOBTRACK_UPLOAD_DIR", "uploads"),
			URLPrefix: "/uploads",
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// IsDevelopment reports whether JOBTRACK_ENV is "development".
func IsDevelopment() bool {
	return os.Getenv("JOBTRACK_ENV") == "development"
}

// Validate fills zero values with defaults and rejects settings the server
// cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt_secret must be set")
	}
	if c.JWTSecret == InsecureJWTSecret && !IsDevelopment() {
		return errors.New("insecure jwt_secret: set JOBTRACK_JWT_SECRET or JOBTRACK_ENV=development")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path must be set")
	}
	if c.Uploads.Dir == "" {
		return errors.New("uploads.dir must be set")
	}

	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}
	if c.TokenDuration <= 0 {
		c.TokenDuration = 24 * time.Hour
	}
	if c.Uploads.URLPrefix == "" {
		c.Uploads.URLPrefix = "/uploads"
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
