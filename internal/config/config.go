package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Env is the deployment mode of the server.
type Env string

const (
	EnvDevelopment Env = "development"
	EnvStaging     Env = "staging"
	EnvRelease     Env = "release"
	EnvProduction  Env = "production"
)

// IsProduction reports whether the mode is release or production.
func (e Env) IsProduction() bool {
	return e == EnvRelease || e == EnvProduction
}

// App holds HTTP listener and CORS settings.
type App struct {
	Env         Env    `default:"development" validate:"oneof=development staging release production"`
	Port        int    `default:"3001" validate:"min=1,max=65535"`
	CORSOrigin  string `split_words:"true" default:"http://localhost:3000"`
	CORSMethods string `split_words:"true" default:"GET,POST"`
}

// Methods returns the configured CORS methods, upper-cased and trimmed.
func (a App) Methods() []string {
	parts := strings.Split(a.CORSMethods, ",")
	methods := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			methods = append(methods, p)
		}
	}
	return methods
}

// JWT holds token signing and verification settings.
type JWT struct {
	Secret         string        `default:"unsecure secret" validate:"required"`
	Issuer         string        `default:"chat-app-api"`
	Audience       string        `default:"chat-app-api"`
	Expires        time.Duration `default:"1h" validate:"gt=0"`
	VerifyCacheTTL time.Duration `split_words:"true" default:"5m"`
}

// Database holds the sqlite settings for account storage.
type Database struct {
	Path string `default:"chat-app.db"`
	// AutoMigrate is nil unless set explicitly; see Config.ShouldMigrate.
	AutoMigrate *bool `split_words:"true"`
}

// Gateway holds per-connection transport settings.
type Gateway struct {
	HandshakeTimeout time.Duration `split_words:"true" default:"10s" validate:"gt=0"`
	WriteTimeout     time.Duration `split_words:"true" default:"5s" validate:"gt=0"`
	PongWait         time.Duration `split_words:"true" default:"60s" validate:"gt=0"`
	PingInterval     time.Duration `split_words:"true" default:"30s" validate:"gt=0,ltfield=PongWait"`
	SendBuffer       int           `split_words:"true" default:"16" validate:"gt=0"`
	MaxMessageBytes  int64         `split_words:"true" default:"4096" validate:"gt=0"`
	SelfPresence     bool          `split_words:"true" default:"false"`
}

// Config is the full server configuration. Variables are read without a
// prefix, e.g. APP_PORT, JWT_SECRET, DATABASE_PATH, GATEWAY_PONG_WAIT.
type Config struct {
	App      App
	JWT      JWT
	Database Database
	Gateway  Gateway
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		App: App{
			Env:         EnvDevelopment,
			Port:        3001,
			CORSOrigin:  "http://localhost:3000",
			CORSMethods: "GET,POST",
		},
		JWT: JWT{
			Secret:         "unsecure secret",
			Issuer:         "chat-app-api",
			Audience:       "chat-app-api",
			Expires:        time.Hour,
			VerifyCacheTTL: 5 * time.Minute,
		},
		Database: Database{
			Path: "chat-app.db",
		},
		Gateway: Gateway{
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     5 * time.Second,
			PongWait:         60 * time.Second,
			PingInterval:     30 * time.Second,
			SendBuffer:       16,
			MaxMessageBytes:  4096,
		},
	}
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ShouldMigrate reports whether the schema should be auto-migrated on start.
// Unless set explicitly, migrations run everywhere except release/production.
func (c Config) ShouldMigrate() bool {
	if c.Database.AutoMigrate != nil {
		return *c.Database.AutoMigrate
	}
	return !c.App.Env.IsProduction()
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

var validate = validator.New()

// Validate checks values that envconfig cannot.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
