package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var validate = validator.New()

// writeTimeoutMargin is the time left after a timed-out relay call to write
// the error response before the server's write deadline closes the connection.
const writeTimeoutMargin = 5 * time.Second

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Relay  RelayConfig  `mapstructure:"relay"`
	DB     DBConfig     `mapstructure:"database"`
	Admin  AdminConfig  `mapstructure:"admin"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// RelayConfig describes the downstream form endpoint. EndpointURL may be empty;
// the relay then rejects every submission with a configuration error.
type RelayConfig struct {
	EndpointURL  string        `mapstructure:"endpoint_url" validate:"omitempty,http_url"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=1s,lte=60s"`
	AddTimestamp bool          `mapstructure:"add_timestamp"`
}

type DBConfig struct {
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// Enabled reports whether the relay attempt ledger is backed by Postgres.
func (c DBConfig) Enabled() bool {
	return c.URL != ""
}

type AdminConfig struct {
	Email          string        `mapstructure:"email" validate:"required_with=JWTSecret"`
	PasswordHash   string        `mapstructure:"password_hash" validate:"required_with=JWTSecret"`
	JWTSecret      string        `mapstructure:"jwt_secret" validate:"omitempty,min=16"`
	TokenTTL       time.Duration `mapstructure:"token_ttl" validate:"gte=1m"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" validate:"dive,required"`
}

// Enabled reports whether the admin API has enough configuration to issue tokens.
func (c AdminConfig) Enabled() bool {
	return c.JWTSecret != ""
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// envBindings maps config keys to the environment variables that set them.
// When a key lists several variables the first one that is set wins.
var envBindings = map[string][]string{
	"server.port":             {"SERVER_PORT", "PORT"},
	"server.read_timeout":     {"SERVER_READ_TIMEOUT"},
	"server.write_timeout":    {"SERVER_WRITE_TIMEOUT"},
	"server.idle_timeout":     {"SERVER_IDLE_TIMEOUT"},
	"server.shutdown_timeout": {"SERVER_SHUTDOWN_TIMEOUT"},
	"relay.endpoint_url":      {"FORM_ENDPOINT_URL", "VITE_GOOGLE_SCRIPT_URL"},
	"relay.timeout":           {"RELAY_TIMEOUT"},
	"relay.add_timestamp":     {"RELAY_ADD_TIMESTAMP"},
	"database.url":            {"DATABASE_URL"},
	"database.auto_migrate":   {"DATABASE_AUTO_MIGRATE"},
	"admin.email":             {"ADMIN_EMAIL"},
	"admin.password_hash":     {"ADMIN_PASSWORD_HASH"},
	"admin.jwt_secret":        {"ADMIN_JWT_SECRET"},
	"admin.token_ttl":         {"ADMIN_TOKEN_TTL"},
	"admin.allowed_origins":   {"ADMIN_ALLOWED_ORIGINS"},
	"log.level":               {"LOG_LEVEL"},
	"log.format":              {"LOG_FORMAT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3001")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("relay.endpoint_url", "")
	v.SetDefault("relay.timeout", 15*time.Second)
	v.SetDefault("relay.add_timestamp", false)

	v.SetDefault("database.url", "")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.token_ttl", time.Hour)
	v.SetDefault("admin.allowed_origins", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig reads defaults, an optional YAML file and the environment, in
// increasing order of precedence. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Relay.EndpointURL = strings.TrimSpace(cfg.Relay.EndpointURL)
	cfg.Admin.AllowedOrigins = splitList(cfg.Admin.AllowedOrigins)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %s", describe(err))
	}
	if err := checkTimeouts(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// checkTimeouts rejects a write deadline that could expire while the relay is
// still waiting on the downstream endpoint.
func checkTimeouts(cfg *Config) error {
	if floor := cfg.Relay.Timeout + writeTimeoutMargin; cfg.Server.WriteTimeout < floor {
		return fmt.Errorf("server.write_timeout (%s) must be at least relay.timeout plus %s (%s)",
			cfg.Server.WriteTimeout, writeTimeoutMargin, floor)
	}
	return nil
}

// splitList flattens comma separated entries, which is how list values
// arrive from the environment.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		// Never echo the value: several of these fields are secrets.
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
	}
	return strings.Join(msgs, ", ")
}
