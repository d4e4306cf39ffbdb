package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"aptbot/internal/utils"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	AppName   = "aptbot"
	EnvPrefix = "APTBOT"
)

// Version is overridden at build time with -ldflags "-X aptbot/internal/config.Version=...".
var Version = "1.0.0"

type Config struct {
	Server      ServerConfig    `mapstructure:"server"`
	DB          DBConfig        `mapstructure:"db"`
	Gemini      GeminiConfig    `mapstructure:"gemini"`
	Keycloak    KeycloakConfig  `mapstructure:"keycloak"`
	Auth        AuthConfig      `mapstructure:"auth"`
	Chat        ChatConfig      `mapstructure:"chat"`
	Session     SessionConfig   `mapstructure:"session"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Log         LogConfig       `mapstructure:"log"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
	StateDir    string          `mapstructure:"state_dir"`
	PromptsFile string          `mapstructure:"prompts_file"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	TLSCert      string        `mapstructure:"tls_cert"`
	TLSKey       string        `mapstructure:"tls_key"`
}

type DBConfig struct {
	Server                 string        `mapstructure:"server"`
	Port                   int           `mapstructure:"port"`
	Name                   string        `mapstructure:"name"`
	User                   string        `mapstructure:"user"`
	Password               string        `mapstructure:"password"`
	TrustServerCertificate bool          `mapstructure:"trust_server_certificate"`
	Encrypt                string        `mapstructure:"encrypt"`
	ConnTimeout            time.Duration `mapstructure:"conn_timeout"`
	MaxOpenConns           int           `mapstructure:"max_open_conns"`
	MaxIdleConns           int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime        time.Duration `mapstructure:"conn_max_lifetime"`
}

type GeminiConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type KeycloakConfig struct {
	URL       string `mapstructure:"url"`
	Realm     string `mapstructure:"realm"`
	PublicKey string `mapstructure:"public_key"`
	JWKSURL   string `mapstructure:"jwks_url"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

type AuthConfig struct {
	Required        bool `mapstructure:"required"`
	AllowUnverified bool `mapstructure:"allow_unverified"`
}

type ChatConfig struct {
	MaxToolRounds    int `mapstructure:"max_tool_rounds"`
	MaxHistory       int `mapstructure:"max_history"`
	MaxMessageLength int `mapstructure:"max_message_length"`
}

type SessionConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Persist       bool          `mapstructure:"persist"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	AuditPath string `mapstructure:"audit_path"`
}

type TracingConfig struct {
	ServiceName string `mapstructure:"service_name"`
}

// legacyEnv are the unprefixed variable names the deployment already sets.
var legacyEnv = map[string]string{
	"db.server":           "DB_SERVER",
	"db.name":             "DB_NAME",
	"db.user":             "DB_USER",
	"db.password":         "DB_PASSWORD",
	"gemini.api_key":      "GEMINI_API_KEY",
	"keycloak.url":        "KEYCLOAK_URL",
	"keycloak.realm":      "KEYCLOAK_REALM",
	"keycloak.public_key": "KEYCLOAK_PUBLIC_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.tls_cert", "")
	v.SetDefault("server.tls_key", "")

	v.SetDefault("db.server", "")
	v.SetDefault("db.port", 1433)
	v.SetDefault("db.name", "")
	v.SetDefault("db.user", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.trust_server_certificate", true)
	v.SetDefault("db.encrypt", "true")
	v.SetDefault("db.conn_timeout", 30*time.Second)
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.timeout", 60*time.Second)

	v.SetDefault("keycloak.url", "")
	v.SetDefault("keycloak.realm", "")
	v.SetDefault("keycloak.public_key", "")
	v.SetDefault("keycloak.jwks_url", "")
	v.SetDefault("keycloak.issuer", "")
	v.SetDefault("keycloak.audience", "")

	v.SetDefault("auth.required", false)
	v.SetDefault("auth.allow_unverified", true)

	v.SetDefault("chat.max_tool_rounds", 8)
	v.SetDefault("chat.max_history", 40)
	v.SetDefault("chat.max_message_length", 4000)

	v.SetDefault("session.idle_ttl", 2*time.Hour)
	v.SetDefault("session.sweep_interval", 5*time.Minute)
	v.SetDefault("session.persist", true)

	v.SetDefault("rate_limit.rps", 2.0)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.audit_path", "")

	v.SetDefault("tracing.service_name", AppName)
	v.SetDefault("state_dir", utils.DefaultStateDir)
	v.SetDefault("prompts_file", "")
}

// Load reads defaults, then ./.env (if present), then the optional config
// file at path, then environment variables.
func Load(path string) (*Config, error) {
	if err := loadDotenv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		if strings.HasSuffix(path, ".env") {
			if err := loadDotenv(path); err != nil {
				return nil, err
			}
		} else {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotenv exports KEY=VALUE pairs from a dotenv file without overriding
// variables that are already set. A missing file is not an error.
func loadDotenv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	dv := viper.New()
	dv.SetConfigFile(path)
	dv.SetConfigType("env")
	if err := dv.ReadInConfig(); err != nil {
		return fmt.Errorf("read dotenv %s: %w", path, err)
	}
	for _, key := range dv.AllKeys() {
		name := strings.ToUpper(key)
		if _, ok := os.LookupEnv(name); ok {
			continue
		}
		if err := os.Setenv(name, dv.GetString(key)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyDerived() {
	if c.Keycloak.PublicKey == "" && c.Keycloak.JWKSURL == "" && c.Keycloak.URL != "" && c.Keycloak.Realm != "" {
		c.Keycloak.JWKSURL = strings.TrimRight(c.Keycloak.URL, "/") + "/realms/" + c.Keycloak.Realm + "/protocol/openid-connect/certs"
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Chat.MaxToolRounds <= 0 {
		errs = append(errs, fmt.Errorf("chat.max_tool_rounds must be positive"))
	}
	if c.Chat.MaxHistory <= 0 {
		errs = append(errs, fmt.Errorf("chat.max_history must be positive"))
	}
	if c.Chat.MaxMessageLength <= 0 {
		errs = append(errs, fmt.Errorf("chat.max_message_length must be positive"))
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, fmt.Errorf("rate_limit values must not be negative"))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil || c.Log.Level == "" {
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		errs = append(errs, fmt.Errorf("server.tls_cert and server.tls_key must be set together"))
	}
	return errors.Join(errs...)
}

// DBConfigured reports whether enough is set to dial SQL Server.
func (c *Config) DBConfigured() bool {
	return c.DB.Server != "" && c.DB.Name != ""
}
