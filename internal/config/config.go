package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	OIDC struct {
		Issuer       string
		ClientID     string
		ClientSecret string
		RedirectURL  string
	}
	AdminEmail      string
	SessionLifetime time.Duration
	InsecureCookies bool
	PollInterval    time.Duration
	Log             struct {
		Level  string
		Pretty bool
	}
}

// ClientConfig holds the settings the CLI client commands need to talk to a
// running marksync server.
type ClientConfig struct {
	ServerURL    string
	APIToken     string
	PollInterval time.Duration
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("MARK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("marksync")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file
	return v
}

// Load reads server config from environment (MARK_ prefix) and optional marksync.yaml.
func Load() (*Config, error) {
	v := newViper()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("session.lifetime", "720h")
	v.SetDefault("sync.poll_interval", "3s")
	v.SetDefault("log.level", "info")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.OIDC.Issuer = v.GetString("oidc.issuer")
	cfg.OIDC.ClientID = v.GetString("oidc.client_id")
	cfg.OIDC.ClientSecret = v.GetString("oidc.client_secret")
	cfg.OIDC.RedirectURL = v.GetString("oidc.redirect_url")
	cfg.AdminEmail = v.GetString("admin_email")
	cfg.InsecureCookies = v.GetBool("insecure_cookies")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Pretty = v.GetBool("log.pretty")

	lifetime, err := time.ParseDuration(v.GetString("session.lifetime"))
	if err != nil {
		return nil, fmt.Errorf("invalid MARK_SESSION_LIFETIME: %w", err)
	}
	cfg.SessionLifetime = lifetime

	poll, err := time.ParseDuration(v.GetString("sync.poll_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid MARK_SYNC_POLL_INTERVAL: %w", err)
	}
	if poll <= 0 {
		return nil, fmt.Errorf("MARK_SYNC_POLL_INTERVAL must be positive")
	}
	cfg.PollInterval = poll

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("MARK_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("MARK_DB_DSN is required")
	}
	if cfg.OIDC.Issuer == "" {
		return nil, fmt.Errorf("MARK_OIDC_ISSUER is required")
	}
	if cfg.OIDC.ClientID == "" {
		return nil, fmt.Errorf("MARK_OIDC_CLIENT_ID is required")
	}
	if cfg.OIDC.ClientSecret == "" {
		return nil, fmt.Errorf("MARK_OIDC_CLIENT_SECRET is required")
	}
	if cfg.OIDC.RedirectURL == "" {
		return nil, fmt.Errorf("MARK_OIDC_REDIRECT_URL is required")
	}

	return cfg, nil
}

// LoadClient reads the lighter client-side config used by the add, rm, list,
// and watch commands. It shares the MARK_ prefix and yaml file with Load but
// requires only the server URL and an API token.
func LoadClient() (*ClientConfig, error) {
	v := newViper()

	v.SetDefault("sync.poll_interval", "3s")

	cfg := &ClientConfig{}
	cfg.ServerURL = v.GetString("server.url")
	cfg.APIToken = v.GetString("api.token")

	poll, err := time.ParseDuration(v.GetString("sync.poll_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid MARK_SYNC_POLL_INTERVAL: %w", err)
	}
	if poll <= 0 {
		return nil, fmt.Errorf("MARK_SYNC_POLL_INTERVAL must be positive")
	}
	cfg.PollInterval = poll

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("MARK_SERVER_URL is required")
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("MARK_API_TOKEN is required")
	}

	return cfg, nil
}
