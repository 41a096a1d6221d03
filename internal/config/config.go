package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de loginjohn.
// Se carga desde YAML y se puede pisar con variables de entorno (ver applyEnv).
type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	// IdP: API del identity provider (colaborador externo).
	IdP struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`

		// Credencial privilegiada (service user) para el fallback path.
		// ServiceKey puede venir cifrada con secretbox (prefijo GCMV1:).
		ServiceUserID string `yaml:"service_user_id"`
		ServiceKeyID  string `yaml:"service_key_id"`
		ServiceKey    string `yaml:"service_key"`
	} `yaml:"idp"`

	// StepUp: política de step-up para mutaciones sensibles.
	StepUp struct {
		// PasswordCheckLifetime es la ventana de frescura por defecto.
		// El loginSettings.passwordCheckLifetime del org la pisa si viene > 0.
		// Es configurable a propósito: controla un tradeoff seguridad/usabilidad.
		PasswordCheckLifetime string `yaml:"password_check_lifetime"`
	} `yaml:"stepup"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		Domain     string `yaml:"domain"`
		SameSite   string `yaml:"samesite"`
		Secure     bool   `yaml:"secure"`
		TTL        string `yaml:"ttl"`
	} `yaml:"session"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Audit struct {
		Driver string `yaml:"driver"` // log | postgres
		DSN    string `yaml:"dsn"`
	} `yaml:"audit"`

	Rate struct {
		Enabled  bool `yaml:"enabled"`
		Password struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"password"`
	} `yaml:"rate"`

	SMTP struct {
		Enabled            bool   `yaml:"enabled"`
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"` // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	} `yaml:"smtp"`
}

// Load lee el YAML, aplica overrides de entorno y defaults.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config read: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config parse: %w", err)
		}
	}
	c.applyEnv()
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	setStr(&c.App.Env, "APP_ENV")
	setStr(&c.Server.Addr, "SERVER_ADDR")
	setStr(&c.Log.Level, "LOG_LEVEL")
	setStr(&c.IdP.BaseURL, "IDP_BASE_URL")
	setStr(&c.IdP.ServiceUserID, "IDP_SERVICE_USER_ID")
	setStr(&c.IdP.ServiceKeyID, "IDP_SERVICE_KEY_ID")
	setStr(&c.IdP.ServiceKey, "IDP_SERVICE_KEY")
	setStr(&c.StepUp.PasswordCheckLifetime, "STEPUP_PASSWORD_CHECK_LIFETIME")
	setStr(&c.Session.CookieName, "SESSION_COOKIE_NAME")
	setStr(&c.Cache.Kind, "CACHE_KIND")
	setStr(&c.Cache.Redis.Addr, "CACHE_REDIS_ADDR")
	setStr(&c.Cache.Redis.Password, "CACHE_REDIS_PASSWORD")
	setInt(&c.Cache.Redis.DB, "CACHE_REDIS_DB")
	setStr(&c.Audit.Driver, "AUDIT_DRIVER")
	setStr(&c.Audit.DSN, "AUDIT_DSN")
	setStr(&c.SMTP.Host, "SMTP_HOST")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setStr(&c.SMTP.Username, "SMTP_USERNAME")
	setStr(&c.SMTP.Password, "SMTP_PASSWORD")
	setStr(&c.SMTP.From, "SMTP_FROM")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.StepUp.PasswordCheckLifetime == "" {
		c.StepUp.PasswordCheckLifetime = "5m"
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "lj_sessions"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "720h"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Audit.Driver == "" {
		c.Audit.Driver = "log"
	}
	if c.IdP.Timeout == "" {
		c.IdP.Timeout = "10s"
	}
	if c.Rate.Password.Limit == 0 {
		c.Rate.Password.Limit = 10
	}
	if c.Rate.Password.Window == "" {
		c.Rate.Password.Window = "1m"
	}
}

func (c *Config) validate() error {
	if c.IdP.BaseURL == "" {
		return fmt.Errorf("config: idp.base_url es requerido")
	}
	if _, err := time.ParseDuration(c.StepUp.PasswordCheckLifetime); err != nil {
		return fmt.Errorf("config: stepup.password_check_lifetime inválido: %w", err)
	}
	return nil
}

// PasswordCheckLifetime retorna la ventana de frescura por defecto ya parseada.
func (c *Config) PasswordCheckLifetime() time.Duration {
	return ParseDurationOr(c.StepUp.PasswordCheckLifetime, 5*time.Minute)
}

// SessionTTL retorna el TTL de la cookie de sesión ya parseado.
func (c *Config) SessionTTL() time.Duration {
	return ParseDurationOr(c.Session.TTL, 30*24*time.Hour)
}

// IdPTimeout retorna el timeout del cliente HTTP hacia el IdP.
func (c *Config) IdPTimeout() time.Duration {
	return ParseDurationOr(c.IdP.Timeout, 10*time.Second)
}

// ParseDurationOr parsea una duración con fallback.
func ParseDurationOr(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
