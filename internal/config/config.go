package config

import (
	"fmt"
	"strings"
	"time"
)

// Environment names the deployment the service runs in.
type Environment string

const (
	EnvLocal      Environment = "local"
	EnvTest       Environment = "test"
	EnvProduction Environment = "production"
)

// Offline reports whether outbound integrations (the mailing API) should be
// replaced by stubs.
func (e Environment) Offline() bool {
	return e == EnvLocal || e == EnvTest
}

// Config holds the service settings read from CLAIMFORM_* variables.
type Config struct {
	Env           Environment   `env:"CLAIMFORM_ENV" envDefault:"local"`
	Addr          string        `env:"CLAIMFORM_ADDR" envDefault:":3999"`
	DBPath        string        `env:"CLAIMFORM_DB_PATH" envDefault:"claimform.db"`
	TemplatesDir  string        `env:"CLAIMFORM_TEMPLATES_DIR"`
	ClaimForms    []string      `env:"CLAIMFORM_CLAIM_FORMS" envSeparator:"," envDefault:"VBA-21-0966-ARE,VBA-21-526EZ-ARE"`
	SessionSecret string        `env:"CLAIMFORM_SESSION_SECRET"`
	SessionTTL    time.Duration `env:"CLAIMFORM_SESSION_TTL" envDefault:"20m"`
	MailAPIKey    string        `env:"CLAIMFORM_MAIL_API_KEY"`
	MailBaseURL   string        `env:"CLAIMFORM_MAIL_BASE_URL" envDefault:"https://api.lob.com"`
	MailTimeout   time.Duration `env:"CLAIMFORM_MAIL_TIMEOUT" envDefault:"30s"`
	LogLevel      string        `env:"CLAIMFORM_LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"CLAIMFORM_LOG_FORMAT" envDefault:"json"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements env tags cannot express.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("config: unknown environment %q", c.Env)
	}

	forms := c.ClaimForms[:0]
	for _, key := range c.ClaimForms {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			forms = append(forms, trimmed)
		}
	}
	c.ClaimForms = forms

	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: session ttl must be positive")
	}
	if c.Env == EnvProduction {
		if len(c.SessionSecret) < 32 {
			return fmt.Errorf("config: CLAIMFORM_SESSION_SECRET must be at least 32 bytes in production")
		}
		if strings.TrimSpace(c.MailAPIKey) == "" {
			return fmt.Errorf("config: CLAIMFORM_MAIL_API_KEY is required in production")
		}
	}
	if c.SessionSecret == "" {
		c.SessionSecret = "local-development-session-secret"
	}
	return nil
}
