package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envTestConfig struct {
	Port int `env:"CLAIMFORM_TEST_PORT" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig
	require.NoError(t, ParseEnv(&cfg))
	assert.Equal(t, 123, cfg.Port)
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("CLAIMFORM_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "config: environment:"), "expected config prefix, got %v", err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":3999", cfg.Addr)
	assert.Equal(t, 20*time.Minute, cfg.SessionTTL)
	assert.Equal(t, []string{"VBA-21-0966-ARE", "VBA-21-526EZ-ARE"}, cfg.ClaimForms)
	assert.NotEmpty(t, cfg.SessionSecret)
	assert.True(t, cfg.Env.Offline())
}

func TestLoadTrimsClaimForms(t *testing.T) {
	t.Setenv("CLAIMFORM_CLAIM_FORMS", " a , ,b")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cfg.ClaimForms)
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	t.Setenv("CLAIMFORM_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLAIMFORM_SESSION_SECRET")

	t.Setenv("CLAIMFORM_SESSION_SECRET", strings.Repeat("s", 32))
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLAIMFORM_MAIL_API_KEY")

	t.Setenv("CLAIMFORM_MAIL_API_KEY", "test_key")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Env.Offline())
}

func TestLoadRejectsUnknownEnvironment(t *testing.T) {
	t.Setenv("CLAIMFORM_ENV", "staging")

	_, err := Load()
	require.Error(t, err)
}
