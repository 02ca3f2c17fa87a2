package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "latest_generation", cfg.Sync.StalePolicy)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowOrigins)
	assert.Equal(t, "http://localhost:3000/checkout/complete", cfg.ReturnURL())
}

func TestLoadRejectsUnknownStalePolicy(t *testing.T) {
	t.Setenv("SYNC_STALE_POLICY", "first_wins")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresSessionSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
