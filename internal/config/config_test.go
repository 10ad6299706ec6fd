package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lm_test")
	t.Setenv("MEMBERSTACK_WEBHOOK_SECRET", "whsec_test")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.Equal(t, "https://storage.bunnycdn.com", cfg.BunnyStorageEndpoint)
	assert.Equal(t, "little-microphones.b-cdn.net", cfg.BunnyCDNHost)
	assert.Equal(t, 10, cfg.FreePoolWarnThreshold)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("MEMBERSTACK_WEBHOOK_SECRET", "whsec_test")
	t.Setenv("DATABASE_URL", "placeholder")
	os.Unsetenv("DATABASE_URL")

	_, err := Load()
	assert.Error(t, err)
}

func TestTemplateID(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BREVO_TEMPLATE_TEACHER_EN", "44")

	cfg, err := Load()
	assert.NoError(t, err)

	cases := []struct {
		role, lang string
		want       int64
	}{
		{"teacher", "pl", 2},
		{"teacher", "en", 44}, // overridden
		{"parent", "pl", 3},
		{"parent", "en", 5},
	}
	for _, tc := range cases {
		got, err := cfg.TemplateID(tc.role, tc.lang)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err = cfg.TemplateID("teacher", "de")
	assert.Error(t, err)
	_, err = cfg.TemplateID("principal", "pl")
	assert.Error(t, err)
}
