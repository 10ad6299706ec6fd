package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is resolved once at startup. Required keys fail the binary;
// optional integrations (storage, admin key) only degrade the endpoints
// that need them.
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	BaseURL   string `env:"BASE_URL"`
	RedisAddr string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`

	DatabaseURL string `env:"DATABASE_URL,required"`

	MemberstackWebhookSecret string `env:"MEMBERSTACK_WEBHOOK_SECRET,required"`
	MemberstackAPIKey        string `env:"MEMBERSTACK_API_KEY"`
	MemberstackAPIURL        string `env:"MEMBERSTACK_API_URL" envDefault:"https://admin.memberstack.com/members"`

	BrevoAPIKey string `env:"BREVO_API_KEY"`
	BrevoAPIURL string `env:"BREVO_API_URL" envDefault:"https://api.brevo.com/v3"`

	BunnyStorageZone     string `env:"BUNNY_STORAGE_ZONE"`
	BunnyStorageKey      string `env:"BUNNY_STORAGE_KEY"`
	BunnyStorageEndpoint string `env:"BUNNY_STORAGE_ENDPOINT" envDefault:"https://storage.bunnycdn.com"`
	BunnyCDNHost         string `env:"BUNNY_CDN_HOST" envDefault:"little-microphones.b-cdn.net"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	// Transactional template ids, one per recipient role and language.
	// Overridable per key so production can pin live ids without a deploy.
	TemplateTeacherPL int64 `env:"BREVO_TEMPLATE_TEACHER_PL" envDefault:"2"`
	TemplateTeacherEN int64 `env:"BREVO_TEMPLATE_TEACHER_EN" envDefault:"4"`
	TemplateParentPL  int64 `env:"BREVO_TEMPLATE_PARENT_PL" envDefault:"3"`
	TemplateParentEN  int64 `env:"BREVO_TEMPLATE_PARENT_EN" envDefault:"5"`

	FreePoolWarnThreshold int `env:"FREE_POOL_WARN_THRESHOLD" envDefault:"10"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	return &cfg, nil
}

// TemplateID selects the transactional template for a notification
// type and language pair. Unknown pairs are rejected before anything
// is enqueued or sent.
func (c *Config) TemplateID(notificationType, language string) (int64, error) {
	switch notificationType + "/" + language {
	case "teacher/pl":
		return c.TemplateTeacherPL, nil
	case "teacher/en":
		return c.TemplateTeacherEN, nil
	case "parent/pl":
		return c.TemplateParentPL, nil
	case "parent/en":
		return c.TemplateParentEN, nil
	}
	return 0, fmt.Errorf("no template for notification type %q and language %q", notificationType, language)
}
