package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, ".de", cfg.DefaultTLD)
	assert.Equal(t, 4, cfg.MinDomainLength)
	assert.Equal(t, 1, cfg.RegisterYears)
	assert.Equal(t, DefaultEmailPrefixes, cfg.EmailPrefixes)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Zero(t, cfg.AutoSearchInterval)
	assert.False(t, cfg.RetryRepickPrefix)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("DOMAINACQ_DYNADOT_API_KEY", "secret")
	t.Setenv("DOMAINACQ_EMAIL_PREFIXES", "info, kontakt,,buero")
	t.Setenv("DOMAINACQ_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("DOMAINACQ_AUTO_SEARCH_INTERVAL", "15m")
	t.Setenv("DOMAINACQ_RETRY_REPICK_PREFIX", "true")
	t.Setenv("DOMAINACQ_REGISTER_YEARS", "2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.DynadotAPIKey)
	assert.Equal(t, []string{"info", "kontakt", "buero"}, cfg.EmailPrefixes)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 15*time.Minute, cfg.AutoSearchInterval)
	assert.True(t, cfg.RetryRepickPrefix)
	assert.Equal(t, 2, cfg.RegisterYears)
}

func TestValidate(t *testing.T) {
	valid := Config{EmailPrefixes: []string{"info"}, RegisterYears: 1, MinDomainLength: 4}
	require.NoError(t, valid.Validate())

	tests := map[string]func(*Config){
		"no prefixes":     func(c *Config) { c.EmailPrefixes = nil },
		"zero years":      func(c *Config) { c.RegisterYears = 0 },
		"zero min length": func(c *Config) { c.MinDomainLength = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
