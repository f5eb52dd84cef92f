package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerAddr string `mapstructure:"SERVER_ADDR"`
	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBDSN      string `mapstructure:"DB_DSN"`

	DynadotAPIKey      string        `mapstructure:"DYNADOT_API_KEY"`
	DynadotBaseURL     string        `mapstructure:"DYNADOT_BASE_URL"`
	RegistrarTimeout   time.Duration `mapstructure:"REGISTRAR_TIMEOUT"`    // 0 = no timeout
	RegistrarRateLimit float64       `mapstructure:"REGISTRAR_RATE_LIMIT"` // requests per second, 0 = unlimited
	RegisterYears      int           `mapstructure:"REGISTER_YEARS"`

	DefaultTLD          string        `mapstructure:"DEFAULT_TLD"`
	MinDomainLength     int           `mapstructure:"MIN_DOMAIN_LENGTH"`
	EmailPrefixes       []string      `mapstructure:"EMAIL_PREFIXES"`
	BulkForwardAlias    string        `mapstructure:"BULK_FORWARD_ALIAS"`
	RetryRepickPrefix   bool          `mapstructure:"RETRY_REPICK_PREFIX"`
	ProbeWhoisPrefilter bool          `mapstructure:"PROBE_WHOIS_PREFILTER"`
	AutoSearchInterval  time.Duration `mapstructure:"AUTO_SEARCH_INTERVAL"` // 0 disables the worker

	RedisURL     string   `mapstructure:"REDIS_URL"`
	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

// DefaultEmailPrefixes is the alias vocabulary used when EMAIL_PREFIXES is unset.
var DefaultEmailPrefixes = []string{
	"sekretariat", "verwaltung", "info", "kontakt",
	"poststelle", "schulleitung", "rektorat", "rektor",
	"direktion", "schulverwaltung", "buero", "schule",
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "domainacq.db")
	v.SetDefault("DYNADOT_API_KEY", "")
	v.SetDefault("DYNADOT_BASE_URL", "https://api.dynadot.com/api3.xml")
	v.SetDefault("REGISTRAR_TIMEOUT", time.Duration(0))
	v.SetDefault("REGISTRAR_RATE_LIMIT", 2.0)
	v.SetDefault("REGISTER_YEARS", 1)
	v.SetDefault("DEFAULT_TLD", ".de")
	v.SetDefault("MIN_DOMAIN_LENGTH", 4)
	v.SetDefault("EMAIL_PREFIXES", DefaultEmailPrefixes)
	v.SetDefault("BULK_FORWARD_ALIAS", "info")
	v.SetDefault("RETRY_REPICK_PREFIX", false)
	v.SetDefault("PROBE_WHOIS_PREFILTER", false)
	v.SetDefault("AUTO_SEARCH_INTERVAL", time.Duration(0))
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("KAFKA_BROKERS", []string{})
	v.SetDefault("KAFKA_TOPIC", "domainacq.transitions")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	v.SetEnvPrefix("DOMAINACQ")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Optional local overrides, mostly for the API key.
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.EmailPrefixes = compact(cfg.EmailPrefixes)
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.EmailPrefixes) == 0 {
		return errors.New("config: EMAIL_PREFIXES must name at least one alias")
	}
	if c.RegisterYears <= 0 {
		return errors.New("config: REGISTER_YEARS must be positive")
	}
	if c.MinDomainLength < 1 {
		return errors.New("config: MIN_DOMAIN_LENGTH must be positive")
	}
	return nil
}

// compact trims entries and drops empty ones; env lists arrive as "a, b,,c".
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
