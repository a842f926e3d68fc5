package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Config holds the full application configuration, read once at startup and
// treated as immutable afterwards.
type Config struct {
	Strava  StravaConfig  `mapstructure:"strava"`
	Server  ServerConfig  `mapstructure:"server"`
	Ranking RankingConfig `mapstructure:"ranking"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

// StravaConfig holds upstream API credentials and club identity.
type StravaConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	ClubID       int64         `mapstructure:"club_id"`
	RedirectURL  string        `mapstructure:"redirect_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port           string  `mapstructure:"port"`
	CORSOrigin     string  `mapstructure:"cors_origin"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// RankingConfig controls how rankings are computed.
type RankingConfig struct {
	// Mode is "club" (live roster + club feed) or "athlete" (registered
	// athletes, per-athlete tokens).
	Mode          string        `mapstructure:"mode"`
	RefreshMargin time.Duration `mapstructure:"refresh_margin"`
}

// StorageConfig locates the credential database.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from an optional YAML file plus CLUBRANK_*
// environment variables. An empty path searches ./config and the working
// directory; a missing file is fine as long as required values arrive via
// environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("CLUBRANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Environment variables arrive as strings; let numeric fields decode
	// from them.
	weaklyTyped := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }

	var cfg Config
	if err := v.Unmarshal(&cfg, weaklyTyped); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Empty defaults register the keys so AutomaticEnv can fill them in
	// without a config file.
	v.SetDefault("strava.client_id", "")
	v.SetDefault("strava.client_secret", "")
	v.SetDefault("strava.club_id", 0)
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.cors_origin", "http://localhost:3000")
	v.SetDefault("server.rate_limit_rps", 2.0)
	v.SetDefault("server.rate_limit_burst", 30)
	v.SetDefault("ranking.mode", "club")
	v.SetDefault("ranking.refresh_margin", 5*time.Minute)
	v.SetDefault("storage.db_path", "./data/clubrank.db")
	v.SetDefault("strava.timeout", 30*time.Second)
	v.SetDefault("strava.redirect_url", "http://localhost:3000/callback")
	v.SetDefault("log.level", "info")
}

// Validate checks required fields and enumerations.
func (c *Config) Validate() error {
	var missing []string
	if c.Strava.ClientID == "" {
		missing = append(missing, "strava.client_id")
	}
	if c.Strava.ClientSecret == "" {
		missing = append(missing, "strava.client_secret")
	}
	if c.Strava.ClubID == 0 {
		missing = append(missing, "strava.club_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required configuration values are not set: %v", missing)
	}

	if c.Ranking.Mode != "club" && c.Ranking.Mode != "athlete" {
		return fmt.Errorf("ranking.mode must be \"club\" or \"athlete\", got %q", c.Ranking.Mode)
	}
	if c.Strava.Timeout <= 0 {
		return fmt.Errorf("strava.timeout must be positive, got %v", c.Strava.Timeout)
	}

	return nil
}
