// Package config loads generator settings from the site's config file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/jcaw/jekyll-github-scraper/internal/errors"
)

// DefaultUsername is an obvious placeholder so an unconfigured site is easy to spot.
const DefaultUsername = "PASS_YOUR_USERNAME"

// Config holds the generator configuration.
type Config struct {
	Token    string
	Username string
	CacheTTL time.Duration
	// StartYear overrides the account join year as the lower bound of the
	// year loop. Nil means derive it from the first query.
	StartYear *int
	DataDir   string
}

// HasToken reports whether a GitHub token was found in the environment.
func (c *Config) HasToken() bool {
	return c.Token != ""
}

// Load reads the YAML config file at path and the token from the environment.
// A missing file is not an error; all settings then take their defaults.
//
//	source: .
//	data_dir: _data
//	githubcontributions:
//	  cache: 300
//	  username: alice
//	  start_year: 2015
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("source", ".")
	v.SetDefault("data_dir", "_data")
	v.SetDefault("githubcontributions.cache", 300)
	v.SetDefault("githubcontributions.username", DefaultUsername)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read config file %s", path), err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to stat config file %s", path), err)
		}
	}

	cfg := &Config{
		Token:    token(),
		Username: v.GetString("githubcontributions.username"),
		CacheTTL: time.Duration(v.GetInt("githubcontributions.cache")) * time.Second,
		DataDir:  filepath.Join(v.GetString("source"), v.GetString("data_dir")),
	}
	if v.IsSet("githubcontributions.start_year") {
		year := v.GetInt("githubcontributions.start_year")
		cfg.StartYear = &year
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Username == "" {
		return apperrors.NewConfigurationError("githubcontributions.username is required", nil)
	}
	if c.CacheTTL < 0 {
		return apperrors.NewConfigurationError("githubcontributions.cache must not be negative", nil)
	}
	if c.DataDir == "" {
		return apperrors.NewConfigurationError("data_dir is required", nil)
	}
	return nil
}

func token() string {
	if v := os.Getenv("API_TOKEN_GITHUB"); v != "" {
		return v
	}
	return os.Getenv("GITHUB_TOKEN")
}
