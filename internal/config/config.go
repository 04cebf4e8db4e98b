// Package config loads buildscout's configuration: credentials and tunables
// from the environment (optionally via a .env file), and site lists for the
// scraping adapters from an optional YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultLimit is the suggested per-source result limit.
	DefaultLimit = 50
	// MaxLimit is the suggested upper bound for per-source results.
	MaxLimit = 500
	// DefaultDaysBack is the suggested search window in days.
	DefaultDaysBack = 30
	// MaxDaysBack is the suggested upper bound for the search window.
	MaxDaysBack = 365

	// ConfigPathEnvVar points at the optional YAML site-list file.
	ConfigPathEnvVar = "BUILDSCOUT_CONFIG"

	defaultConfigPath = "buildscout.yaml"
)

// Credentials holds provider API credentials. Empty values are valid: the
// adapters degrade to unauthenticated access or report themselves as not
// configured.
type Credentials struct {
	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string
	GitHubToken        string
	StackExchangeKey   string
}

// Sites lists the targets for the HTML/RSS scraping adapters. Loaded from
// the optional YAML config file; absent sections keep their defaults.
type Sites struct {
	ForumURLs     []string `yaml:"forum_urls"`
	NewsFeeds     []string `yaml:"news_feeds"`
	SupplierSites []string `yaml:"supplier_sites"`
}

// Config is the process-wide configuration, read-only after Load.
type Config struct {
	Credentials Credentials
	Sites       Sites
	SourceNames map[string]string
}

// SourceNames maps source identifiers to display names used in progress and
// status messages.
func defaultSourceNames() map[string]string {
	return map[string]string{
		"reddit":        "Reddit",
		"github":        "GitHub Issues/Discussions",
		"stackoverflow": "Stack Overflow",
		"forums":        "Generic Forums",
		"news":          "News (RSS)",
		"classifieds":   "SS.com Classifieds",
		"suppliers":     "Supplier Catalogs",
	}
}

// Load builds the configuration from the environment and the optional YAML
// site-list file. A missing .env or YAML file is not an error.
func Load(path string, logger *logrus.Logger) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded environment from .env")
	}

	cfg := &Config{
		Credentials: Credentials{
			RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
			RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
			RedditUserAgent:    getenvDefault("REDDIT_USER_AGENT", "buildscout/1.0"),
			GitHubToken:        os.Getenv("GITHUB_TOKEN"),
			StackExchangeKey:   os.Getenv("STACKEXCHANGE_KEY"),
		},
		Sites: Sites{
			SupplierSites: []string{"ksenukai", "stokker"},
		},
		SourceNames: defaultSourceNames(),
	}

	if path == "" {
		path = getenvDefault(ConfigPathEnvVar, defaultConfigPath)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		logger.WithField("path", path).Debug("No site-list config file, using defaults")
		return cfg, nil
	}

	var sites Sites
	if err := yaml.Unmarshal(data, &sites); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if len(sites.ForumURLs) > 0 {
		cfg.Sites.ForumURLs = sites.ForumURLs
	}
	if len(sites.NewsFeeds) > 0 {
		cfg.Sites.NewsFeeds = sites.NewsFeeds
	}
	if len(sites.SupplierSites) > 0 {
		cfg.Sites.SupplierSites = sites.SupplierSites
	}

	logger.WithFields(logrus.Fields{
		"path":   path,
		"forums": len(cfg.Sites.ForumURLs),
		"feeds":  len(cfg.Sites.NewsFeeds),
	}).Debug("Loaded site-list config")

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
