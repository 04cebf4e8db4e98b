// Package registry assembles the full adapter set from configuration. The
// scraping adapters share one rate-limited HTTP client so the combined
// request rate stays bounded no matter how many sources run concurrently.
package registry

import (
	"github.com/sirupsen/logrus"

	"github.com/buildscout/buildscout/internal/config"
	"github.com/buildscout/buildscout/internal/sources"
	"github.com/buildscout/buildscout/internal/sources/classifieds"
	"github.com/buildscout/buildscout/internal/sources/forums"
	"github.com/buildscout/buildscout/internal/sources/github"
	"github.com/buildscout/buildscout/internal/sources/news"
	"github.com/buildscout/buildscout/internal/sources/reddit"
	"github.com/buildscout/buildscout/internal/sources/stackoverflow"
	"github.com/buildscout/buildscout/internal/sources/suppliers"
)

// NewRegistry builds every known source adapter keyed by source identifier.
func NewRegistry(cfg *config.Config, logger *logrus.Logger) map[string]sources.Adapter {
	client := sources.NewRateLimitedHTTPClient()

	return map[string]sources.Adapter{
		"reddit":        reddit.New(cfg.Credentials, client, logger),
		"github":        github.New(cfg.Credentials.GitHubToken, logger),
		"stackoverflow": stackoverflow.New(cfg.Credentials.StackExchangeKey, client, logger),
		"forums":        forums.New(cfg.Sites.ForumURLs, client, logger),
		"news":          news.New(cfg.Sites.NewsFeeds, client, logger),
		"classifieds":   classifieds.New(client, logger),
		"suppliers":     suppliers.New(cfg.Sites.SupplierSites, client, logger),
	}
}

// SourceNames lists the registered source identifiers in a stable order.
func SourceNames() []string {
	return []string{"reddit", "github", "stackoverflow", "forums", "news", "classifieds", "suppliers"}
}
