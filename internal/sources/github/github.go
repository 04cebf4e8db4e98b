// Package github searches GitHub issues, discussions-style content, and
// repositories through the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/buildscout/buildscout/internal/sources"
)

const (
	DefaultSearchAPIRateLimit      = 25 // requests per minute (under 30/minute limit)
	GitHubSearchAPIRateLimitEnvVar = "GITHUB_SEARCH_API_RATE_LIMIT"

	maxPerPage = 100
)

// Adapter implements sources.Adapter for GitHub.
type Adapter struct {
	client           *github.Client
	logger           *logrus.Logger
	token            string
	searchAPILimiter *rate.Limiter
	mu               sync.Mutex
}

// New creates a GitHub adapter. With an empty token the adapter still works
// against the unauthenticated API, at much tighter rate limits.
func New(token string, logger *logrus.Logger) *Adapter {
	client := github.NewClient(nil)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	}

	return &Adapter{
		client:           client,
		logger:           logger,
		token:            token,
		searchAPILimiter: newRateLimiter(GitHubSearchAPIRateLimitEnvVar, DefaultSearchAPIRateLimit),
	}
}

func (a *Adapter) Name() string { return "github" }

// ValidateConfig reports whether a token is present.
func (a *Adapter) ValidateConfig() bool { return a.token != "" }

// Search queries GitHub's search API constrained to the requested date
// window. Params: "search_type" ("issues" or "repositories"), "language".
func (a *Adapter) Search(ctx context.Context, query string, limit, daysBack int, params sources.Params) ([]map[string]any, error) {
	since := time.Now().AddDate(0, 0, -daysBack).Format("2006-01-02")
	searchQuery := fmt.Sprintf("%s created:>=%s", query, since)
	if lang := params.String("language", ""); lang != "" {
		searchQuery += " language:" + lang
	}

	a.logger.WithFields(logrus.Fields{
		"query":       searchQuery,
		"search_type": params.String("search_type", "issues"),
	}).Debug("Searching GitHub")

	if params.String("search_type", "issues") == "repositories" {
		return a.searchRepositories(ctx, searchQuery, limit)
	}
	return a.searchIssues(ctx, searchQuery, limit)
}

// searchIssues searches issues (GitHub's issue search also covers
// discussions surfaced as issues). Pull requests are skipped.
func (a *Adapter) searchIssues(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	if err := a.waitForSearchAPIRateLimit(ctx); err != nil {
		return nil, fmt.Errorf("search API rate limit wait failed: %w", err)
	}

	opts := &github.SearchOptions{
		Sort:  "created",
		Order: "desc",
		ListOptions: github.ListOptions{
			PerPage: min(limit, maxPerPage),
		},
	}

	result, _, err := a.client.Search.Issues(ctx, query+" type:issue", opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}

	rows := make([]map[string]any, 0, len(result.Issues))
	for _, issue := range result.Issues {
		if issue.IsPullRequest() {
			continue
		}
		if len(rows) >= limit {
			break
		}

		labels := make([]string, 0, len(issue.Labels))
		for _, label := range issue.Labels {
			labels = append(labels, label.GetName())
		}

		row := map[string]any{
			"title":      issue.GetTitle(),
			"body":       issue.GetBody(),
			"author":     issue.User.GetLogin(),
			"created_at": issue.GetCreatedAt().Time,
			"html_url":   issue.GetHTMLURL(),
			"comments":   issue.GetComments(),
			"state":      issue.GetState(),
			"repository": repositoryFromURL(issue.GetRepositoryURL()),
		}
		if reactions := issue.GetReactions(); reactions != nil {
			row["score"] = reactions.GetTotalCount()
		}
		if len(labels) > 0 {
			row["tags"] = labels
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// searchRepositories searches repositories; star counts land in the score
// field.
func (a *Adapter) searchRepositories(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	if err := a.waitForSearchAPIRateLimit(ctx); err != nil {
		return nil, fmt.Errorf("search API rate limit wait failed: %w", err)
	}

	opts := &github.SearchOptions{
		Sort:  "stars",
		Order: "desc",
		ListOptions: github.ListOptions{
			PerPage: min(limit, maxPerPage),
		},
	}

	result, _, err := a.client.Search.Repositories(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search repositories: %w", err)
	}

	rows := make([]map[string]any, 0, len(result.Repositories))
	for _, repo := range result.Repositories {
		if len(rows) >= limit {
			break
		}
		row := map[string]any{
			"name":        repo.GetFullName(),
			"description": repo.GetDescription(),
			"owner":       repo.Owner.GetLogin(),
			"created_at":  repo.GetCreatedAt().Time,
			"html_url":    repo.GetHTMLURL(),
			"score":       repo.GetStargazersCount(),
			"comments":    repo.GetOpenIssuesCount(),
		}
		if topics := repo.Topics; len(topics) > 0 {
			row["tags"] = topics
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// repositoryFromURL turns an API repository URL into "owner/name".
func repositoryFromURL(apiURL string) string {
	const prefix = "https://api.github.com/repos/"
	return strings.TrimPrefix(apiURL, prefix)
}

// newRateLimiter builds a per-second limiter from a per-minute budget,
// overridable through the environment.
func newRateLimiter(envVar string, defaultValue int) *rate.Limiter {
	rateLimit := defaultValue
	if limitStr := os.Getenv(envVar); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			rateLimit = limit
		}
	}
	return rate.NewLimiter(rate.Limit(rateLimit)/60, 1) // Convert per-minute to per-second
}

func (a *Adapter) waitForSearchAPIRateLimit(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.searchAPILimiter.Wait(ctx)
}
