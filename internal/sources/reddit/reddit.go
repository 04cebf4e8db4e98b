// Package reddit searches Reddit through its public JSON search endpoint.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/buildscout/buildscout/internal/config"
	"github.com/buildscout/buildscout/internal/sources"
)

const baseURL = "https://www.reddit.com"

// Reddit caps search.json responses at 25 items per request.
const maxPerRequest = 25

// Subreddits searched when the caller does not pick their own.
var defaultSubreddits = []string{
	"Construction", "Roofing", "HomeImprovement", "DIY", "latvia", "Renovations",
}

// Adapter implements sources.Adapter for Reddit.
type Adapter struct {
	client sources.HTTPClient
	logger *logrus.Logger
	creds  config.Credentials
}

func New(creds config.Credentials, client sources.HTTPClient, logger *logrus.Logger) *Adapter {
	return &Adapter{client: client, logger: logger, creds: creds}
}

func (a *Adapter) Name() string { return "reddit" }

// ValidateConfig reports whether API credentials are present. The public
// JSON endpoint also works without them, at tighter rate limits.
func (a *Adapter) ValidateConfig() bool {
	return a.creds.RedditClientID != "" &&
		a.creds.RedditClientSecret != "" &&
		a.creds.RedditUserAgent != ""
}

// Search queries each selected subreddit's search.json endpoint.
// Params: "subreddits" (list), "sort" ("relevance", "hot", "new", "top").
func (a *Adapter) Search(ctx context.Context, query string, limit, daysBack int, params sources.Params) ([]map[string]any, error) {
	subreddits := params.StringSlice("subreddits")
	if len(subreddits) == 0 {
		subreddits = defaultSubreddits
	}
	sort := params.String("sort", "relevance")
	timeFilter := timeFilterFor(daysBack)

	perSub := limit / len(subreddits)
	if perSub < 3 {
		perSub = 3
	}

	a.logger.WithFields(logrus.Fields{
		"query":       query,
		"subreddits":  len(subreddits),
		"time_filter": timeFilter,
	}).Debug("Searching Reddit")

	posts := make([]map[string]any, 0, limit)
	for _, sub := range subreddits {
		if len(posts) >= limit {
			break
		}

		reqURL := fmt.Sprintf("%s/r/%s/search.json?%s", baseURL, url.PathEscape(sub), url.Values{
			"q":           {query},
			"limit":       {strconv.Itoa(min(perSub, maxPerRequest))},
			"restrict_sr": {"on"},
			"sort":        {sort},
			"t":           {timeFilter},
		}.Encode())

		body, err := sources.Get(ctx, a.client, a.logger, reqURL)
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"subreddit": sub,
				"error":     err.Error(),
			}).Warn("Subreddit search failed")
			continue
		}

		rows, err := parseListing(body, sub)
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"subreddit": sub,
				"error":     err.Error(),
			}).Warn("Failed to parse subreddit listing")
			continue
		}
		posts = append(posts, rows...)
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title         string  `json:"title"`
	Selftext      string  `json:"selftext"`
	Author        string  `json:"author"`
	CreatedUTC    float64 `json:"created_utc"`
	Score         float64 `json:"score"`
	NumComments   int     `json:"num_comments"`
	Permalink     string  `json:"permalink"`
	URL           string  `json:"url"`
	LinkFlairText string  `json:"link_flair_text"`
}

// parseListing converts one search.json response into raw rows keyed with
// the Reddit API's own field names.
func parseListing(body []byte, subreddit string) ([]map[string]any, error) {
	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	rows := make([]map[string]any, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		p := child.Data
		author := p.Author
		if author == "" {
			author = "[deleted]"
		}
		row := map[string]any{
			"title":        p.Title,
			"selftext":     p.Selftext,
			"author":       author,
			"created_utc":  p.CreatedUTC,
			"score":        p.Score,
			"num_comments": p.NumComments,
			"permalink":    baseURL + p.Permalink,
			"subreddit":    subreddit,
		}
		if p.LinkFlairText != "" {
			row["tags"] = []string{p.LinkFlairText}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// timeFilterFor maps a days-back window to Reddit's t buckets.
func timeFilterFor(daysBack int) string {
	switch {
	case daysBack <= 1:
		return "day"
	case daysBack <= 7:
		return "week"
	case daysBack <= 30:
		return "month"
	case daysBack <= 365:
		return "year"
	default:
		return "all"
	}
}
