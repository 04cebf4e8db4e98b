// Package news searches news coverage through RSS: a Google News search
// feed scoped to Latvia plus any extra feeds from the site-list config.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/buildscout/buildscout/internal/sources"
)

const googleNewsBase = "https://news.google.com/rss/search"

// Adapter implements sources.Adapter for RSS news feeds.
type Adapter struct {
	client sources.HTTPClient
	logger *logrus.Logger
	feeds  []string
}

func New(feeds []string, client sources.HTTPClient, logger *logrus.Logger) *Adapter {
	return &Adapter{client: client, logger: logger, feeds: feeds}
}

func (a *Adapter) Name() string { return "news" }

// ValidateConfig always reports true; the Google News feed needs nothing.
func (a *Adapter) ValidateConfig() bool { return true }

// Search fetches the Google News search feed for the query, then any
// configured feeds filtered by query terms.
// Params: "language" (hl), "region" (gl), "feeds" (extra feed URLs).
func (a *Adapter) Search(ctx context.Context, query string, limit, daysBack int, params sources.Params) ([]map[string]any, error) {
	language := params.String("language", "en")
	region := params.String("region", "LV")

	feedURL := fmt.Sprintf("%s?%s", googleNewsBase, url.Values{
		"q":    {query + " site:lv OR Latvia OR Riga"},
		"hl":   {language},
		"gl":   {region},
		"ceid": {region + ":" + language},
	}.Encode())

	a.logger.WithFields(logrus.Fields{
		"query":  query,
		"region": region,
	}).Debug("Searching news feeds")

	articles := make([]map[string]any, 0, limit)

	body, err := sources.Get(ctx, a.client, a.logger, feedURL)
	if err != nil {
		a.logger.WithError(err).Warn("Google News feed fetch failed")
	} else {
		rows, err := parseFeed(body, language, region)
		if err != nil {
			return nil, err
		}
		articles = append(articles, rows...)
	}

	extraFeeds := params.StringSlice("feeds")
	if len(extraFeeds) == 0 {
		extraFeeds = a.feeds
	}
	terms := strings.Fields(strings.ToLower(query))
	for _, feed := range extraFeeds {
		if len(articles) >= limit {
			break
		}
		body, err := sources.Get(ctx, a.client, a.logger, feed)
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"feed":  feed,
				"error": err.Error(),
			}).Warn("Feed fetch failed")
			continue
		}
		rows, err := parseFeed(body, language, region)
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"feed":  feed,
				"error": err.Error(),
			}).Warn("Feed parse failed")
			continue
		}
		for _, row := range rows {
			if matchesAny(row, terms) {
				articles = append(articles, row)
			}
		}
	}

	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

type rss struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	Creator     string `xml:"creator"`
	Source      string `xml:"source"`
}

// parseFeed converts one RSS document into raw rows. Publication dates stay
// strings; the normalizer's date parser handles the RFC 1123 variants feeds
// actually emit.
func parseFeed(body []byte, language, region string) ([]map[string]any, error) {
	var feed rss
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed: %w", err)
	}

	rows := make([]map[string]any, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		author := item.Creator
		if author == "" {
			author = item.Source
		}
		rows = append(rows, map[string]any{
			"title":       item.Title,
			"description": item.Description,
			"link":        item.Link,
			"date":        item.PubDate,
			"author":      author,
			"tags":        []string{language, region},
		})
	}
	return rows, nil
}

func matchesAny(row map[string]any, terms []string) bool {
	title, _ := row["title"].(string)
	desc, _ := row["description"].(string)
	haystack := strings.ToLower(title + " " + desc)
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
