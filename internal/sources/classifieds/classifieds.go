// Package classifieds scrapes ss.com, the dominant Latvian classifieds
// board, for construction-related listings.
package classifieds

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/buildscout/buildscout/internal/sources"
)

const baseURL = "https://www.ss.com"

// Adapter implements sources.Adapter for ss.com listings.
type Adapter struct {
	client sources.HTTPClient
	logger *logrus.Logger
}

func New(client sources.HTTPClient, logger *logrus.Logger) *Adapter {
	return &Adapter{client: client, logger: logger}
}

func (a *Adapter) Name() string { return "classifieds" }

// ValidateConfig always reports true; ss.com needs no credentials.
func (a *Adapter) ValidateConfig() bool { return true }

// Search scrapes the ss.com search results page. Listings carry no reliable
// publication timestamp, so rows are dated at scrape time.
// Params: "region" (tag added to each listing).
func (a *Adapter) Search(ctx context.Context, query string, limit, daysBack int, params sources.Params) ([]map[string]any, error) {
	searchURL := baseURL + "/lv/search/?" + url.Values{"q": {query}}.Encode()

	a.logger.WithField("query", query).Debug("Searching ss.com classifieds")

	doc, err := sources.GetDocument(ctx, a.client, a.logger, searchURL)
	if err != nil {
		return nil, err
	}

	return parseListings(doc, params.String("region", "latvia"), limit), nil
}

// parseListings extracts listings from an ss.com results table. Rows use
// the site's msga2 classes; anything with fewer than four cells is chrome,
// not a listing.
func parseListings(doc *goquery.Document, region string, limit int) []map[string]any {
	rows := make([]map[string]any, 0, limit)
	now := time.Now().UTC()

	doc.Find("tr.msga2, tr.msga2-o").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		cells := s.Find("td")
		if cells.Length() < 4 {
			return true
		}

		titleLink := cells.Eq(1).Find("a").First()
		title := strings.TrimSpace(titleLink.Text())
		if title == "" {
			return true
		}

		href, _ := titleLink.Attr("href")
		price := strings.TrimSpace(cells.Eq(cells.Length() - 1).Text())
		location := strings.TrimSpace(cells.Eq(cells.Length() - 2).Text())

		rows = append(rows, map[string]any{
			"title":  title,
			"body":   location + " | " + price,
			"url":    resolveURL(href),
			"date":   now,
			"author": "ss.com",
			"price":  price,
			"tags":   []string{"ss.com", region},
		})
		return len(rows) < limit
	})
	return rows
}

func resolveURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return baseURL + href
}
