// Package suppliers scrapes Latvian building-material supplier catalogs
// (K-Senukai, Stokker) for product listings matching the query.
package suppliers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/buildscout/buildscout/internal/sources"
)

// site describes one supplier catalog: how to build its search URL and
// which selectors pull product fields out of the results page.
type site struct {
	name      string
	display   string
	searchURL string
	product   string
	title     string
	price     string
}

var knownSites = map[string]site{
	"ksenukai": {
		name:      "ksenukai",
		display:   "K-Senukai",
		searchURL: "https://www.ksenukai.lv/lv/search/?q=%s",
		product:   `[data-el="product"]`,
		title:     `[data-el="product-title"]`,
		price:     `[data-el="product-price-current"]`,
	},
	"stokker": {
		name:      "stokker",
		display:   "Stokker",
		searchURL: "https://www.stokker.com/lv/search?q=%s",
		product:   ".product-list-item, .product-card",
		title:     ".product-name, .product-card__title",
		price:     ".price, .product-card__price",
	},
}

// Adapter implements sources.Adapter for supplier catalog scraping.
type Adapter struct {
	client sources.HTTPClient
	logger *logrus.Logger
	sites  []string
}

func New(siteNames []string, client sources.HTTPClient, logger *logrus.Logger) *Adapter {
	return &Adapter{client: client, logger: logger, sites: siteNames}
}

func (a *Adapter) Name() string { return "suppliers" }

// ValidateConfig reports whether at least one known supplier is configured.
func (a *Adapter) ValidateConfig() bool {
	for _, name := range a.sites {
		if _, ok := knownSites[name]; ok {
			return true
		}
	}
	return false
}

// Search scrapes each configured supplier catalog. Product listings carry
// no timestamps; rows are dated at scrape time.
// Params: "sites" (list of supplier names, overrides configuration).
func (a *Adapter) Search(ctx context.Context, query string, limit, daysBack int, params sources.Params) ([]map[string]any, error) {
	siteNames := params.StringSlice("sites")
	if len(siteNames) == 0 {
		siteNames = a.sites
	}

	a.logger.WithFields(logrus.Fields{
		"query": query,
		"sites": siteNames,
	}).Debug("Searching supplier catalogs")

	products := make([]map[string]any, 0, limit)
	for _, name := range siteNames {
		st, ok := knownSites[name]
		if !ok {
			a.logger.WithField("site", name).Warn("Unknown supplier site, skipping")
			continue
		}
		if len(products) >= limit {
			break
		}

		searchURL := fmt.Sprintf(st.searchURL, url.QueryEscape(query))
		doc, err := sources.GetDocument(ctx, a.client, a.logger, searchURL)
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"site":  st.name,
				"error": err.Error(),
			}).Warn("Supplier search failed")
			continue
		}
		products = append(products, parseProducts(doc, st, limit-len(products))...)
	}
	return products, nil
}

// parseProducts extracts product rows from one catalog results page.
func parseProducts(doc *goquery.Document, st site, limit int) []map[string]any {
	rows := make([]map[string]any, 0, limit)
	now := time.Now().UTC()

	doc.Find(st.product).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		titleSel := s.Find(st.title).First()
		title := strings.TrimSpace(titleSel.Text())
		if title == "" {
			return true
		}

		href, _ := titleSel.Attr("href")
		if href == "" {
			href, _ = s.Find("a").First().Attr("href")
		}
		price := strings.TrimSpace(s.Find(st.price).First().Text())

		rows = append(rows, map[string]any{
			"title":  title,
			"body":   price,
			"url":    resolveURL(st, href),
			"date":   now,
			"author": st.display,
			"price":  price,
			"tags":   []string{st.name, "catalog"},
		})
		return len(rows) < limit
	})
	return rows
}

func resolveURL(st site, href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(fmt.Sprintf(st.searchURL, ""))
	if err != nil {
		return href
	}
	return base.Scheme + "://" + base.Host + "/" + strings.TrimPrefix(href, "/")
}
