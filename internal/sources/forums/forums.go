// Package forums scrapes generic discussion forums. It recognises a couple
// of common forum engines by their markup and falls back to loose heuristics
// for everything else.
package forums

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/buildscout/buildscout/internal/sources"
)

// Forums searched when no forum_urls are configured. Latvian construction
// boards plus one international fallback.
var defaultForumURLs = []string{
	"https://www.buvlaukums.lv/forums",
	"https://forum.delfi.lv",
	"https://www.diychatroom.com",
}

// enginePattern holds the selectors for one known forum engine.
type enginePattern struct {
	name     string
	topic    string
	title    string
	author   string
	excerpt  string
	category string
}

var enginePatterns = []enginePattern{
	{
		name:     "discourse",
		topic:    "tr.topic-list-item",
		title:    ".title a, a.title",
		author:   ".posters a:first-child",
		excerpt:  ".topic-excerpt",
		category: ".category-name",
	},
	{
		name:     "phpbb",
		topic:    "li.row, ul.topiclist li",
		title:    "a.topictitle",
		author:   ".username, .username-coloured",
		excerpt:  ".topic-poster",
		category: ".forum-title",
	},
}

// genericPattern is the fallback for engines we do not recognise.
var genericPattern = enginePattern{
	name:    "generic",
	topic:   "article, .topic, .thread, .post-row, li.thread",
	title:   "h1 a, h2 a, h3 a, a.title, .title a",
	author:  ".author, .username, .poster",
	excerpt: ".excerpt, .snippet, p",
}

// searchPaths are tried in order against each forum until one returns
// topics.
var searchPaths = []string{
	"/search?q=%s",
	"/search.php?keywords=%s",
	"/search?expanded=true&q=%s",
}

var replyCountRes = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*repl`),
	regexp.MustCompile(`(\d+)\s*post`),
	regexp.MustCompile(`(\d+)\s*answer`),
}

const (
	maxTitleLen   = 500
	maxExcerptLen = 2000
	maxAuthorLen  = 100
)

// Adapter implements sources.Adapter for generic forum scraping.
type Adapter struct {
	client    sources.HTTPClient
	logger    *logrus.Logger
	forumURLs []string
}

func New(forumURLs []string, client sources.HTTPClient, logger *logrus.Logger) *Adapter {
	if len(forumURLs) == 0 {
		forumURLs = defaultForumURLs
	}
	return &Adapter{client: client, logger: logger, forumURLs: forumURLs}
}

func (a *Adapter) Name() string { return "forums" }

// ValidateConfig reports whether any forums are configured. Scraping needs
// no credentials.
func (a *Adapter) ValidateConfig() bool { return len(a.forumURLs) > 0 }

// Search scrapes each configured forum's search page for topics mentioning
// the query. Params: "forums" (list of base URLs, overrides configuration).
func (a *Adapter) Search(ctx context.Context, query string, limit, daysBack int, params sources.Params) ([]map[string]any, error) {
	forumURLs := params.StringSlice("forums")
	if len(forumURLs) == 0 {
		forumURLs = a.forumURLs
	}

	a.logger.WithFields(logrus.Fields{
		"query":  query,
		"forums": len(forumURLs),
	}).Debug("Searching forums")

	topics := make([]map[string]any, 0, limit)
	for _, base := range forumURLs {
		if len(topics) >= limit {
			break
		}
		rows, err := a.searchForum(ctx, base, query, limit-len(topics))
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"forum": base,
				"error": err.Error(),
			}).Warn("Forum search failed")
			continue
		}
		topics = append(topics, rows...)
	}
	return topics, nil
}

// searchForum tries each known search path on one forum and parses the
// first page that yields topics.
func (a *Adapter) searchForum(ctx context.Context, base, query string, limit int) ([]map[string]any, error) {
	var lastErr error
	for _, path := range searchPaths {
		searchURL := strings.TrimSuffix(base, "/") + fmt.Sprintf(path, url.QueryEscape(query))
		doc, err := sources.GetDocument(ctx, a.client, a.logger, searchURL)
		if err != nil {
			lastErr = err
			continue
		}
		rows := parse(doc, base, query, limit)
		if len(rows) > 0 {
			return rows, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// parse extracts topics from a search result page, trying the known engine
// patterns before the generic fallback. Topics whose title does not mention
// any query term are dropped.
func parse(doc *goquery.Document, base, query string, limit int) []map[string]any {
	for _, pattern := range enginePatterns {
		if rows := parseWith(doc, pattern, base, query, limit); len(rows) > 0 {
			return rows
		}
	}
	return parseWith(doc, genericPattern, base, query, limit)
}

func parseWith(doc *goquery.Document, pattern enginePattern, base, query string, limit int) []map[string]any {
	terms := strings.Fields(strings.ToLower(query))
	rows := make([]map[string]any, 0, limit)

	doc.Find(pattern.topic).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		titleSel := s.Find(pattern.title).First()
		title := truncate(strings.TrimSpace(titleSel.Text()), maxTitleLen)
		if title == "" || !mentionsAny(title, terms) {
			return true
		}

		href, _ := titleSel.Attr("href")
		row := map[string]any{
			"title":         title,
			"content":       truncate(strings.TrimSpace(s.Find(pattern.excerpt).First().Text()), maxExcerptLen),
			"author":        truncate(strings.TrimSpace(s.Find(pattern.author).First().Text()), maxAuthorLen),
			"url":           resolveURL(base, href),
			"comment_count": replyCount(s.Text()),
			"forum_engine":  pattern.name,
		}
		if date := topicDate(s); date != nil {
			row["date"] = *date
		}
		if pattern.category != "" {
			if cat := strings.TrimSpace(s.Find(pattern.category).First().Text()); cat != "" {
				row["tags"] = []string{cat}
			}
		}

		rows = append(rows, row)
		return len(rows) < limit
	})
	return rows
}

// topicDate looks for a machine-readable timestamp on the topic row.
func topicDate(s *goquery.Selection) *time.Time {
	if dt, ok := s.Find("time").First().Attr("datetime"); ok {
		if t, err := time.Parse(time.RFC3339, dt); err == nil {
			return &t
		}
	}
	if epoch, ok := s.Find("[data-time]").First().Attr("data-time"); ok {
		if secs, err := strconv.ParseInt(epoch, 10, 64); err == nil {
			t := time.Unix(secs, 0).UTC()
			return &t
		}
	}
	return nil
}

// replyCount scrapes a reply/post/answer count out of the row's text.
func replyCount(text string) int {
	lower := strings.ToLower(text)
	for _, re := range replyCountRes {
		if m := re.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}
	return 0
}

func mentionsAny(title string, terms []string) bool {
	lower := strings.ToLower(title)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func resolveURL(base, href string) string {
	if href == "" {
		return base
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(href, "/")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
