// Package stackoverflow searches Stack Overflow through the Stack Exchange
// REST API.
package stackoverflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/buildscout/buildscout/internal/sources"
)

const (
	baseURL = "https://api.stackexchange.com/2.3"
	site    = "stackoverflow"

	// The API caps pagesize at 100 and unauthenticated paging gets
	// expensive quickly; ten pages is plenty for any sane limit.
	maxPageSize = 100
	maxPages    = 10
)

// Adapter implements sources.Adapter for Stack Overflow.
type Adapter struct {
	client sources.HTTPClient
	logger *logrus.Logger
	apiKey string
}

func New(apiKey string, client sources.HTTPClient, logger *logrus.Logger) *Adapter {
	return &Adapter{client: client, logger: logger, apiKey: apiKey}
}

func (a *Adapter) Name() string { return "stackoverflow" }

// ValidateConfig always reports true: the Stack Exchange API works without a
// key, just with tighter quotas.
func (a *Adapter) ValidateConfig() bool { return true }

// Search runs /search/advanced over the requested date window, paginating
// until limit is reached. Params: "tags" (list, joined with ";").
func (a *Adapter) Search(ctx context.Context, query string, limit, daysBack int, params sources.Params) ([]map[string]any, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -daysBack)

	values := url.Values{
		"order":    {"desc"},
		"sort":     {"relevance"},
		"q":        {query},
		"site":     {site},
		"pagesize": {strconv.Itoa(min(limit, maxPageSize))},
		"fromdate": {strconv.FormatInt(from.Unix(), 10)},
		"todate":   {strconv.FormatInt(now.Unix(), 10)},
		"filter":   {"withbody"},
	}
	if tags := params.StringSlice("tags"); len(tags) > 0 {
		values.Set("tagged", strings.Join(tags, ";"))
	}
	if a.apiKey != "" {
		values.Set("key", a.apiKey)
	}

	a.logger.WithFields(logrus.Fields{
		"query":     query,
		"days_back": daysBack,
	}).Debug("Searching Stack Overflow")

	questions := make([]map[string]any, 0, limit)
	for page := 1; page <= maxPages && len(questions) < limit; page++ {
		values.Set("page", strconv.Itoa(page))
		body, err := sources.Get(ctx, a.client, a.logger, baseURL+"/search/advanced?"+values.Encode())
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("stack exchange search failed: %w", err)
			}
			a.logger.WithError(err).Warn("Stack Exchange pagination stopped early")
			break
		}

		rows, hasMore, err := parseResponse(body)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if len(questions) >= limit {
				break
			}
			questions = append(questions, row)
		}
		if !hasMore {
			break
		}
	}

	return questions, nil
}

type apiResponse struct {
	Items   []apiQuestion `json:"items"`
	HasMore bool          `json:"has_more"`
}

type apiQuestion struct {
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	CreationDate int64    `json:"creation_date"`
	Score        int      `json:"score"`
	ViewCount    int      `json:"view_count"`
	AnswerCount  int      `json:"answer_count"`
	Link         string   `json:"link"`
	Tags         []string `json:"tags"`
	IsAnswered   bool     `json:"is_answered"`
	Owner        struct {
		DisplayName string `json:"display_name"`
	} `json:"owner"`
}

// parseResponse converts one API page into raw rows that keep the Stack
// Exchange field names (creation_date epoch, answer_count, link).
func parseResponse(body []byte) ([]map[string]any, bool, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, fmt.Errorf("failed to parse search response: %w", err)
	}

	rows := make([]map[string]any, 0, len(resp.Items))
	for _, item := range resp.Items {
		rows = append(rows, map[string]any{
			"title":         item.Title,
			"body":          item.Body,
			"author":        item.Owner.DisplayName,
			"creation_date": item.CreationDate,
			"score":         item.Score,
			"view_count":    item.ViewCount,
			"answer_count":  item.AnswerCount,
			"link":          item.Link,
			"tags":          item.Tags,
			"is_answered":   item.IsAnswered,
		})
	}
	return rows, resp.HasMore, nil
}
