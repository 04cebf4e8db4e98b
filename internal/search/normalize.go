package search

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/sirupsen/logrus"
)

// Candidate raw field names for each canonical field, in priority order. The
// first present, non-nil raw value wins.
var (
	titleFields    = []string{"title", "subject", "name", "question_title"}
	bodyFields     = []string{"body", "content", "text", "description", "question_body", "selftext"}
	authorFields   = []string{"author", "user", "username", "display_name", "owner"}
	dateFields     = []string{"created_utc", "created_at", "date", "timestamp", "creation_date"}
	urlFields      = []string{"url", "permalink", "link", "html_url"}
	scoreFields    = []string{"score", "ups", "upvotes", "votes", "points"}
	commentsFields = []string{"num_comments", "comments", "comment_count", "answer_count"}
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
)

// Normalizer maps heterogeneous raw provider rows into canonical Records.
// It performs no I/O and holds no per-call state.
type Normalizer struct {
	logger *logrus.Logger
}

func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeRecord converts one raw provider row into a canonical Record.
// The source argument always wins over any "source" key in the raw input.
func (n *Normalizer) NormalizeRecord(raw map[string]any, source string) Record {
	rec := Record{
		Source: source,
		Tags:   []string{},
	}

	rec.Title = n.CleanText(toString(firstAvailable(raw, titleFields)))
	rec.Body = n.CleanText(toString(firstAvailable(raw, bodyFields)))
	rec.Author = toString(firstAvailable(raw, authorFields))
	rec.URL = toString(firstAvailable(raw, urlFields))
	rec.Score = toFloat(firstAvailable(raw, scoreFields))
	rec.CommentsCount = toInt(firstAvailable(raw, commentsFields))
	rec.Date = n.NormalizeDate(firstAvailable(raw, dateFields))
	rec.Tags = normalizeTags(raw["tags"])

	return rec
}

// NormalizeAll applies NormalizeRecord row-wise. An empty input yields an
// empty (non-nil) ResultSet so the canonical schema is preserved even when
// there is no data. A row whose normalization panics is skipped rather than
// aborting the table.
func (n *Normalizer) NormalizeAll(rows []map[string]any, source string) ResultSet {
	out := make(ResultSet, 0, len(rows))
	for _, row := range rows {
		rec, ok := n.normalizeSafe(row, source)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (n *Normalizer) normalizeSafe(raw map[string]any, source string) (rec Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.WithFields(logrus.Fields{
				"source": source,
				"error":  fmt.Sprint(r),
			}).Warn("Skipping record that failed normalization")
			ok = false
		}
	}()
	return n.NormalizeRecord(raw, source), true
}

// NormalizeDate converts a raw date value to a UTC timestamp. Timestamps are
// converted to UTC, numbers are read as Unix epoch seconds, and strings go
// through a best-effort parse. Failures yield nil, never an error.
func (n *Normalizer) NormalizeDate(input any) *time.Time {
	if input == nil {
		return nil
	}

	switch v := input.(type) {
	case time.Time:
		utc := v.UTC()
		return &utc
	case *time.Time:
		if v == nil {
			return nil
		}
		utc := v.UTC()
		return &utc
	case int, int32, int64, float32, float64:
		epoch := time.Unix(int64(toFloat(v)), 0).UTC()
		return &epoch
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		parsed, err := dateparse.ParseAny(v)
		if err != nil {
			n.logger.WithFields(logrus.Fields{
				"value": v,
				"error": err.Error(),
			}).Warn("Failed to parse date")
			return nil
		}
		utc := parsed.UTC()
		return &utc
	default:
		n.logger.WithField("value", fmt.Sprint(input)).Warn("Unsupported date value type")
		return nil
	}
}

// CleanText collapses whitespace runs, strips HTML tags with a tag pattern
// (not a full HTML parse) and decodes entities. Empty input yields "".
func (n *Normalizer) CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = htmlTagRe.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	return strings.TrimSpace(text)
}

// firstAvailable returns the first present, non-nil value among the
// candidate field names.
func firstAvailable(raw map[string]any, fields []string) any {
	for _, field := range fields {
		if value, ok := raw[field]; ok && value != nil {
			return value
		}
	}
	return nil
}

func normalizeTags(raw any) []string {
	switch v := raw.(type) {
	case []string:
		tags := make([]string, len(v))
		copy(tags, v)
		return tags
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	case string:
		tags := []string{}
		for _, piece := range strings.Split(v, ",") {
			if piece = strings.TrimSpace(piece); piece != "" {
				tags = append(tags, piece)
			}
		}
		return tags
	default:
		return []string{}
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed
		}
		return 0
	default:
		return 0
	}
}

func toInt(value any) int {
	return int(toFloat(value))
}
