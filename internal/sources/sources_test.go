package sources

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestParamsString(t *testing.T) {
	p := Params{"sort": "new", "empty": ""}
	assert.Equal(t, "new", p.String("sort", "relevance"))
	assert.Equal(t, "relevance", p.String("missing", "relevance"))
	assert.Equal(t, "relevance", p.String("empty", "relevance"))
}

func TestParamsInt(t *testing.T) {
	p := Params{"a": 3, "b": int64(4), "c": float64(5), "d": "nope"}
	assert.Equal(t, 3, p.Int("a", 0))
	assert.Equal(t, 4, p.Int("b", 0))
	assert.Equal(t, 5, p.Int("c", 0))
	assert.Equal(t, 9, p.Int("d", 9))
	assert.Equal(t, 9, p.Int("missing", 9))
}

func TestParamsStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Params{"k": []string{"a", "b"}}.StringSlice("k"))
	assert.Equal(t, []string{"a", "7"}, Params{"k": []any{"a", 7}}.StringSlice("k"))
	assert.Equal(t, []string{"a", "b"}, Params{"k": "a, b ,"}.StringSlice("k"))
	assert.Nil(t, Params{}.StringSlice("k"))

	// Mutating the returned copy must not touch the original.
	original := []string{"a", "b"}
	got := Params{"k": original}.StringSlice("k")
	got[0] = "changed"
	assert.Equal(t, "a", original[0])
}

func TestGetSetsHeadersAndReturnsBody(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	body, err := Get(context.Background(), srv.Client(), testLogger(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, UserAgent, gotUA)
}

func TestGetDecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, _ = zw.Write([]byte("compressed payload"))
		_ = zw.Close()
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	body, err := Get(context.Background(), srv.Client(), testLogger(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "compressed payload", string(body))
}

func TestGetStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	_, err := Get(context.Background(), srv.Client(), testLogger(), srv.URL+"/limited")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")

	_, err = Get(context.Background(), srv.Client(), testLogger(), srv.URL+"/boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1 id="x">Roofing</h1></body></html>`))
	}))
	defer srv.Close()

	doc, err := GetDocument(context.Background(), srv.Client(), testLogger(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Roofing", strings.TrimSpace(doc.Find("#x").Text()))
}

func TestRateLimitedClientHonoursContextCancellation(t *testing.T) {
	client := NewRateLimitedHTTPClient()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://127.0.0.1:0/", nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	require.Error(t, err)
}
