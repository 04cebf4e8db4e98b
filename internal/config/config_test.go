package config

import (
	"io"
	"os"
	"path/filepath"
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

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), testLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"ksenukai", "stokker"}, cfg.Sites.SupplierSites)
	assert.Empty(t, cfg.Sites.ForumURLs)
	assert.Empty(t, cfg.Sites.NewsFeeds)
	assert.Equal(t, "Reddit", cfg.SourceNames["reddit"])
	assert.Contains(t, cfg.SourceNames, "suppliers")
}

func TestLoadYAMLOverridesSites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildscout.yaml")
	yaml := `forum_urls:
  - https://forum.example.lv
news_feeds:
  - https://news.example.lv/rss
supplier_sites:
  - stokker
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path, testLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"https://forum.example.lv"}, cfg.Sites.ForumURLs)
	assert.Equal(t, []string{"https://news.example.lv/rss"}, cfg.Sites.NewsFeeds)
	assert.Equal(t, []string{"stokker"}, cfg.Sites.SupplierSites)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buildscout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("forum_urls: [unclosed"), 0o600))

	_, err := Load(path, testLogger())
	assert.Error(t, err)
}

func TestLoadReadsCredentialEnvVars(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("REDDIT_CLIENT_ID", "abc")
	t.Setenv("REDDIT_USER_AGENT", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), testLogger())
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", cfg.Credentials.GitHubToken)
	assert.Equal(t, "abc", cfg.Credentials.RedditClientID)
	assert.Equal(t, "buildscout/1.0", cfg.Credentials.RedditUserAgent)
}
