package github

import (
	"testing"

	"golang.org/x/time/rate"
)

func TestRepositoryFromURL(t *testing.T) {
	got := repositoryFromURL("https://api.github.com/repos/someorg/roofcalc")
	if got != "someorg/roofcalc" {
		t.Errorf("unexpected repository: %q", got)
	}
}

func TestValidateConfig(t *testing.T) {
	if New("", nil).ValidateConfig() {
		t.Error("adapter without token should not validate")
	}
	if !New("ghp_test", nil).ValidateConfig() {
		t.Error("adapter with token should validate")
	}
}

func TestNewRateLimiterEnvOverride(t *testing.T) {
	t.Setenv(GitHubSearchAPIRateLimitEnvVar, "10")
	limiter := newRateLimiter(GitHubSearchAPIRateLimitEnvVar, DefaultSearchAPIRateLimit)
	if limiter.Limit() != 10.0/60 {
		t.Errorf("unexpected limit: %v", limiter.Limit())
	}

	t.Setenv(GitHubSearchAPIRateLimitEnvVar, "not a number")
	limiter = newRateLimiter(GitHubSearchAPIRateLimitEnvVar, DefaultSearchAPIRateLimit)
	if limiter.Limit() != rate.Limit(DefaultSearchAPIRateLimit)/60 {
		t.Errorf("invalid env value should fall back to default, got %v", limiter.Limit())
	}
}
