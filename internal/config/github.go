package config

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
)

func NewGitHubClient(httpClient *http.Client, cfg *Config) (*github.Client, error) {
	client := github.NewClient(httpClient)
	if cfg.GitHubToken != "" {
		client = client.WithAuthToken(cfg.GitHubToken)
	}

	if cfg.GitHubAPIURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.GitHubAPIURL, "/") + "/")
		if err != nil {
			return nil, err
		}
		client.BaseURL = base
	}

	return client, nil
}
