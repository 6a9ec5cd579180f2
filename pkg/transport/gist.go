// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/defaults"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/errors"
)

const (
	// DefaultGistAPIURL is the GitHub REST endpoint used for updates.
	DefaultGistAPIURL = "https://api.github.com"
	// DefaultGistRawURL serves raw gist file content without authentication.
	DefaultGistRawURL = "https://gist.githubusercontent.com"

	gistDescription = "GPU Monitor Status Data"
)

// GistTransport keeps every host's snapshot as a file in one GitHub Gist.
type GistTransport struct {
	id         string
	token      string
	apiURL     string
	rawURL     string
	api        *resty.Client
	raw        *resty.Client
	maxElapsed time.Duration
}

// NewGistTransport returns a transport for the gist id.
func NewGistTransport(id string, opts Options) *GistTransport {
	apiURL := opts.GistAPIURL
	if apiURL == "" {
		apiURL = DefaultGistAPIURL
	}
	rawURL := opts.GistRawURL
	if rawURL == "" {
		rawURL = DefaultGistRawURL
	}
	timeout := opts.HTTPTimeout
	if timeout <= 0 {
		timeout = defaults.HTTPClientTimeout
	}
	maxElapsed := opts.RetryMaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = defaults.PublishMaxElapsed
	}

	api := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/vnd.github.v3+json").
		SetHeader("User-Agent", "gpumon")
	if opts.GitHubToken != "" {
		api.SetHeader("Authorization", "token "+opts.GitHubToken)
	}

	raw := resty.New().
		SetTimeout(timeout).
		SetHeader("Cache-Control", "no-cache").
		SetHeader("User-Agent", "gpumon")

	return &GistTransport{
		id:         id,
		token:      opts.GitHubToken,
		apiURL:     strings.TrimSuffix(apiURL, "/"),
		rawURL:     strings.TrimSuffix(rawURL, "/"),
		api:        api,
		raw:        raw,
		maxElapsed: maxElapsed,
	}
}

// Name implements Transport.
func (t *GistTransport) Name() string { return "gist" }

// ID returns the gist id.
func (t *GistTransport) ID() string { return t.id }

type gistFile struct {
	Content string `json:"content"`
}

type gistRequest struct {
	Description string              `json:"description,omitempty"`
	Public      *bool               `json:"public,omitempty"`
	Files       map[string]gistFile `json:"files"`
}

func gistFiles(contents map[string][]byte) map[string]gistFile {
	files := make(map[string]gistFile, len(contents))
	for host, c := range contents {
		files[contentKey(host)] = gistFile{Content: string(c)}
	}
	return files
}

// Publish implements Transport by updating the host's file in the gist.
func (t *GistTransport) Publish(ctx context.Context, host string, content []byte) error {
	return t.PublishAll(ctx, map[string][]byte{host: content})
}

// PublishAll implements BatchPublisher: one PATCH updates every host file.
// Network errors, 5xx and 429 responses are retried with exponential
// backoff; any other non-200 status fails immediately.
func (t *GistTransport) PublishAll(ctx context.Context, contents map[string][]byte) error {
	if len(contents) == 0 {
		return nil
	}
	if t.token == "" {
		return errors.New(errors.ErrCodeUnauthorized, "github token is required to publish to a gist")
	}

	body := gistRequest{Files: gistFiles(contents)}
	url := fmt.Sprintf("%s/gists/%s", t.apiURL, t.id)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaults.PublishInitialBackoff
	b.MaxInterval = defaults.PublishMaxBackoff
	b.MaxElapsedTime = t.maxElapsed

	attempt := 0
	operation := func() error {
		attempt++
		resp, err := t.api.R().
			SetContext(ctx).
			SetBody(body).
			Patch(url)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			slog.Debug("gist update attempt failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
			return err
		}
		if resp.StatusCode() == http.StatusOK {
			return nil
		}

		statusErr := fmt.Errorf("gist update failed: %s: %s", resp.Status(), truncate(resp.String(), 200))
		if retryable(resp.StatusCode()) {
			slog.Debug("gist update attempt rejected", slog.Int("attempt", attempt), slog.Int("status", resp.StatusCode()))
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return errors.WrapWithContext(errors.ErrCodePublishFailed, "failed to update gist", err,
			map[string]any{"gist": t.id, "files": len(contents), "attempts": attempt})
	}
	return nil
}

// Fetch implements Transport with an anonymous raw-content GET.
func (t *GistTransport) Fetch(ctx context.Context, host string) ([]byte, error) {
	url := fmt.Sprintf("%s/raw/%s/%s", t.rawURL, t.id, contentKey(host))

	resp, err := t.raw.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", contentKey(host), err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return resp.Body(), nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("gist file %s: %w", contentKey(host), ErrNotFound)
	default:
		return nil, errors.NewWithContext(errors.ErrCodeFetchFailed,
			fmt.Sprintf("Gist fetch failed: %d", resp.StatusCode()),
			map[string]any{"gist": t.id, "host": host})
	}
}

// Create makes a new public gist seeded with one host file and returns its id.
func (t *GistTransport) Create(ctx context.Context, host string, content []byte) (string, error) {
	if t.token == "" {
		return "", errors.New(errors.ErrCodeUnauthorized, "github token is required to create a gist")
	}

	public := true
	body := gistRequest{
		Description: gistDescription,
		Public:      &public,
		Files:       gistFiles(map[string][]byte{host: content}),
	}

	resp, err := t.api.R().
		SetContext(ctx).
		SetBody(body).
		Post(t.apiURL + "/gists")
	if err != nil {
		return "", fmt.Errorf("failed to create gist: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("gist creation failed: %s: %s", resp.Status(), truncate(resp.String(), 200))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		return "", fmt.Errorf("failed to parse gist creation response: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("gist creation response has no id")
	}
	t.id = created.ID
	return created.ID, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
