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
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/defaults"
)

// URI schemes understood by New.
const (
	FileScheme      = "file://"
	GistScheme      = "gist://"
	ConfigMapScheme = "cm://"
)

// ErrNotFound is matched by errors returned from Fetch when no snapshot has
// been published for the host.
var ErrNotFound = stderrors.New("snapshot not found")

// Transport publishes and fetches per-host snapshot content.
type Transport interface {
	// Publish replaces the host's snapshot with content.
	Publish(ctx context.Context, host string, content []byte) error
	// Fetch returns the host's latest complete snapshot.
	Fetch(ctx context.Context, host string) ([]byte, error)
	// Name identifies the transport in logs and metrics.
	Name() string
}

// BatchPublisher is implemented by transports that can publish several hosts
// in one call.
type BatchPublisher interface {
	PublishAll(ctx context.Context, contents map[string][]byte) error
}

// Options carry the settings shared by transport constructors.
type Options struct {
	// LocalHost and LocalPath redirect the file transport for the local host.
	LocalHost string
	LocalPath string

	// GitHubToken authenticates gist publishes. Fetches are anonymous.
	GitHubToken string
	// GistAPIURL and GistRawURL override the GitHub endpoints.
	GistAPIURL string
	GistRawURL string

	// Kubeconfig selects the cluster for the ConfigMap transport.
	Kubeconfig string

	// HTTPTimeout bounds each remote request.
	HTTPTimeout time.Duration
	// RetryMaxElapsed bounds all publish retries. Zero uses the default.
	RetryMaxElapsed time.Duration
}

// New returns the transport for uri.
func New(uri string, opts Options) (Transport, error) {
	uri = strings.TrimSpace(uri)
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = defaults.HTTPClientTimeout
	}
	if opts.RetryMaxElapsed <= 0 {
		opts.RetryMaxElapsed = defaults.PublishMaxElapsed
	}

	switch {
	case uri == "":
		return nil, fmt.Errorf("transport URI is empty")
	case strings.HasPrefix(uri, GistScheme):
		id, err := parseGistURI(uri)
		if err != nil {
			return nil, err
		}
		return NewGistTransport(id, opts), nil
	case strings.HasPrefix(uri, ConfigMapScheme):
		namespace, name, err := parseConfigMapURI(uri)
		if err != nil {
			return nil, err
		}
		return NewConfigMapTransportFromKubeconfig(namespace, name, opts.Kubeconfig)
	case strings.HasPrefix(uri, FileScheme):
		path, err := parseFileURI(uri)
		if err != nil {
			return nil, err
		}
		return NewFileTransport(path, opts), nil
	case strings.Contains(uri, "://"):
		return nil, fmt.Errorf("unsupported transport URI %q", uri)
	default:
		return NewFileTransport(uri, opts), nil
	}
}

// ShortHost returns the text before the first dot.
func ShortHost(host string) string {
	if i := strings.IndexByte(host, '.'); i > 0 {
		return host[:i]
	}
	return host
}

// FilePath returns the path template of uri when it selects the file
// transport.
func FilePath(uri string) (string, bool) {
	uri = strings.TrimSpace(uri)
	switch {
	case uri == "":
		return "", false
	case strings.HasPrefix(uri, FileScheme):
		path, err := parseFileURI(uri)
		return path, err == nil
	case strings.Contains(uri, "://"):
		return "", false
	default:
		return uri, true
	}
}

// parseFileURI accepts file:///abs/path and file://relative/path. The path
// is not URL-decoded so {host} templates survive.
func parseFileURI(uri string) (string, error) {
	path := strings.TrimPrefix(uri, FileScheme)
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("invalid file URI %q: path is empty", uri)
	}
	return path, nil
}

func parseGistURI(uri string) (string, error) {
	id := strings.Trim(strings.TrimPrefix(uri, GistScheme), "/ ")
	if id == "" {
		return "", fmt.Errorf("invalid gist URI %q: expected %s<gist-id>", uri, GistScheme)
	}
	if strings.Contains(id, "/") {
		return "", fmt.Errorf("invalid gist URI %q: gist id must not contain '/'", uri)
	}
	return id, nil
}

// parseConfigMapURI parses cm://namespace/name.
func parseConfigMapURI(uri string) (namespace, name string, err error) {
	path := strings.TrimPrefix(uri, ConfigMapScheme)

	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid ConfigMap URI format: expected %snamespace/name, got %s", ConfigMapScheme, uri)
	}

	namespace = strings.TrimSpace(parts[0])
	name = strings.TrimSpace(parts[1])

	if namespace == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: namespace cannot be empty")
	}
	if name == "" {
		return "", "", fmt.Errorf("invalid ConfigMap URI: name cannot be empty")
	}
	return namespace, name, nil
}

// contentKey is the per-host entry name used by the gist and ConfigMap
// transports.
func contentKey(host string) string {
	return host + ".json"
}
