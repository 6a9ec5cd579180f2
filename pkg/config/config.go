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

package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/collector/gpu"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/defaults"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/errors"
	"github.com/NVIDIA/gpu-cluster-monitor/pkg/transport"
)

const (
	// EnvPrefix is prepended to every environment variable.
	EnvPrefix = "GPUMON"

	fileName = "gpumon"
	fileType = "yaml"
)

// Keys as they appear in the config file; flags use the dashed form.
const (
	KeyHosts           = "hosts"
	KeyHostname        = "hostname"
	KeyTransport       = "transport"
	KeyLocalPath       = "local_path"
	KeyRelaySink       = "relay_sink"
	KeyGitHubToken     = "github_token"
	KeyKubeconfig      = "kubeconfig"
	KeyInterval        = "interval"
	KeyRelayInterval   = "relay_interval"
	KeyRefreshInterval = "refresh_interval"
	KeyFetchTimeout    = "fetch_timeout"
	KeyQueryTimeout    = "query_timeout"
	KeyStaleAfter      = "stale_after"
	KeyOwnerLookup     = "owner_lookup"
	KeyListen          = "listen"
	KeyLogLevel        = "log_level"
)

// DefaultTransport reads each host from its own export on the shared mount.
const DefaultTransport = transport.FileScheme + "/export/" + transport.HostPlaceholder + "/monitor/status.json"

// DefaultHosts is the host list used when none is configured.
var DefaultHosts = []string{"zxcpu1", "zxcpu2", "zxcpu3", "zxcpu4", "zxcpu5"}

// Config holds all runtime configuration.
type Config struct {
	Hosts    []string `mapstructure:"hosts" yaml:"hosts"`
	Hostname string   `mapstructure:"hostname" yaml:"hostname"`

	Transport   string `mapstructure:"transport" yaml:"transport"`
	LocalPath   string `mapstructure:"local_path" yaml:"local_path"`
	RelaySink   string `mapstructure:"relay_sink" yaml:"relay_sink"`
	GitHubToken string `mapstructure:"github_token" yaml:"-"`
	Kubeconfig  string `mapstructure:"kubeconfig" yaml:"kubeconfig"`

	Interval        time.Duration `mapstructure:"interval" yaml:"interval"`
	RelayInterval   time.Duration `mapstructure:"relay_interval" yaml:"relay_interval"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" yaml:"refresh_interval"`
	FetchTimeout    time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
	StaleAfter      time.Duration `mapstructure:"stale_after" yaml:"stale_after"`

	OwnerLookup string `mapstructure:"owner_lookup" yaml:"owner_lookup"`
	Listen      string `mapstructure:"listen" yaml:"listen"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyHosts, DefaultHosts)
	v.SetDefault(KeyHostname, "")
	v.SetDefault(KeyTransport, DefaultTransport)
	v.SetDefault(KeyLocalPath, "status.json")
	v.SetDefault(KeyRelaySink, "")
	v.SetDefault(KeyGitHubToken, "")
	v.SetDefault(KeyKubeconfig, "")
	v.SetDefault(KeyInterval, defaults.CollectInterval)
	v.SetDefault(KeyRelayInterval, defaults.RelayInterval)
	v.SetDefault(KeyRefreshInterval, defaults.RefreshInterval)
	v.SetDefault(KeyFetchTimeout, defaults.FetchTimeout)
	v.SetDefault(KeyQueryTimeout, defaults.QueryTimeout)
	v.SetDefault(KeyStaleAfter, defaults.StaleAfter)
	v.SetDefault(KeyOwnerLookup, gpu.OwnerLookupPS)
	v.SetDefault(KeyListen, ":8080")
	v.SetDefault(KeyLogLevel, "info")
}

// Load resolves the configuration. file may be empty to search the default
// locations; a missing default file is not an error, a missing explicit
// file is. overrides holds explicitly set flag values keyed by config key.
func Load(file string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType(fileType)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.gpumon")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !stderrors.As(err, &notFound) {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "reading config file", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(KeyGitHubToken, EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("binding %s: %w", KeyGitHubToken, err)
	}

	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "unmarshaling config", err)
	}
	cfg.normalize()
	if cfg.Hostname == "" {
		if h, err := os.Hostname(); err == nil {
			cfg.Hostname = h
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	hosts := make([]string, 0, len(c.Hosts))
	for _, h := range c.Hosts {
		// env values arrive as one comma-separated string
		for _, part := range strings.Split(h, ",") {
			if p := strings.TrimSpace(part); p != "" {
				hosts = append(hosts, p)
			}
		}
	}
	c.Hosts = hosts
	c.Transport = strings.TrimSpace(c.Transport)
	c.RelaySink = strings.TrimSpace(c.RelaySink)
	c.OwnerLookup = strings.ToLower(strings.TrimSpace(c.OwnerLookup))
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(key string, value any, reason string) error {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid %s: %s", key, reason), map[string]any{"key": key, "value": value})
	}

	if len(c.Hosts) == 0 {
		return invalid(KeyHosts, c.Hosts, "at least one host is required")
	}
	seen := make(map[string]bool, len(c.Hosts))
	for _, h := range c.Hosts {
		if seen[h] {
			return invalid(KeyHosts, h, "duplicate host")
		}
		seen[h] = true
	}
	if c.Transport == "" {
		return invalid(KeyTransport, c.Transport, "must not be empty")
	}
	// one file shared by several hosts would show the same snapshot for all
	for _, u := range []struct{ key, uri string }{{KeyTransport, c.Transport}, {KeyRelaySink, c.RelaySink}} {
		path, ok := transport.FilePath(u.uri)
		if ok && len(c.Hosts) > 1 && !strings.Contains(path, transport.HostPlaceholder) {
			return invalid(u.key, u.uri, "file path needs a "+transport.HostPlaceholder+" placeholder when more than one host is configured")
		}
	}

	durations := []struct {
		key string
		d   time.Duration
	}{
		{KeyInterval, c.Interval},
		{KeyRelayInterval, c.RelayInterval},
		{KeyRefreshInterval, c.RefreshInterval},
		{KeyFetchTimeout, c.FetchTimeout},
		{KeyQueryTimeout, c.QueryTimeout},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return invalid(d.key, d.d.String(), "must be positive")
		}
	}
	if c.StaleAfter < 0 {
		return invalid(KeyStaleAfter, c.StaleAfter.String(), "must not be negative")
	}

	switch c.OwnerLookup {
	case gpu.OwnerLookupPS, gpu.OwnerLookupGopsutil:
	default:
		return invalid(KeyOwnerLookup, c.OwnerLookup, "must be ps or gopsutil")
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid(KeyLogLevel, c.LogLevel, "must be debug, info, warn or error")
	}
	return nil
}

// TransportOptions returns the options for transport.New.
func (c *Config) TransportOptions() transport.Options {
	return transport.Options{
		LocalHost:   c.Hostname,
		LocalPath:   c.LocalPath,
		GitHubToken: c.GitHubToken,
		Kubeconfig:  c.Kubeconfig,
		HTTPTimeout: c.FetchTimeout,
	}
}
