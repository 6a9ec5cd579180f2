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
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/gpu-cluster-monitor/pkg/errors"
)

// HostPlaceholder is replaced by the short hostname in file path templates.
const HostPlaceholder = "{host}"

// FileTransport stores one file per host on a local or shared filesystem.
type FileTransport struct {
	template  string
	localHost string
	localPath string
}

// NewFileTransport returns a file transport for the path template.
func NewFileTransport(template string, opts Options) *FileTransport {
	return &FileTransport{
		template:  template,
		localHost: opts.LocalHost,
		localPath: opts.LocalPath,
	}
}

// Name implements Transport.
func (t *FileTransport) Name() string { return "file" }

// Path returns the file used for host.
func (t *FileTransport) Path(host string) string {
	if t.localPath != "" && t.isLocal(host) {
		return t.localPath
	}
	return strings.ReplaceAll(t.template, HostPlaceholder, ShortHost(host))
}

func (t *FileTransport) isLocal(host string) bool {
	if host == "localhost" {
		return true
	}
	if t.localHost == "" {
		return false
	}
	return host == t.localHost || ShortHost(host) == ShortHost(t.localHost)
}

// Publish writes content to a temporary file in the target directory,
// syncs it, and renames it over the published file.
func (t *FileTransport) Publish(ctx context.Context, host string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := t.Path(host)
	if err := writeAtomic(path, content); err != nil {
		return errors.WrapWithContext(errors.ErrCodePublishFailed, "failed to write snapshot file", err,
			map[string]any{"path": path, "host": host})
	}
	slog.Debug("snapshot file written", slog.String("host", host), slog.String("path", path))
	return nil
}

// Fetch reads the host's file.
func (t *FileTransport) Fetch(ctx context.Context, host string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := t.Path(host)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return b, nil
}

func writeAtomic(path string, content []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), fs.FileMode(0o644)); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
