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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTransportPath(t *testing.T) {
	ft := NewFileTransport("/export/{host}/monitor/status.json", Options{
		LocalHost: "zxcpu1.cse",
		LocalPath: "status.json",
	})

	tests := []struct {
		host string
		want string
	}{
		{"zxcpu1", "status.json"},
		{"zxcpu1.cse", "status.json"},
		{"localhost", "status.json"},
		{"zxcpu3", "/export/zxcpu3/monitor/status.json"},
		{"zxcpu3.cse", "/export/zxcpu3/monitor/status.json"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, ft.Path(tt.host))
		})
	}
}

func TestFileTransportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ft := NewFileTransport(filepath.Join(dir, "{host}", "status.json"), Options{})
	ctx := context.Background()

	_, err := ft.Fetch(ctx, "zxcpu1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "file not found")

	require.NoError(t, ft.Publish(ctx, "zxcpu1", []byte(`{"v":1}`)))
	got, err := ft.Fetch(ctx, "zxcpu1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(got))

	// identical content twice is the same state as once
	require.NoError(t, ft.Publish(ctx, "zxcpu1", []byte(`{"v":2}`)))
	require.NoError(t, ft.Publish(ctx, "zxcpu1", []byte(`{"v":2}`)))
	got, err = ft.Fetch(ctx, "zxcpu1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(got))

	entries, err := os.ReadDir(filepath.Join(dir, "zxcpu1"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
	assert.Equal(t, "status.json", entries[0].Name())

	info, err := os.Stat(filepath.Join(dir, "zxcpu1", "status.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFileTransportConcurrentReaders(t *testing.T) {
	dir := t.TempDir()
	ft := NewFileTransport(filepath.Join(dir, "status.json"), Options{})
	ctx := context.Background()

	a := []byte(strings.Repeat("a", 64*1024))
	b := []byte(strings.Repeat("b", 64*1024))
	require.NoError(t, ft.Publish(ctx, "h", a))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan string, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			got, err := ft.Fetch(ctx, "h")
			if err != nil {
				continue
			}
			if string(got) != string(a) && string(got) != string(b) {
				select {
				case errs <- "reader observed a partial snapshot":
				default:
				}
				return
			}
		}
	}()

	for i := 0; i < 50; i++ {
		content := a
		if i%2 == 0 {
			content = b
		}
		require.NoError(t, ft.Publish(ctx, "h", content))
	}
	close(stop)
	wg.Wait()

	select {
	case msg := <-errs:
		t.Fatal(msg)
	default:
	}
}

func TestFileTransportPublishError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	ft := NewFileTransport(filepath.Join(blocker, "status.json"), Options{})
	err := ft.Publish(context.Background(), "h", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUBLISH_FAILED")
}

func TestFileTransportCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ft := NewFileTransport(filepath.Join(t.TempDir(), "s.json"), Options{})
	assert.ErrorIs(t, ft.Publish(ctx, "h", []byte("x")), context.Canceled)
	_, err := ft.Fetch(ctx, "h")
	assert.ErrorIs(t, err, context.Canceled)
}
