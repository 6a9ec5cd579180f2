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

package gpu

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOwnerLookup(t *testing.T) {
	tests := []struct {
		name    string
		want    any
		wantErr bool
	}{
		{"", &PSOwnerLookup{}, false},
		{OwnerLookupPS, &PSOwnerLookup{}, false},
		{OwnerLookupGopsutil, &ProcessOwnerLookup{}, false},
		{"ldap", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewOwnerLookup(tt.name, nil)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, l)
		})
	}
}

func TestPSOwnerLookup(t *testing.T) {
	var args []string
	l := &PSOwnerLookup{Run: func(_ context.Context, name string, a ...string) ([]byte, error) {
		args = append([]string{name}, a...)
		return []byte("  1 root\n  2 alice\n\n"), nil
	}}

	out, err := l.Lookup(context.Background(), []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, "1 root\n  2 alice", out)
	assert.Equal(t, []string{"ps", "-o", "pid=,user=", "-p", "1,2"}, args)
}

func TestProcessOwnerLookup(t *testing.T) {
	l := &ProcessOwnerLookup{username: func(_ context.Context, pid int32) (string, error) {
		if pid == 2 {
			return "", errors.New("process exited")
		}
		return "user" + strconv.Itoa(int(pid)), nil
	}}

	out, err := l.Lookup(context.Background(), []int{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "1 user1\n3 user3", out)
}

func TestProcessOwnerLookupAllFail(t *testing.T) {
	l := &ProcessOwnerLookup{username: func(context.Context, int32) (string, error) {
		return "", errors.New("no such process")
	}}

	_, err := l.Lookup(context.Background(), []int{1})
	require.Error(t, err)
}

func TestProcessOwnerLookupSelf(t *testing.T) {
	l := NewProcessOwnerLookup()
	pid := os.Getpid()

	out, err := l.Lookup(context.Background(), []int{pid})
	if err != nil {
		t.Skipf("process owner not resolvable here: %v", err)
	}
	assert.True(t, strings.HasPrefix(out, strconv.Itoa(pid)+" "))
}
