// Copyright 2025 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package log

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

func TestFormatWithContextTags(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, "hello 3", FormatWithContextTags(ctx, "hello %d", 3))

	ctx = logtags.AddTag(ctx, "opt", 7)
	ctx = logtags.AddTag(ctx, "explore", nil)
	require.Equal(t, "[opt=7,explore] set G2 merged", FormatWithContextTags(ctx, "set %s merged", "G2"))

	// Safe values and unsafe values both render as plain text.
	require.Equal(t, "[opt=7,explore] a b",
		FormatWithContextTags(ctx, "%s %s", redact.Safe("a"), "b"))
}

func TestOutput(t *testing.T) {
	var buf bytes.Buffer
	defer SetOutput(&buf)()
	defer func(now func() time.Time) { mainLog.now = now }(mainLog.now)
	mainLog.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	ctx := logtags.AddTag(context.Background(), "opt", 1)
	Infof(ctx, "fired %s", "rule")
	Warningf(ctx, "budget exhausted")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "I250304 05:06:07.000000 log_test.go:"), lines[0])
	require.True(t, strings.HasSuffix(lines[0], "[opt=1] fired rule"), lines[0])
	require.True(t, strings.HasPrefix(lines[1], "W250304"), lines[1])
}

func TestVerbosity(t *testing.T) {
	var buf bytes.Buffer
	defer SetOutput(&buf)()
	defer SetVerbosity(0)

	ctx := context.Background()
	VEventf(ctx, 2, "hidden")
	require.Empty(t, buf.String())

	SetVerbosity(2)
	require.True(t, V(1))
	VEventf(ctx, 2, "shown")
	require.Contains(t, buf.String(), "shown")
}

func TestEveryN(t *testing.T) {
	defer func(now func() time.Time) { mainLog.now = now }(mainLog.now)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := start
	mainLog.now = func() time.Time { return cur }

	every := Every(time.Minute)
	require.True(t, every.ShouldLog())
	require.False(t, every.ShouldLog())
	cur = start.Add(time.Minute)
	require.True(t, every.ShouldLog())
}
