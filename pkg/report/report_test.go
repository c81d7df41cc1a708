// Copyright 2025 walteh LLC
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

package report_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/variantrc/pkg/operation"
	"github.com/walteh/variantrc/pkg/report"
	"gitlab.com/tozd/go/errors"
)

func plain(t *testing.T) {
	t.Helper()
	color.NoColor = true
	pterm.DisableStyling()
	t.Cleanup(pterm.EnableStyling)
}

func sampleResult() *operation.Result {
	clean := operation.NewLog("Purge Parameters")
	clean.Success("Width", "deleted")
	clean.Success("Height", "deleted")
	clean.Elapsed = 12 * time.Millisecond

	mixed := operation.NewLog("Set Values")
	mixed.Success("Depth", "set to 10")
	mixed.Fail("Color", errors.New("read-only"))
	mixed.Entries[1].Context = "Large"
	mixed.Elapsed = 40 * time.Millisecond

	fatal := operation.NewLog("Map Parameters (FATAL ERROR)")
	fatal.Fatal = true
	fatal.Fail("Map Parameters", errors.New("boom"))

	return &operation.Result{
		RunID:     "run-1",
		Mode:      operation.ModePerBatch,
		Logs:      []*operation.Log{clean, mixed, fatal},
		Fatal:     []*operation.Log{fatal},
		Rollbacks: 1,
		Elapsed:   60 * time.Millisecond,
	}
}

func TestFormatLog(t *testing.T) {
	plain(t)
	res := sampleResult()

	tests := []struct {
		name string
		log  *operation.Log
		want []string
	}{
		{name: "clean", log: res.Logs[0], want: []string{"✓", "Purge Parameters", "2 ok", "0 failed", "12ms"}},
		{name: "with_failures", log: res.Logs[1], want: []string{"✗", "Set Values", "1 ok", "1 failed", "40ms"}},
		{name: "fatal", log: res.Logs[2], want: []string{"‼", "Map Parameters (FATAL ERROR)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := report.FormatLog(tt.log)
			for _, w := range tt.want {
				assert.Contains(t, line, w)
			}
		})
	}
}

func TestConsoleLogs(t *testing.T) {
	plain(t)
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

	var buf bytes.Buffer
	report.New(&buf).Logs(ctx, sampleResult().Logs)

	out := buf.String()
	assert.Contains(t, out, "    Large")
	assert.Contains(t, out, "Color read-only")
	assert.NotContains(t, out, "Width", "successful entries are not listed")
}

func TestSummary(t *testing.T) {
	plain(t)

	var buf bytes.Buffer
	require.NoError(t, report.New(&buf).Summary(sampleResult()))

	out := buf.String()
	for _, w := range []string{"Operation", "Purge Parameters", "Set Values", "run run-1", "3 ok", "2 failed", "1 fatal", "1 rolled back"} {
		assert.Contains(t, out, w)
	}
	assert.Contains(t, out, "ERROR")
}

func TestSummaryClean(t *testing.T) {
	plain(t)
	res := sampleResult()
	res.Logs = res.Logs[:1]
	res.Fatal = nil
	res.Rollbacks = 0

	var buf bytes.Buffer
	require.NoError(t, report.New(&buf).Summary(res))
	assert.Contains(t, buf.String(), "SUCCESS")
}

func TestMetadata(t *testing.T) {
	plain(t)
	meta := []operation.Metadata{
		{Name: "purge_parameters", Description: "delete unused parameters", Scope: operation.ScopeDocument, Batch: 0},
		{Name: "set_values", Description: "assign values", Scope: operation.ScopeVariant, Batch: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, report.New(&buf).Metadata(meta))

	out := buf.String()
	for _, w := range []string{"Batch", "document", "variant", "purge_parameters", "assign values"} {
		assert.Contains(t, out, w)
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.JSON(&buf, sampleResult()))

	var got struct {
		RunID     string `json:"run_id"`
		Mode      string `json:"mode"`
		ElapsedMS int64  `json:"elapsed_ms"`
		Fatal     int    `json:"fatal"`
		Rollbacks int    `json:"rollbacks"`
		Logs      []struct {
			Operation string `json:"operation"`
			Fatal     bool   `json:"fatal"`
			Successes int    `json:"successes"`
			Failures  int    `json:"failures"`
			Entries   []struct {
				Item  string `json:"item"`
				Error string `json:"error"`
			} `json:"entries"`
		} `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "per-batch", got.Mode)
	assert.Equal(t, int64(60), got.ElapsedMS)
	assert.Equal(t, 1, got.Fatal)
	assert.Equal(t, 1, got.Rollbacks)
	require.Len(t, got.Logs, 3)
	assert.Equal(t, 1, got.Logs[1].Failures)
	assert.Equal(t, "read-only", got.Logs[1].Entries[1].Error)
	assert.True(t, got.Logs[2].Fatal)
}
