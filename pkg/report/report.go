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

package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/variantrc/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// 🎨 Display configuration
const (
	entryIndent  = 4  // spaces to indent failed entries
	nameWidth    = 35 // width for the operation name
	countWidth   = 6  // width for success and failure counts
	contextWidth = 12 // width for the entry context
)

// 🖥️ Console renders run results for people.
type Console struct {
	out io.Writer
	mu  sync.Mutex
}

// 🏭 New creates a console writing to out
func New(out io.Writer) *Console {
	return &Console{out: out}
}

// Header prints the tool banner with a short message.
func (c *Console) Header(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("variantrc")
	fmt.Fprintf(c.out, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
}

// symbolFor picks ✓ for clean logs, ✗ for logs with failed entries and ‼ for fatal ones.
func symbolFor(l *operation.Log) string {
	switch {
	case l.Fatal:
		return color.New(color.FgRed, color.Bold).Sprint("‼")
	case l.Failures() > 0:
		return color.RedString("✗")
	default:
		return color.GreenString("✓")
	}
}

// FormatLog renders one log as a single line.
func FormatLog(l *operation.Log) string {
	return fmt.Sprintf("%s %s %s %s %s",
		symbolFor(l),
		fmt.Sprintf("%-*s", nameWidth, l.Operation),
		color.GreenString("%*d ok", countWidth, l.Successes()),
		failedCount(l.Failures()),
		color.New(color.Faint).Sprintf("%dms", l.ElapsedMilliseconds()))
}

func failedCount(n int) string {
	s := fmt.Sprintf("%*d failed", countWidth, n)
	if n == 0 {
		return color.HiBlackString(s)
	}
	return color.RedString(s)
}

// FormatEntry renders one failed entry, indented beneath its log.
func FormatEntry(e operation.Entry) string {
	return fmt.Sprintf("%s%s %s %s",
		strings.Repeat(" ", entryIndent),
		color.New(color.Faint).Sprintf("%-*s", contextWidth, e.Context),
		color.New(color.Bold).Sprint(e.Item),
		color.RedString(e.Err.Error()))
}

// Logs prints one line per log with its failed entries beneath.
func (c *Console) Logs(ctx context.Context, logs []*operation.Log) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, l := range logs {
		fmt.Fprintln(c.out, FormatLog(l))
		for _, e := range l.Entries {
			if e.Failed() {
				fmt.Fprintln(c.out, FormatEntry(e))
			}
		}
	}
	zerolog.Ctx(ctx).Debug().Int("logs", len(logs)).Msg("logs rendered")
}

// Summary prints a table of every log and a closing verdict.
func (c *Console) Summary(res *operation.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := pterm.TableData{{"Operation", "OK", "Failed", "Elapsed"}}
	ok, failed := 0, 0
	for _, l := range res.Logs {
		ok += l.Successes()
		failed += l.Failures()
		data = append(data, []string{
			l.Operation,
			strconv.Itoa(l.Successes()),
			strconv.Itoa(l.Failures()),
			fmt.Sprintf("%dms", l.ElapsedMilliseconds()),
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering summary: %w", err)
	}
	fmt.Fprintln(c.out, table)

	verdict := fmt.Sprintf("run %s: %d ok, %d failed, %d fatal, %d rolled back in %dms",
		res.RunID, ok, failed, len(res.Fatal), res.Rollbacks, res.Elapsed.Milliseconds())
	switch {
	case len(res.Fatal) > 0:
		fmt.Fprint(c.out, pterm.Error.Sprintln(verdict))
	case failed > 0:
		fmt.Fprint(c.out, pterm.Warning.Sprintln(verdict))
	default:
		fmt.Fprint(c.out, pterm.Success.Sprintln(verdict))
	}
	return nil
}

// Metadata prints the queue preview.
func (c *Console) Metadata(meta []operation.Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := pterm.TableData{{"Batch", "Scope", "Operation", "Description"}}
	for _, m := range meta {
		data = append(data, []string{strconv.Itoa(m.Batch), m.Scope.String(), m.Name, m.Description})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering metadata: %w", err)
	}
	fmt.Fprintln(c.out, table)
	return nil
}

type resultJSON struct {
	RunID     string    `json:"run_id"`
	Mode      string    `json:"mode"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Rollbacks int       `json:"rollbacks"`
	Fatal     int       `json:"fatal"`
	Logs      []logJSON `json:"logs"`
}

type logJSON struct {
	Operation string            `json:"operation"`
	Fatal     bool              `json:"fatal,omitempty"`
	ElapsedMS int64             `json:"elapsed_ms"`
	Successes int               `json:"successes"`
	Failures  int               `json:"failures"`
	Entries   []operation.Entry `json:"entries"`
}

// JSON writes the result as one indented JSON document.
func JSON(w io.Writer, res *operation.Result) error {
	out := resultJSON{
		RunID:     res.RunID,
		Mode:      res.Mode.String(),
		ElapsedMS: res.Elapsed.Milliseconds(),
		Rollbacks: res.Rollbacks,
		Fatal:     len(res.Fatal),
		Logs:      make([]logJSON, 0, len(res.Logs)),
	}
	for _, l := range res.Logs {
		out.Logs = append(out.Logs, logJSON{
			Operation: l.Operation,
			Fatal:     l.Fatal,
			ElapsedMS: l.ElapsedMilliseconds(),
			Successes: l.Successes(),
			Failures:  l.Failures(),
			Entries:   l.Entries,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Errorf("encoding result: %w", err)
	}
	return nil
}
