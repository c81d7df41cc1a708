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

package operation

import (
	"encoding/json"
	"time"
)

// FatalSuffix is appended to the operation name on fatal logs.
const FatalSuffix = " (FATAL ERROR)"

// 📝 Entry records the outcome for one item in one context.
type Entry struct {
	Item    string
	Context string
	Message string
	Err     error
}

func (e Entry) Failed() bool {
	return e.Err != nil
}

type entryJSON struct {
	Item    string `json:"item"`
	Context string `json:"context"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{Item: e.Item, Context: e.Context, Message: e.Message}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	return json.Marshal(out)
}

// 📋 Log is the record of one operation. Logs returned by the processor are
// final and must not be modified.
type Log struct {
	Operation string        `json:"operation"`
	Entries   []Entry       `json:"entries"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Fatal     bool          `json:"fatal,omitempty"`
}

func NewLog(operation string) *Log {
	return &Log{Operation: operation}
}

// Success records an item that went through.
func (l *Log) Success(item, message string) {
	l.Entries = append(l.Entries, Entry{Item: item, Message: message})
}

// Fail records an item that did not.
func (l *Log) Fail(item string, err error) {
	l.Entries = append(l.Entries, Entry{Item: item, Err: err})
}

func (l *Log) Successes() int {
	n := 0
	for _, e := range l.Entries {
		if !e.Failed() {
			n++
		}
	}
	return n
}

func (l *Log) Failures() int {
	return len(l.Entries) - l.Successes()
}

func (l *Log) ElapsedMilliseconds() int64 {
	return l.Elapsed.Milliseconds()
}

// tag stamps entries that do not carry a context yet.
func (l *Log) tag(context string) {
	for i := range l.Entries {
		if l.Entries[i].Context == "" {
			l.Entries[i].Context = context
		}
	}
}

func fatalLog(op Operation, context string, err error, elapsed time.Duration) *Log {
	return &Log{
		Operation: op.Name() + FatalSuffix,
		Entries:   []Entry{{Item: op.Name(), Context: context, Err: err}},
		Elapsed:   elapsed,
		Fatal:     true,
	}
}
