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

import "slices"

// 📦 Batch is a maximal run of same-scope operations. A variant batch is
// executed as one merged pass per variant; a document batch runs each of its
// operations once, in order, and never shares an activation between them.
//
// Consecutive document operations still form a single batch, so adjacent
// batches always differ in scope. A batch is also the unit of a per-batch
// transaction: under CommitUnlessFatal a fatal document operation rolls back
// the document operations before it in the same batch.
type Batch struct {
	Index      int
	Scope      Scope
	Operations []Operation
}

// Merged reports whether the batch shares variant activations between its operations.
func (b Batch) Merged() bool {
	return b.Scope == ScopeVariant
}

// Metadata is the read-only preview of one queued operation.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Scope       Scope  `json:"scope"`
	Batch       int    `json:"batch"`
}

// 🗂️ Queue holds enabled operations in registration order.
type Queue struct {
	ops []Operation
}

func NewQueue(ops ...Operation) *Queue {
	q := &Queue{}
	for _, op := range ops {
		q.Add(op)
	}
	return q
}

// Add registers op unless it is nil or disabled, and reports whether it was added.
func (q *Queue) Add(op Operation) bool {
	if op == nil || !op.Enabled() {
		return false
	}
	q.ops = append(q.ops, op)
	return true
}

func (q *Queue) Len() int {
	return len(q.ops)
}

func (q *Queue) Operations() []Operation {
	return slices.Clone(q.ops)
}

// Batches partitions the queue in a single left-to-right scan, closing the
// current batch whenever the scope changes.
func (q *Queue) Batches() []Batch {
	var out []Batch
	for _, op := range q.ops {
		if n := len(out); n > 0 && out[n-1].Scope == op.Scope() {
			out[n-1].Operations = append(out[n-1].Operations, op)
			continue
		}
		out = append(out, Batch{Index: len(out), Scope: op.Scope(), Operations: []Operation{op}})
	}
	return out
}

// Metadata describes every queued operation without executing anything.
func (q *Queue) Metadata() []Metadata {
	var out []Metadata
	for _, b := range q.Batches() {
		for _, op := range b.Operations {
			out = append(out, Metadata{
				Name:        op.Name(),
				Description: op.Description(),
				Scope:       op.Scope(),
				Batch:       b.Index,
			})
		}
	}
	return out
}
