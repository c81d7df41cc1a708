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
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/variantrc/pkg/document"
	"gitlab.com/tozd/go/errors"
)

var ErrFatal = errors.Base("operation failed fatally")

// 🔁 Mode picks the transaction boundaries of a run.
type Mode int

const (
	// ModePerBatch wraps every batch in its own transaction.
	ModePerBatch Mode = iota
	// ModeSingle wraps the whole run in one transaction.
	ModeSingle
)

func (m Mode) String() string {
	if m == ModeSingle {
		return "single"
	}
	return "per-batch"
}

// CommitPolicy decides whether a transaction is committed, given the fatal
// logs produced inside it. The processor only draws the boundaries.
type CommitPolicy func(ctx context.Context, fatal []*Log) bool

// CommitAlways commits every transaction that completes.
func CommitAlways(context.Context, []*Log) bool { return true }

// CommitUnlessFatal rolls back any transaction that saw a fatal log.
func CommitUnlessFatal(_ context.Context, fatal []*Log) bool { return len(fatal) == 0 }

type ProcessorOptions struct {
	// Commit defaults to CommitAlways.
	Commit CommitPolicy
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// ⚙️ Processor executes queues against documents. It is the only thing that
// activates variants.
type Processor struct {
	commit CommitPolicy
	now    func() time.Time
}

func NewProcessor(opts ProcessorOptions) *Processor {
	p := &Processor{commit: opts.Commit, now: opts.Clock}
	if p.commit == nil {
		p.commit = CommitAlways
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// 📊 Result is everything a run produced.
type Result struct {
	RunID     string
	Mode      Mode
	Logs      []*Log
	Fatal     []*Log
	Rollbacks int
	Elapsed   time.Duration
}

// Err returns an ErrFatal-wrapping error when any operation failed fatally.
func (r *Result) Err() error {
	if len(r.Fatal) == 0 {
		return nil
	}
	return errors.Errorf("%d of %d logs are fatal: %w", len(r.Fatal), len(r.Logs), ErrFatal)
}

// Process executes every batch of q against doc and returns the logs of
// everything that ran. Fatal operations appear as "<name> (FATAL ERROR)" logs
// and do not stop the run. The returned error is reserved for host failures
// (opening or closing a transaction) and cancellation, which is only checked
// between batches.
func (p *Processor) Process(ctx context.Context, doc document.Document, q *Queue, mode Mode) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Mode: mode}
	logger := zerolog.Ctx(ctx).With().Str("run", res.RunID).Logger()
	ctx = logger.WithContext(ctx)

	start := p.now()
	defer func() { res.Elapsed = p.now().Sub(start) }()

	batches := q.Batches()
	logger.Debug().Int("operations", q.Len()).Int("batches", len(batches)).Str("mode", mode.String()).Msg("processing queue")

	var outer document.Transaction
	if mode == ModeSingle {
		txn, err := doc.Begin(ctx, "run "+res.RunID)
		if err != nil {
			return res, errors.Errorf("opening run transaction: %w", err)
		}
		outer = txn
	}

	var cancelled error
	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			cancelled = err
			logger.Warn().Int("batch", b.Index).Err(err).Msg("run cancelled before batch")
			break
		}

		var txn document.Transaction
		if mode == ModePerBatch {
			t, err := doc.Begin(ctx, fmt.Sprintf("batch %d", b.Index))
			if err != nil {
				return res, errors.Errorf("opening transaction for batch %d: %w", b.Index, err)
			}
			txn = t
		}

		logs, fatal := p.runBatch(ctx, doc, b)
		res.Logs = append(res.Logs, logs...)
		res.Fatal = append(res.Fatal, fatal...)

		if txn != nil {
			if err := p.close(ctx, txn, fatal, res); err != nil {
				return res, errors.Errorf("closing transaction for batch %d: %w", b.Index, err)
			}
		}
	}

	if outer != nil {
		if err := p.close(ctx, outer, res.Fatal, res); err != nil {
			return res, errors.Errorf("closing run transaction: %w", err)
		}
	}

	if cancelled != nil {
		return res, errors.Errorf("processing cancelled: %w", cancelled)
	}
	logger.Info().Int("logs", len(res.Logs)).Int("fatal", len(res.Fatal)).Msg("queue processed")
	return res, nil
}

func (p *Processor) close(ctx context.Context, txn document.Transaction, fatal []*Log, res *Result) error {
	if p.commit(ctx, fatal) {
		return txn.Commit(ctx)
	}
	res.Rollbacks++
	zerolog.Ctx(ctx).Warn().Int("fatal", len(fatal)).Msg("rolling back transaction")
	return txn.Rollback(ctx)
}

func (p *Processor) runBatch(ctx context.Context, doc document.Document, b Batch) ([]*Log, []*Log) {
	zerolog.Ctx(ctx).Debug().Int("batch", b.Index).Str("scope", b.Scope.String()).Int("operations", len(b.Operations)).Msg("running batch")
	if b.Merged() {
		return p.runVariantBatch(ctx, doc, b)
	}
	return p.runDocumentBatch(ctx, doc, b)
}

func (p *Processor) runDocumentBatch(ctx context.Context, doc document.Document, b Batch) ([]*Log, []*Log) {
	var logs, fatal []*Log
	target := Target{Document: doc}
	for _, op := range b.Operations {
		log, elapsed, err := p.invoke(ctx, op, target)
		if err != nil {
			fl := fatalLog(op, DocumentContext, err, elapsed)
			zerolog.Ctx(ctx).Error().Err(err).Str("operation", op.Name()).Msg("operation failed fatally")
			logs = append(logs, fl)
			fatal = append(fatal, fl)
			continue
		}
		log.tag(DocumentContext)
		log.Elapsed = elapsed
		p.logDone(ctx, log, DocumentContext)
		logs = append(logs, log)
	}
	return logs, fatal
}

// runVariantBatch activates each variant once and runs every operation of the
// batch against it before moving on. Per-operation logs are merged across
// variants; an operation that fails fatally is skipped for the remaining
// variants while its siblings keep running.
func (p *Processor) runVariantBatch(ctx context.Context, doc document.Document, b Batch) ([]*Log, []*Log) {
	logger := zerolog.Ctx(ctx)

	merged := map[string]*Log{}
	fatalByOp := make([][]*Log, len(b.Operations))
	skipped := make([]bool, len(b.Operations))

	accumulate := func(op Operation) *Log {
		if l, ok := merged[op.Name()]; ok {
			return l
		}
		l := NewLog(op.Name())
		merged[op.Name()] = l
		return l
	}

	for _, v := range doc.Variants() {
		var live []int
		for i := range b.Operations {
			if !skipped[i] {
				live = append(live, i)
			}
		}
		if len(live) == 0 {
			break
		}

		start := p.now()
		err := doc.Activate(ctx, v.Name)
		activation := p.now().Sub(start)
		logger.Debug().Str("variant", v.Name).Dur("activation", activation).Msg("variant activated")
		if err != nil {
			for _, i := range live {
				acc := accumulate(b.Operations[i])
				acc.Entries = append(acc.Entries, Entry{Item: v.Name, Context: v.Name, Err: errors.Errorf("activating variant: %w", err)})
			}
			continue
		}
		share := activation / time.Duration(len(live))

		variant := v
		target := Target{Document: doc, Variant: &variant}
		for _, i := range live {
			op := b.Operations[i]
			log, elapsed, err := p.invoke(ctx, op, target)
			if err != nil {
				fl := fatalLog(op, v.Name, err, elapsed+share)
				logger.Error().Err(err).Str("operation", op.Name()).Str("variant", v.Name).Msg("operation failed fatally")
				fatalByOp[i] = append(fatalByOp[i], fl)
				skipped[i] = true
				continue
			}
			log.tag(v.Name)
			acc := accumulate(op)
			acc.Entries = append(acc.Entries, log.Entries...)
			acc.Elapsed += elapsed + share
		}
	}

	var logs, fatal []*Log
	emitted := map[string]bool{}
	for i, op := range b.Operations {
		if l, ok := merged[op.Name()]; ok && !emitted[op.Name()] {
			emitted[op.Name()] = true
			p.logDone(ctx, l, "variants")
			logs = append(logs, l)
		}
		logs = append(logs, fatalByOp[i]...)
		fatal = append(fatal, fatalByOp[i]...)
	}
	return logs, fatal
}

// invoke times one Execute call and turns panics into errors.
func (p *Processor) invoke(ctx context.Context, op Operation, target Target) (log *Log, elapsed time.Duration, err error) {
	start := p.now()
	defer func() {
		if r := recover(); r != nil {
			log = nil
			err = errors.Errorf("panic: %v", r)
		}
		elapsed = p.now().Sub(start)
	}()

	log, err = op.Execute(ctx, target)
	if err != nil {
		return nil, 0, err
	}
	if log == nil {
		log = NewLog(op.Name())
	}
	if log.Operation == "" {
		log.Operation = op.Name()
	}
	return log, 0, nil
}

func (p *Processor) logDone(ctx context.Context, l *Log, label string) {
	zerolog.Ctx(ctx).Info().
		Str("operation", l.Operation).
		Str("context", label).
		Dur("elapsed", l.Elapsed).
		Int("entries", len(l.Entries)).
		Int("failures", l.Failures()).
		Msg("operation complete")
}
