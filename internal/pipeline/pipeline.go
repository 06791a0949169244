// Package pipeline drives extraction and scoring across many résumés or
// stored candidates, batch by batch, and records what happened to each one.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/spigell/talentpool/internal/ai"
	"github.com/spigell/talentpool/internal/progress"
	"github.com/spigell/talentpool/internal/utils"
)

const (
	DefaultBatchSize  = 10
	DefaultBatchPause = time.Second
	DefaultRetryPause = 2 * time.Second

	maxErrorDetails = 10
	detailLimit     = 100

	rateLimitDetail = "Limite de uso da API atingido"
)

// wait is swapped in tests to skip real pauses.
var wait = utils.WaitFor

// Options tune batching. Zero values fall back to the defaults.
type Options struct {
	BatchSize int `mapstructure:"batch-size"`
	// BatchPause separates two bulk calls.
	BatchPause time.Duration `mapstructure:"batch-pause"`
	// RetryPause follows every single item call of a fallback.
	RetryPause time.Duration `mapstructure:"retry-pause"`
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.BatchPause <= 0 {
		o.BatchPause = DefaultBatchPause
	}
	if o.RetryPause <= 0 {
		o.RetryPause = DefaultRetryPause
	}
	return o
}

// batchResult is the outcome of one bulk call: either every item, aligned
// with the inputs, or the error that sends the batch to the fallback path.
type batchResult[T any] struct {
	items []T
	err   error
}

func succeeded[T any](items []T, want int) batchResult[T] {
	if len(items) != want {
		return failed[T](fmt.Errorf("%w: got %d result(s) for %d input(s)", ai.ErrCountMismatch, len(items), want))
	}
	return batchResult[T]{items: items}
}

func failed[T any](err error) batchResult[T] {
	return batchResult[T]{err: err}
}

func (r batchResult[T]) ok() bool {
	return r.err == nil
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}

func batchLabel(n, total int) string {
	return fmt.Sprintf("Lote %d/%d", n, total)
}

// tally tracks a run's counters and reports after every item.
type tally struct {
	total     int
	processed int
	errors    int
	details   []string
	report    progress.Func
}

func (t *tally) fail(detail string) {
	t.errors++
	if len(t.details) < maxErrorDetails {
		t.details = append(t.details, detail)
	}
}

type mark string

const (
	markNone    mark = ""
	markSkipped mark = " (pulado)"
	markError   mark = " (erro)"
)

// done counts one item as processed and emits a running update.
func (t *tally) done(label, item string, m mark) {
	t.processed++
	t.report.Emit(progress.Update{
		Status:    progress.StatusRunning,
		Total:     t.total,
		Processed: t.processed,
		Current:   progress.Label(fmt.Sprintf("%s: %s%s", label, item, m)),
		Errors:    t.errors,
	})
}

func (t *tally) start() {
	t.report.Emit(progress.Update{Status: progress.StatusRunning, Total: t.total})
}

func (t *tally) finish(result any) {
	t.report.Emit(progress.Update{
		Status:    progress.StatusCompleted,
		Total:     t.total,
		Processed: t.processed,
		Errors:    t.errors,
		Result:    result,
	})
}

// detailList never renders as null.
func (t *tally) detailList() []string {
	if t.details == nil {
		return []string{}
	}
	return t.details
}

// callError describes a failed inference call for an item.
func callError(item string, err error) string {
	if ai.IsRateLimited(err) {
		return item + ": " + rateLimitDetail
	}
	return item + ": " + utils.Truncate(err.Error(), detailLimit)
}

// saveError describes a failed write for an item.
func saveError(item, action string, err error) string {
	if ai.IsRateLimited(err) {
		return item + ": " + rateLimitDetail
	}
	return fmt.Sprintf("%s: %s - %s", item, action, utils.Truncate(err.Error(), detailLimit))
}

// fatal reports errors that must end the run instead of a single item.
func fatal(err error) bool {
	return errors.Is(err, ai.ErrMissingCredential)
}
