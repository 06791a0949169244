package progress

import (
	"context"
	"sync"

	"github.com/spigell/talentpool/internal/logger"
	"go.uber.org/zap"
)

// RunFunc is the body of a detached run. It reports through report and
// returns the value stored with the completed state.
type RunFunc func(ctx context.Context, report Func) (any, error)

// Task is a run started in the background.
type Task struct {
	done   chan struct{}
	result any
	err    error
}

// Start records a running state under key, then executes run on its own
// goroutine. Every report is written to store, and the run ends in either a
// completed state carrying the result or an error state carrying the message.
// Store failures are logged and never stop the run.
func Start(ctx context.Context, store Store, key string, log *zap.Logger, run RunFunc) *Task {
	log = logger.WithFields(log, zap.String(logger.FieldRunKey, key))
	// state must still be written after the run's context ends
	writeCtx := context.WithoutCancel(ctx)

	var (
		mu   sync.Mutex
		last = Update{Status: StatusRunning}
	)
	write := func(u Update) {
		if err := store.Set(writeCtx, key, u); err != nil {
			log.Warn("failed to store progress", zap.String("status", string(u.Status)), zap.Error(err))
		}
	}
	write(last)

	report := func(u Update) {
		mu.Lock()
		last = u
		mu.Unlock()
		write(u)
	}

	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)

		t.result, t.err = run(ctx, report)
		if t.err != nil {
			log.Error("run failed", zap.Error(t.err))
			write(Update{Status: StatusError, Message: t.err.Error()})
			return
		}

		mu.Lock()
		final := last
		mu.Unlock()
		final.Status = StatusCompleted
		final.Current = nil
		final.Result = t.result
		write(final)
		log.Info("run completed", zap.Int("total", final.Total), zap.Int("errors", final.Errors))
	}()

	return t
}

// Wait blocks until the run finishes.
func (t *Task) Wait() (any, error) {
	<-t.done
	return t.result, t.err
}
