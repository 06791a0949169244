// Package progress publishes the state of long running import and search runs
// so a separate caller can poll it.
package progress

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Update is one snapshot of a run. Every write replaces the previous one.
type Update struct {
	Status    Status  `json:"status"`
	Total     int     `json:"total"`
	Processed int     `json:"processed"`
	Current   *string `json:"current"`
	Errors    int     `json:"errors,omitempty"`
	Message   string  `json:"message,omitempty"`
	Result    any     `json:"result,omitempty"`
}

// DecodeResult fills out from the stored result. Results read back from a
// shared store arrive as generic maps and are matched by json tags.
func (u Update) DecodeResult(out any) error {
	if u.Result == nil {
		return fmt.Errorf("update has no result (status %s)", u.Status)
	}

	cfg := &mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(u.Result)
}

// Func receives updates synchronously, in order.
type Func func(Update)

// Emit calls f when it is set.
func (f Func) Emit(u Update) {
	if f != nil {
		f(u)
	}
}

// Label is a helper for the optional Current field.
func Label(s string) *string {
	return &s
}

// Store keeps the latest update per key.
type Store interface {
	Set(ctx context.Context, key string, u Update) error
	// Get returns an idle update for unknown or expired keys.
	Get(ctx context.Context, key string) (Update, error)
}

func ImportKey(jobID string) string {
	return fmt.Sprintf("import_status_%s", jobID)
}

func SearchKey(jobID string) string {
	return fmt.Sprintf("search_status_%s", jobID)
}

// PoolImportKey is the single slot for imports without a job.
func PoolImportKey() string {
	return "talent_pool_import_status"
}

func idle() Update {
	return Update{Status: StatusIdle}
}
