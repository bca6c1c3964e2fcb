// Package fetch loads dataset records for the current filter selection and
// guarantees that only the most recently started request can publish its
// result (last-request-wins).
package fetch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"vizboard/internal/filter"
	"vizboard/internal/model"
)

// Fetch error taxonomy.
var (
	ErrNetwork = errors.New("network error")
	ErrServer  = errors.New("server error")
	ErrParse   = errors.New("parse error")
)

// ChartAPI is the external chart-data collaborator.
type ChartAPI interface {
	ChartData(ctx context.Context, sel filter.Selection) ([]model.ChartRecord, error)
}

// State is the consumer-visible fetch state.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// Result is a snapshot of the latest fetch outcome. On failure Records is
// empty rather than nil so consumers can render an empty chart.
type Result struct {
	State     State
	Selection filter.Selection
	Records   []model.ChartRecord
	Err       error
}

// Fetcher issues one request per Fetch call, keyed by the serialized
// selection, and discards results that arrive after a newer request has
// been started.
type Fetcher struct {
	api    ChartAPI
	logger *slog.Logger

	mu       sync.Mutex
	seq      uint64
	res      Result
	onUpdate func(Result)
}

func NewFetcher(api ChartAPI, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		api:    api,
		logger: logger,
		res:    Result{State: StateIdle},
	}
}

// OnUpdate registers a callback invoked whenever an accepted (latest)
// request resolves. Set before the first Fetch.
func (f *Fetcher) OnUpdate(fn func(Result)) {
	f.mu.Lock()
	f.onUpdate = fn
	f.mu.Unlock()
}

// Result returns the current snapshot.
func (f *Fetcher) Result() Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.res
}

// Fetch starts a request for the selection and returns a channel that
// closes once this request has been resolved, whether its result was
// published or discarded. State is Loading until the newest request
// finishes. There is no automatic retry.
func (f *Fetcher) Fetch(ctx context.Context, sel filter.Selection) <-chan struct{} {
	f.mu.Lock()
	f.seq++
	mine := f.seq
	f.res = Result{State: StateLoading, Selection: sel}
	f.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)

		records, err := f.api.ChartData(ctx, sel)

		f.mu.Lock()
		if mine != f.seq {
			// A newer request was started while this one was in flight.
			f.mu.Unlock()
			f.logger.Debug("discarding stale fetch result", "seq", mine, "key", sel.Key())
			return
		}

		if err != nil {
			f.logger.Error("chart data fetch failed", "key", sel.Key(), "error", err)
			f.res = Result{State: StateFailed, Selection: sel, Records: []model.ChartRecord{}, Err: err}
		} else {
			f.res = Result{State: StateReady, Selection: sel, Records: records}
		}
		snapshot := f.res
		cb := f.onUpdate
		f.mu.Unlock()

		if cb != nil {
			cb(snapshot)
		}
	}()
	return done
}
