package fetch

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"vizboard/internal/filter"
	"vizboard/internal/model"
)

// blockingAPI lets a test hold each request open and release them in any
// order.
type blockingAPI struct {
	mu       sync.Mutex
	pending  map[string]chan struct{}
	response map[string][]model.ChartRecord
	err      error
}

func newBlockingAPI() *blockingAPI {
	return &blockingAPI{
		pending:  make(map[string]chan struct{}),
		response: make(map[string][]model.ChartRecord),
	}
}

func (a *blockingAPI) ChartData(ctx context.Context, sel filter.Selection) ([]model.ChartRecord, error) {
	a.mu.Lock()
	gate, ok := a.pending[sel.Key()]
	resp := a.response[sel.Key()]
	err := a.err
	a.mu.Unlock()

	if ok {
		<-gate
	}
	return resp, err
}

func (a *blockingAPI) hold(sel filter.Selection) chan struct{} {
	gate := make(chan struct{})
	a.mu.Lock()
	a.pending[sel.Key()] = gate
	a.mu.Unlock()
	return gate
}

func (a *blockingAPI) respond(sel filter.Selection, records []model.ChartRecord) {
	a.mu.Lock()
	a.response[sel.Key()] = records
	a.mu.Unlock()
}

func TestFetchPublishesResult(t *testing.T) {
	api := newBlockingAPI()
	sel := filter.Selection{Gender: "male"}
	api.respond(sel, []model.ChartRecord{{Day: "2022-10-04", A: "2"}})

	f := NewFetcher(api, slog.Default())
	<-f.Fetch(context.Background(), sel)

	res := f.Result()
	if res.State != StateReady {
		t.Fatalf("state = %q, want ready", res.State)
	}
	if res.Selection != sel {
		t.Errorf("selection = %+v", res.Selection)
	}
	if len(res.Records) != 1 || res.Records[0].Day != "2022-10-04" {
		t.Errorf("records = %+v", res.Records)
	}
}

func TestLastRequestWins(t *testing.T) {
	api := newBlockingAPI()
	first := filter.Selection{Gender: "male"}
	second := filter.Selection{Gender: "female"}

	firstGate := api.hold(first)
	api.respond(first, []model.ChartRecord{{Day: "stale"}})
	api.respond(second, []model.ChartRecord{{Day: "fresh"}})

	f := NewFetcher(api, slog.Default())

	firstDone := f.Fetch(context.Background(), first)
	<-f.Fetch(context.Background(), second)

	// The newest result is in place before the older request even finishes.
	if got := f.Result().Records[0].Day; got != "fresh" {
		t.Fatalf("records[0].Day = %q, want fresh", got)
	}

	// Now let the stale request complete; its result must be discarded.
	close(firstGate)
	<-firstDone

	res := f.Result()
	if res.State != StateReady {
		t.Errorf("state = %q, want ready", res.State)
	}
	if got := res.Records[0].Day; got != "fresh" {
		t.Errorf("records[0].Day = %q after stale resolve, want fresh", got)
	}
	if res.Selection != second {
		t.Errorf("selection = %+v, want %+v", res.Selection, second)
	}
}

func TestFetchFailureKeepsEmptyRecords(t *testing.T) {
	api := newBlockingAPI()
	api.err = ErrNetwork
	sel := filter.Selection{}

	f := NewFetcher(api, slog.Default())
	<-f.Fetch(context.Background(), sel)

	res := f.Result()
	if res.State != StateFailed {
		t.Fatalf("state = %q, want failed", res.State)
	}
	if res.Records == nil {
		t.Error("records = nil, want empty slice so charts render empty")
	}
	if len(res.Records) != 0 {
		t.Errorf("records = %+v, want empty", res.Records)
	}
	if res.Err != ErrNetwork {
		t.Errorf("err = %v, want ErrNetwork", res.Err)
	}
}

func TestStateLoadingWhileInFlight(t *testing.T) {
	api := newBlockingAPI()
	sel := filter.Selection{StartDate: "2022-10-04"}
	gate := api.hold(sel)

	f := NewFetcher(api, slog.Default())
	done := f.Fetch(context.Background(), sel)

	if got := f.Result().State; got != StateLoading {
		t.Errorf("state = %q while in flight, want loading", got)
	}

	close(gate)
	<-done

	if got := f.Result().State; got != StateReady {
		t.Errorf("state = %q after resolve, want ready", got)
	}
}

func TestOnUpdateFiresForAcceptedResultsOnly(t *testing.T) {
	api := newBlockingAPI()
	first := filter.Selection{Gender: "male"}
	second := filter.Selection{Gender: "female"}
	firstGate := api.hold(first)

	f := NewFetcher(api, slog.Default())

	var mu sync.Mutex
	var updates []Result
	f.OnUpdate(func(res Result) {
		mu.Lock()
		updates = append(updates, res)
		mu.Unlock()
	})

	firstDone := f.Fetch(context.Background(), first)
	<-f.Fetch(context.Background(), second)
	close(firstGate)
	<-firstDone

	// Give any stray callback a moment to fire.
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(updates))
	}
	if updates[0].Selection != second {
		t.Errorf("update selection = %+v, want %+v", updates[0].Selection, second)
	}
}

func TestNewFetcherStartsIdle(t *testing.T) {
	f := NewFetcher(newBlockingAPI(), slog.Default())
	if got := f.Result().State; got != StateIdle {
		t.Errorf("state = %q, want idle", got)
	}
}
