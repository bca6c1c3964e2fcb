package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vizboard/internal/chart"
	"vizboard/internal/fetch"
	"vizboard/internal/filter"
	"vizboard/internal/websocket"
)

// ChartAPI is what a dashboard needs from the backend: filtered records for
// the fetcher plus the day catalog.
type ChartAPI interface {
	fetch.ChartAPI
	Days(ctx context.Context) ([]string, error)
}

// Dashboard is the server-side state for one signed-in browser session:
// its fetcher (which enforces last-request-wins across rapid filter
// changes), the day catalog for the current mount, and the bar segment the
// visitor selected, if any.
type Dashboard struct {
	fetcher *fetch.Fetcher

	mu       sync.Mutex
	catalog  []string
	selected string
	lastSeen time.Time
}

func (d *Dashboard) touch() {
	d.mu.Lock()
	d.lastSeen = time.Now()
	d.mu.Unlock()
}

func (d *Dashboard) seenBefore(cutoff time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastSeen.Before(cutoff)
}

// Refresh starts a fetch for the selection. Stale results are discarded by
// the fetcher; open pages are poked over the hub when the newest resolves.
func (d *Dashboard) Refresh(ctx context.Context, sel filter.Selection) <-chan struct{} {
	return d.fetcher.Fetch(ctx, sel)
}

// Result returns the latest fetch snapshot.
func (d *Dashboard) Result() fetch.Result {
	return d.fetcher.Result()
}

// SetCatalog stores the day catalog derived at mount time.
func (d *Dashboard) SetCatalog(days []string) {
	d.mu.Lock()
	d.catalog = days
	d.mu.Unlock()
}

// Catalog returns the day catalog from the most recent mount.
func (d *Dashboard) Catalog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.catalog
}

// Select maps a clicked bar position to its category and makes it the
// selection, fully replacing any previous one. Returns the category, or ""
// if the index is out of range (selection is then left untouched).
func (d *Dashboard) Select(index int) string {
	category := chart.CategoryAt(index)
	if category == "" {
		return ""
	}
	d.mu.Lock()
	d.selected = category
	d.mu.Unlock()
	return category
}

// Selected returns the selected category, "" before the first click.
func (d *Dashboard) Selected() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selected
}

// Registry hands out one Dashboard per credential.
type Registry struct {
	api    ChartAPI
	hub    *websocket.Hub
	logger *slog.Logger

	mu         sync.Mutex
	dashboards map[string]*Dashboard
}

func NewRegistry(api ChartAPI, hub *websocket.Hub, logger *slog.Logger) *Registry {
	return &Registry{
		api:        api,
		hub:        hub,
		logger:     logger,
		dashboards: make(map[string]*Dashboard),
	}
}

// For returns the dashboard for a credential, creating it on first use.
func (r *Registry) For(credential string) *Dashboard {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.dashboards[credential]; ok {
		d.touch()
		return d
	}

	d := &Dashboard{
		fetcher:  fetch.NewFetcher(r.api, r.logger.With("component", "fetcher")),
		lastSeen: time.Now(),
	}
	d.fetcher.OnUpdate(func(res fetch.Result) {
		r.hub.Broadcast(websocket.ChartsUpdated(string(res.State), res.Selection.Key()))
	})
	r.dashboards[credential] = d
	return d
}

// Drop discards a credential's dashboard, typically on logout.
func (r *Registry) Drop(credential string) {
	r.mu.Lock()
	delete(r.dashboards, credential)
	r.mu.Unlock()
}

// Sweep drops dashboards idle longer than maxAge. Credentials expire after
// an hour, so entries for dead tokens would otherwise pile up until the
// process restarts.
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for credential, d := range r.dashboards {
		if d.seenBefore(cutoff) {
			delete(r.dashboards, credential)
			dropped++
		}
	}
	if dropped > 0 {
		r.logger.Info("swept idle dashboards", "dropped", dropped, "remaining", len(r.dashboards))
	}
	return dropped
}
