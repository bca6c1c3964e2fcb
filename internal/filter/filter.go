// Package filter manages the four-dimensional dashboard filter: age range,
// gender, and a start/end date pair drawn from the dataset's day catalog.
package filter

import (
	"errors"
	"net/url"
	"strings"

	"vizboard/internal/persist"
)

// Persistence / query-parameter names, shared with the access gate and the
// shareable-link format. Order matters for ShareableURL.
const (
	KeyAgeRange  = "ageRange"
	KeyGender    = "gender"
	KeyStartDate = "startDate"
	KeyEndDate   = "endDate"
)

// Keys lists the filter fields in their canonical order.
var Keys = []string{KeyAgeRange, KeyGender, KeyStartDate, KeyEndDate}

// Age range wire values. The "> 25" option submits "0-25": the dataset was
// exported with that bucket value and every stored record uses it, so the
// label/value mismatch is part of the wire vocabulary, not a bug to fix here.
const (
	Age15To25 = "15-25"
	AgeOver25 = "0-25"
)

// Gender wire values.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// ErrEndDateNotSelectable is returned when an end date is not in the set
// derived from the current start date.
var ErrEndDateNotSelectable = errors.New("end date not in selectable set")

// Selection is the current filter state. Empty string means "not filtered".
type Selection struct {
	AgeRange  string
	Gender    string
	StartDate string
	EndDate   string
}

// Empty reports whether no field is set.
func (s Selection) Empty() bool {
	return s.AgeRange == "" && s.Gender == "" && s.StartDate == "" && s.EndDate == ""
}

// Key serializes the selection for request de-duplication.
func (s Selection) Key() string {
	return strings.Join([]string{s.AgeRange, s.Gender, s.StartDate, s.EndDate}, "|")
}

// Manager owns the in-memory selection, derives the selectable end dates
// from the day catalog, and writes every successful change through the
// persistence capability so the selection survives page loads.
type Manager struct {
	store    persist.Store
	catalog  []string
	sel      Selection
	endDates []string
}

// NewManager restores any persisted selection against the given day catalog.
// Restore order is ageRange, gender, startDate, then endDate; the end date
// only survives if it is still in the set derived from the restored start
// date, otherwise it resets to empty.
func NewManager(store persist.Store, catalog []string) *Manager {
	m := &Manager{store: store, catalog: catalog}

	if v, ok := store.Get(KeyAgeRange); ok {
		m.sel.AgeRange = v
	}
	if v, ok := store.Get(KeyGender); ok {
		m.sel.Gender = v
	}
	if v, ok := store.Get(KeyStartDate); ok && v != "" {
		m.sel.StartDate = v
		m.endDates = datesAfter(catalog, v)
		if saved, ok := store.Get(KeyEndDate); ok && contains(m.endDates, saved) {
			m.sel.EndDate = saved
		}
	}

	return m
}

// Selection returns a copy of the current filter state.
func (m *Manager) Selection() Selection { return m.sel }

// Catalog returns the full day catalog.
func (m *Manager) Catalog() []string { return m.catalog }

// EndDates returns the currently selectable end dates: every catalog day
// strictly after the start date. Empty until a start date is chosen.
func (m *Manager) EndDates() []string { return m.endDates }

// SetStartDate sets the start date, recomputes the selectable end dates,
// and always clears the end date so it has to be picked again.
func (m *Manager) SetStartDate(d string) {
	m.sel.StartDate = d
	m.endDates = datesAfter(m.catalog, d)
	m.sel.EndDate = ""
	m.persistSelection()
}

// SetEndDate accepts only a member of the current selectable set, which
// keeps endDate strictly after startDate by construction.
func (m *Manager) SetEndDate(d string) error {
	if !contains(m.endDates, d) {
		return ErrEndDateNotSelectable
	}
	m.sel.EndDate = d
	m.persistSelection()
	return nil
}

func (m *Manager) SetAgeRange(v string) {
	m.sel.AgeRange = v
	m.persistSelection()
}

func (m *Manager) SetGender(v string) {
	m.sel.Gender = v
	m.persistSelection()
}

// Reset clears the selection in memory and removes all persisted fields.
func (m *Manager) Reset() {
	m.sel = Selection{}
	m.endDates = nil
	for _, key := range Keys {
		m.store.Remove(key)
	}
}

// ShareableURL builds a link to the dashboard carrying the non-empty filter
// fields, in the fixed order ageRange, gender, startDate, endDate.
func (m *Manager) ShareableURL(origin string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(origin, "/"))
	b.WriteString("/?")

	first := true
	appendParam := func(key, value string) {
		if value == "" {
			return
		}
		if !first {
			b.WriteByte('&')
		}
		first = false
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	appendParam(KeyAgeRange, m.sel.AgeRange)
	appendParam(KeyGender, m.sel.Gender)
	appendParam(KeyStartDate, m.sel.StartDate)
	appendParam(KeyEndDate, m.sel.EndDate)

	return b.String()
}

// persistSelection writes each currently non-empty field. Empty fields are
// never explicitly persisted, so clearing a field in memory leaves any
// previously stored value behind until Reset removes it. That asymmetry is
// the documented behavior of the selection store.
func (m *Manager) persistSelection() {
	if m.sel.AgeRange != "" {
		m.store.Set(KeyAgeRange, m.sel.AgeRange)
	}
	if m.sel.Gender != "" {
		m.store.Set(KeyGender, m.sel.Gender)
	}
	if m.sel.StartDate != "" {
		m.store.Set(KeyStartDate, m.sel.StartDate)
	}
	if m.sel.EndDate != "" {
		m.store.Set(KeyEndDate, m.sel.EndDate)
	}
}

// CaptureParams copies any recognized filter query parameters into the
// persistence layer. The access gate calls this before bouncing an
// unauthenticated visitor so a shared link's intent survives the login
// detour. Returns how many parameters were captured.
func CaptureParams(store persist.Store, q url.Values) int {
	captured := 0
	for _, key := range Keys {
		if v := q.Get(key); v != "" {
			store.Set(key, v)
			captured++
		}
	}
	return captured
}

func datesAfter(catalog []string, d string) []string {
	var out []string
	for _, day := range catalog {
		if day > d {
			out = append(out, day)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
