package web

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"vizboard/internal/chart"
	"vizboard/internal/filter"
	"vizboard/internal/gate"
	"vizboard/internal/session"
)

// Backend is everything the dashboard needs from the vizboard API.
type Backend interface {
	session.AuthAPI
	ChartAPI
}

// Handler serves the dashboard pages and their JSON endpoints.
type Handler struct {
	backend    Backend
	dashboards *Registry
	origin     string
	templates  *template.Template
	logger     *slog.Logger
}

func NewHandler(backend Backend, dashboards *Registry, origin string, logger *slog.Logger) *Handler {
	tmpl := template.Must(template.ParseGlob("web/templates/*.html"))
	return &Handler{
		backend:    backend,
		dashboards: dashboards,
		origin:     origin,
		templates:  tmpl,
		logger:     logger,
	}
}

func (h *Handler) sessionFor(w http.ResponseWriter, r *http.Request) (*session.Store, *Cookies) {
	cookies := NewCookies(w, r, h.logger.With("component", "cookies"))
	return session.NewStore(h.backend, cookies, h.logger.With("component", "session")), cookies
}

func checkerFor(sess *session.Store) gate.Checker {
	return gate.CheckerFunc(func(ctx context.Context) (bool, error) {
		return sess.IsAuthenticated(), nil
	})
}

// Home runs the access gate and renders the dashboard, the access-denied
// view, or a redirect to login.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sess, cookies := h.sessionFor(w, r)

	g := gate.New(checkerFor(sess), cookies, h.logger.With("component", "gate"))
	loc := gate.Location{Path: r.URL.Path, Query: r.URL.Query()}
	<-g.Mount(r.Context(), loc)

	decision := g.Decision()
	switch decision.State {
	case gate.StateAuthenticated:
		h.renderDashboard(w, r, sess, cookies)
	case gate.StateDeniedWithIntent:
		h.render(w, "denied.html", map[string]any{
			"LoginURL": "/login?redirect=" + url.QueryEscape(decision.From.String()),
		})
	default:
		http.Redirect(w, r, "/login?redirect="+url.QueryEscape(decision.From.String()), http.StatusSeeOther)
	}
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, sess *session.Store, cookies *Cookies) {
	// The day catalog is derived once per mount, not per filter change.
	days, err := h.backend.Days(r.Context())
	if err != nil {
		h.logger.Error("load day catalog", "error", err)
	}

	dash := h.dashboards.For(sess.Credential())
	dash.SetCatalog(days)

	fm := filter.NewManager(cookies, days)
	dash.Refresh(context.WithoutCancel(r.Context()), fm.Selection())

	h.render(w, "dashboard.html", map[string]any{
		"User":      sess.User(),
		"Selection": fm.Selection(),
		"Catalog":   fm.Catalog(),
		"EndDates":  fm.EndDates(),
		"AgeRanges": []map[string]string{
			{"Label": "15-25", "Value": filter.Age15To25},
			{"Label": "> 25", "Value": filter.AgeOver25},
		},
	})
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.sessionFor(w, r)
	if sess.IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, "login.html", map[string]any{
		"Email":    "",
		"Redirect": r.URL.Query().Get("redirect"),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.sessionFor(w, r)

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	redirect := r.FormValue("redirect")

	if _, err := sess.Login(r.Context(), email, password); err != nil {
		h.render(w, "login.html", map[string]any{
			"Error":    authErrorMessage(err),
			"Email":    email,
			"Redirect": redirect,
		})
		return
	}

	http.Redirect(w, r, safeRedirect(redirect), http.StatusSeeOther)
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.sessionFor(w, r)
	if sess.IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, "register.html", map[string]any{
		"Name":     "",
		"Email":    "",
		"Redirect": r.URL.Query().Get("redirect"),
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.sessionFor(w, r)

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	redirect := r.FormValue("redirect")

	if _, err := sess.Register(r.Context(), name, email, password); err != nil {
		h.render(w, "register.html", map[string]any{
			"Error":    authErrorMessage(err),
			"Name":     name,
			"Email":    email,
			"Redirect": redirect,
		})
		return
	}

	http.Redirect(w, r, safeRedirect(redirect), http.StatusSeeOther)
}

// Logout clears the session. Safe to call when already logged out.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.sessionFor(w, r)
	if cred := sess.Credential(); cred != "" {
		h.dashboards.Drop(cred)
	}
	sess.Logout()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ApplyFilter applies one filter field and starts a fetch for the new
// selection. The page listens on the websocket and re-pulls /api/charts
// when the newest fetch resolves.
func (h *Handler) ApplyFilter(w http.ResponseWriter, r *http.Request) {
	sess, cookies := h.sessionFor(w, r)
	if !sess.IsAuthenticated() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	dash := h.dashboards.For(sess.Credential())
	fm := filter.NewManager(cookies, dash.Catalog())

	field := r.FormValue("field")
	value := r.FormValue("value")
	switch field {
	case filter.KeyAgeRange:
		fm.SetAgeRange(value)
	case filter.KeyGender:
		fm.SetGender(value)
	case filter.KeyStartDate:
		fm.SetStartDate(value)
	case filter.KeyEndDate:
		if err := fm.SetEndDate(value); err != nil {
			http.Error(w, "End date must be after the start date", http.StatusUnprocessableEntity)
			return
		}
	default:
		http.Error(w, "Unknown filter field", http.StatusBadRequest)
		return
	}

	dash.Refresh(context.WithoutCancel(r.Context()), fm.Selection())
	w.WriteHeader(http.StatusNoContent)
}

// ResetFilters clears the selection in memory and in the cookies.
func (h *Handler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	sess, cookies := h.sessionFor(w, r)
	if !sess.IsAuthenticated() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	dash := h.dashboards.For(sess.Credential())
	fm := filter.NewManager(cookies, dash.Catalog())
	fm.Reset()

	dash.Refresh(context.WithoutCancel(r.Context()), filter.Selection{})
	w.WriteHeader(http.StatusNoContent)
}

// Share returns the shareable link for the current selection.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	sess, cookies := h.sessionFor(w, r)
	if !sess.IsAuthenticated() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	dash := h.dashboards.For(sess.Credential())
	fm := filter.NewManager(cookies, dash.Catalog())

	origin := h.origin
	if origin == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		origin = scheme + "://" + r.Host
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": fm.ShareableURL(origin)})
}

type chartsPayload struct {
	State    string             `json:"state"`
	Bar      chart.BarAggregate `json:"bar"`
	Selected string             `json:"selected,omitempty"`
	Trend    *chart.TrendSeries `json:"trend,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Charts returns the aggregated series for the latest fetch result.
func (h *Handler) Charts(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.sessionFor(w, r)
	if !sess.IsAuthenticated() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	dash := h.dashboards.For(sess.Credential())
	res := dash.Result()

	payload := chartsPayload{
		State: string(res.State),
		Bar:   chart.AggregateBar(res.Records),
	}
	if res.Err != nil {
		payload.Error = res.Err.Error()
	}
	if selected := dash.Selected(); selected != "" {
		payload.Selected = selected
		trend := chart.ComputeTrend(res.Records, selected)
		payload.Trend = &trend
	}

	writeJSON(w, http.StatusOK, payload)
}

// SelectCategory records a bar segment click and returns the trend series
// for the category at that position.
func (h *Handler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.sessionFor(w, r)
	if !sess.IsAuthenticated() {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "Invalid segment index", http.StatusBadRequest)
		return
	}

	dash := h.dashboards.For(sess.Credential())
	category := dash.Select(index)
	if category == "" {
		http.Error(w, "Invalid segment index", http.StatusBadRequest)
		return
	}

	trend := chart.ComputeTrend(dash.Result().Records, category)
	writeJSON(w, http.StatusOK, trend)
}

func (h *Handler) render(w http.ResponseWriter, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template render", "name", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, session.ErrDuplicateUser):
		return "User already exists"
	default:
		return "Server error, please try again"
	}
}

// safeRedirect allows only same-site relative paths. A "//" or "/\" prefix
// is a protocol-relative URL, which browsers resolve to a foreign host.
func safeRedirect(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/"
	}
	if strings.HasPrefix(path, "//") || strings.HasPrefix(path, `/\`) {
		return "/"
	}
	if strings.Contains(path, "://") {
		return "/"
	}
	return path
}
