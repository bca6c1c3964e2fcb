// Package api is the HTTP client for the vizboard backend. It maps wire
// responses onto the session and fetch error taxonomies.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"vizboard/internal/fetch"
	"vizboard/internal/filter"
	"vizboard/internal/model"
	"vizboard/internal/session"
)

// Client talks to the auth and chart endpoints. It satisfies
// session.AuthAPI and fetch.ChartAPI.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type authResponse struct {
	Message string           `json:"message"`
	User    session.Identity `json:"user"`
	Token   string           `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates an account. A 400 "User already exists" response maps to
// session.ErrDuplicateUser; anything else unexpected maps to session.ErrServer.
func (c *Client) Register(ctx context.Context, name, email, password string) (session.Identity, string, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	resp, err := c.postJSON(ctx, "/api/users/register", body)
	if err != nil {
		return session.Identity{}, "", fmt.Errorf("%w: %v", session.ErrServer, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		var ar authResponse
		if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
			return session.Identity{}, "", fmt.Errorf("%w: decode response: %v", session.ErrServer, err)
		}
		return ar.User, ar.Token, nil
	case resp.StatusCode == http.StatusBadRequest:
		if decodeMessage(resp.Body) == "User already exists" {
			return session.Identity{}, "", session.ErrDuplicateUser
		}
		return session.Identity{}, "", fmt.Errorf("%w: status %d", session.ErrServer, resp.StatusCode)
	default:
		return session.Identity{}, "", fmt.Errorf("%w: status %d", session.ErrServer, resp.StatusCode)
	}
}

// Login authenticates. A 400 maps to session.ErrInvalidCredentials;
// transport failures and 5xx map to session.ErrServer.
func (c *Client) Login(ctx context.Context, email, password string) (session.Identity, string, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.postJSON(ctx, "/api/users/login", body)
	if err != nil {
		return session.Identity{}, "", fmt.Errorf("%w: %v", session.ErrServer, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var ar authResponse
		if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
			return session.Identity{}, "", fmt.Errorf("%w: decode response: %v", session.ErrServer, err)
		}
		return ar.User, ar.Token, nil
	case resp.StatusCode == http.StatusBadRequest:
		if decodeMessage(resp.Body) == "Invalid credentials" {
			return session.Identity{}, "", session.ErrInvalidCredentials
		}
		return session.Identity{}, "", fmt.Errorf("%w: status %d", session.ErrServer, resp.StatusCode)
	default:
		return session.Identity{}, "", fmt.Errorf("%w: status %d", session.ErrServer, resp.StatusCode)
	}
}

// ChartData returns records matching the selection. Any non-200 status maps
// to fetch.ErrServer, including a 401 for a credential the server no longer
// accepts; it is the caller's problem to surface, never a reason to re-run
// the access gate.
func (c *Client) ChartData(ctx context.Context, sel filter.Selection) ([]model.ChartRecord, error) {
	q := url.Values{}
	if sel.AgeRange != "" {
		q.Set(filter.KeyAgeRange, sel.AgeRange)
	}
	if sel.Gender != "" {
		q.Set(filter.KeyGender, sel.Gender)
	}
	if sel.StartDate != "" {
		q.Set(filter.KeyStartDate, sel.StartDate)
	}
	if sel.EndDate != "" {
		q.Set(filter.KeyEndDate, sel.EndDate)
	}

	endpoint := c.baseURL + "/api/chart/data"
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fetch.ErrNetwork, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fetch.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", fetch.ErrServer, resp.StatusCode)
	}

	var records []model.ChartRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", fetch.ErrParse, err)
	}
	return records, nil
}

// Days fetches the unfiltered dataset and returns its distinct day values
// in server order. Used once per dashboard mount to build the date catalog.
func (c *Client) Days(ctx context.Context) ([]string, error) {
	records, err := c.ChartData(ctx, filter.Selection{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(records))
	var days []string
	for _, r := range records {
		if _, ok := seen[r.Day]; ok {
			continue
		}
		seen[r.Day] = struct{}{}
		days = append(days, r.Day)
	}
	return days, nil
}

func decodeMessage(r io.Reader) string {
	var mr messageResponse
	if err := json.NewDecoder(r).Decode(&mr); err != nil {
		return ""
	}
	return mr.Message
}

func (c *Client) postJSON(ctx context.Context, path string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}
