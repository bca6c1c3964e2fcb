package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"vizboard/internal/fetch"
	"vizboard/internal/filter"
	"vizboard/internal/model"
	"vizboard/internal/session"
)

func TestRegisterSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/register" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ada@example.com" {
			t.Errorf("email = %q", body["email"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"message": "User registered successfully",
			"user":    map[string]any{"id": 1, "name": "Ada", "email": "ada@example.com"},
			"token":   "tok-abc",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	id, cred, err := c.Register(context.Background(), "Ada", "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if id.Name != "Ada" || cred != "tok-abc" {
		t.Errorf("id = %+v, cred = %q", id, cred)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "User already exists"})
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL).Register(context.Background(), "Ada", "ada@example.com", "pw")
	if !errors.Is(err, session.ErrDuplicateUser) {
		t.Errorf("err = %v, want ErrDuplicateUser", err)
	}
}

func TestRegisterUnexpected400(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "something else"})
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL).Register(context.Background(), "Ada", "ada@example.com", "pw")
	if !errors.Is(err, session.ErrServer) {
		t.Errorf("err = %v, want ErrServer", err)
	}
	if errors.Is(err, session.ErrDuplicateUser) {
		t.Error("unexpected 400 mapped to ErrDuplicateUser")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL).Login(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, session.ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL).Login(context.Background(), "ada@example.com", "pw")
	if !errors.Is(err, session.ErrServer) {
		t.Errorf("err = %v, want ErrServer", err)
	}
}

func TestChartDataSendsSelection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("gender") != "male" || q.Get("startDate") != "2022-10-04" {
			t.Errorf("query = %v", q)
		}
		if q.Has("ageRange") || q.Has("endDate") {
			t.Errorf("empty fields sent: %v", q)
		}
		json.NewEncoder(w).Encode([]model.ChartRecord{{Day: "2022-10-04", A: "2"}})
	}))
	defer srv.Close()

	sel := filter.Selection{Gender: "male", StartDate: "2022-10-04"}
	records, err := NewClient(srv.URL).ChartData(context.Background(), sel)
	if err != nil {
		t.Fatalf("chart data: %v", err)
	}
	if len(records) != 1 || records[0].A != "2" {
		t.Errorf("records = %+v", records)
	}
}

func TestChartDataErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			"unauthorized",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			fetch.ErrServer,
		},
		{
			"server error",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			fetch.ErrServer,
		},
		{
			"bad payload",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("{not json")) },
			fetch.ErrParse,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL).ChartData(context.Background(), filter.Selection{})
			if !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestChartDataNetworkError(t *testing.T) {
	// Point at a closed server.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL).ChartData(context.Background(), filter.Selection{})
	if !errors.Is(err, fetch.ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

func TestDaysDeduplicatesInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]model.ChartRecord{
			{Day: "2022-10-04"},
			{Day: "2022-10-04"},
			{Day: "2022-10-05"},
			{Day: "2022-10-04"},
			{Day: "2022-10-06"},
		})
	}))
	defer srv.Close()

	days, err := NewClient(srv.URL).Days(context.Background())
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	want := []string{"2022-10-04", "2022-10-05", "2022-10-06"}
	if !reflect.DeepEqual(days, want) {
		t.Errorf("days = %v, want %v", days, want)
	}
}
