package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"afisha/internal/domain"
)

func TestHTTPClient_RecordHit(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/hit" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode hit: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.Client())
	hit := domain.EndpointHit{
		App:       "afisha-main",
		URI:       "/events/ev-1",
		IP:        "10.0.0.1",
		Timestamp: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
	}
	if err := client.RecordHit(context.Background(), hit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["uri"] != "/events/ev-1" {
		t.Fatalf("unexpected uri: %s", got["uri"])
	}
	if got["timestamp"] != "2026-08-01 12:30:00" {
		t.Fatalf("unexpected timestamp format: %s", got["timestamp"])
	}
}

func TestHTTPClient_QueryStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stats" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("unique") != "true" {
			t.Errorf("expected unique=true, got %s", q.Get("unique"))
		}
		if len(q["uris"]) != 2 {
			t.Errorf("expected 2 uris, got %v", q["uris"])
		}
		_ = json.NewEncoder(w).Encode([]domain.ViewStats{
			{App: "afisha-main", URI: "/events/ev-1", Hits: 42},
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.Client())
	got, err := client.QueryStats(context.Background(),
		time.Now().Add(-time.Hour), time.Now(),
		[]string{"/events/ev-1", "/events/ev-2"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Hits != 42 {
		t.Fatalf("unexpected stats: %+v", got)
	}
}

func TestHTTPClient_QueryStats_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, srv.Client())
	_, err := client.QueryStats(context.Background(), time.Now(), time.Now(), nil, false)
	if err == nil {
		t.Fatal("expected error on 500 response")
	}
}
