package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var trt = time.FixedZone("TRT", 3*60*60)

func fixedClock() time.Time {
	// 22:30 UTC is already the next day in Istanbul
	return time.Date(2025, 5, 1, 22, 30, 0, 0, time.UTC)
}

func TestAskSendsContractAndParsesContent(t *testing.T) {
	var got Request
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"role":"assistant","content":"Bugün 12 satış yapıldı."},"timestamp":"2025-05-02T01:30:00+03:00"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 5*time.Second, trt, WithClock(fixedClock))
	resp, err := c.Ask(context.Background(), "  bugün kaç satış var?  ")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Content != "Bugün 12 satış yapıldı." {
		t.Fatalf("content = %q", resp.Content)
	}
	if resp.Timestamp != "2025-05-02T01:30:00+03:00" {
		t.Errorf("timestamp = %q", resp.Timestamp)
	}
	if got.Question != "bugün kaç satış var?" {
		t.Errorf("question = %q", got.Question)
	}
	if got.Today != "2025-05-02" {
		t.Errorf("today = %q, want 2025-05-02", got.Today)
	}
	if auth != "Bearer secret" {
		t.Errorf("authorization = %q", auth)
	}
}

func TestAskRejectsOtherShapes(t *testing.T) {
	bodies := []string{
		`[{"output":"hello"}]`,
		`{"content":"hello"}`,
		`{"message":{"content":""}}`,
		`{"message":"hello"}`,
		`{"message":{"content":42}}`,
		`plain text answer`,
		`{"message":{"content":"a"}}{"message":{"content":"b"}}`,
	}
	for _, body := range bodies {
		body := body
		t.Run(body, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", time.Second, trt)
			if _, err := c.Ask(context.Background(), "q"); !errors.Is(err, ErrBadResponse) {
				t.Fatalf("want ErrBadResponse, got %v", err)
			}
		})
	}
}

func TestAskUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second, trt)
	if _, err := c.Ask(context.Background(), "q"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("want ErrUpstream, got %v", err)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "", time.Second, trt)
	if _, err := c.Ask(context.Background(), "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("want ErrEmptyQuestion, got %v", err)
	}
}
