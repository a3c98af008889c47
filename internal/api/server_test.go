package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"venturi/internal"
)

type stubProvider struct {
	status Status
}

func (p *stubProvider) Status() Status { return p.status }

func testServer(status Status) *httptest.Server {
	s := NewServer(":0", &stubProvider{status: status}, internal.NewLogger(internal.LogLevelError))
	return httptest.NewServer(s.http.Handler)
}

func TestHealthEndpoint(t *testing.T) {
	ts := testServer(Status{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status ok", body)
	}
}

func TestStatusEndpoint(t *testing.T) {
	want := Status{
		SessionID:       "sess-1",
		Phase:           "monitoring",
		FramesProcessed: 42,
		Deployed:        1,
	}
	ts := testServer(want)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s", ct)
	}

	var got Status
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.SessionID != want.SessionID || got.Phase != want.Phase || got.FramesProcessed != want.FramesProcessed {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
