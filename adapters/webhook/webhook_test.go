package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"vitals/domain/alerting"
	"vitals/domain/core"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func testAlert() alerting.Alert {
	return alerting.Alert{
		ID:       core.AlertID(core.NewID()),
		Kind:     alerting.KindThreshold,
		Metric:   "page_load_time",
		Severity: "high",
		Message:  "page_load_time over threshold",
	}
}

func TestDelivery(t *testing.T) {
	var got atomic.Int32
	var lastBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var alert alerting.Alert
		if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		lastBody.Store(alert.Metric)
		got.Add(1)
	}))
	defer srv.Close()

	ch := New(DefaultConfig(srv.URL))
	if !ch.Enabled() {
		t.Fatal("channel with URL should be enabled")
	}
	if err := ch.Send(context.Background(), testAlert()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return got.Load() == 1 })
	if lastBody.Load() != "page_load_time" {
		t.Errorf("payload metric = %v", lastBody.Load())
	}
}

func TestRetryThenSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	ch := New(DefaultConfig(srv.URL))
	if err := ch.Send(context.Background(), testAlert()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return calls.Load() == 2 })
}

func TestRetriesBounded(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := DefaultConfig(srv.URL)
	cfg.MaxRetries = 1
	ch := New(cfg)
	if err := ch.Send(context.Background(), testAlert()); err != nil {
		t.Fatal(err)
	}

	// Initial attempt plus one retry, then the alert is dropped.
	waitFor(t, func() bool { return calls.Load() == 2 })
	time.Sleep(100 * time.Millisecond)
	if calls.Load() != 2 {
		t.Errorf("attempts = %d, want 2", calls.Load())
	}
}

func TestDisabledWithoutURL(t *testing.T) {
	ch := New(Config{})
	if ch.Enabled() {
		t.Error("channel without URL should be disabled")
	}
}

func TestSendNeverBlocks(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	cfg := DefaultConfig(srv.URL)
	cfg.MaxInFlight = 1
	ch := New(cfg)

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := ch.Send(context.Background(), testAlert()); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Send blocked for %v", elapsed)
	}
}
