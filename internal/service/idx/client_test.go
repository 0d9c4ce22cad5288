package idx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bandarscan/internal/domain/models"
	"bandarscan/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func summaryBody(codes ...string) []byte {
	resp := summaryResponse{Draw: 1, RecordsTotal: len(codes)}
	for _, c := range codes {
		resp.Data = append(resp.Data, models.RawRecord{StockCode: c, Previous: 100, Close: 101})
	}
	b, _ := json.Marshal(resp)
	return b
}

func TestFetchSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("length") != "9999" || r.URL.Query().Get("start") != "0" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") == "" || r.Header.Get("Referer") == "" {
			t.Error("browser headers missing")
		}
		w.Write(summaryBody("BBCA", "BBRI"))
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t))
	records, err := c.FetchSummary(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 2 || records[0].StockCode != "BBCA" {
		t.Fatalf("records: %+v", records)
	}
}

func TestFetchSummaryRetriesTransientFailure(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write(summaryBody("BBCA"))
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t), WithRetries(2, 10*time.Millisecond))
	records, err := c.FetchSummary(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(records) != 1 || hits.Load() != 2 {
		t.Fatalf("expected success on second attempt, hits=%d", hits.Load())
	}
}

func TestFetchSummaryMalformedNotRetried(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t), WithRetries(3, 10*time.Millisecond))
	_, err := c.FetchSummary(context.Background())
	if !errors.Is(err, ErrMalformedUpstream) {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("malformed payload must not be retried, hits=%d", hits.Load())
	}
}

func TestFetchSummaryEmptyDataIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"draw":1,"recordsTotal":0,"data":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t))
	if _, err := c.FetchSummary(context.Background()); !errors.Is(err, ErrMalformedUpstream) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestFetchSummaryExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t), WithRetries(1, time.Millisecond))
	if _, err := c.FetchSummary(context.Background()); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
