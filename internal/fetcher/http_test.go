package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/auction-ingest/internal/config"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestGetAppendsParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte("<response/>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(config.DefaultConfig(), 5*time.Second, testLogger)
	defer f.Close()

	resp, err := f.Get(context.Background(), srv.URL+"/list?fixed=1", url.Values{"pageNo": {"2"}})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body) != "<response/>" {
		t.Errorf("body = %q", resp.Body)
	}
	if gotQuery.Get("fixed") != "1" || gotQuery.Get("pageNo") != "2" {
		t.Errorf("query = %v", gotQuery)
	}
}

func TestGetDecodesBrotli(t *testing.T) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, _ = w.Write([]byte("<items>compressed</items>"))
	_ = w.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Encoding", "br")
		_, _ = rw.Write(buf.Bytes())
	}))
	defer srv.Close()

	f := NewHTTPFetcher(config.DefaultConfig(), 5*time.Second, testLogger)
	resp, err := f.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(resp.Body) != "<items>compressed</items>" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestGetStatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusInternalServerError, true},
		{http.StatusTooManyRequests, true},
		{http.StatusForbidden, false},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		f := NewHTTPFetcher(config.DefaultConfig(), 5*time.Second, testLogger)
		_, err := f.Get(context.Background(), srv.URL, nil)
		srv.Close()

		var fe *types.FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("status %d: expected FetchError, got %v", tt.status, err)
		}
		if fe.StatusCode != tt.status || fe.IsRetryable() != tt.retryable {
			t.Errorf("status %d: got status=%d retryable=%v", tt.status, fe.StatusCode, fe.IsRetryable())
		}
	}
}

func TestIsRetryableError(t *testing.T) {
	if isRetryableError(nil) {
		t.Error("nil should not be retryable")
	}
	if isRetryableError(context.Canceled) {
		t.Error("cancellation should not be retryable")
	}
	if !isRetryableError(io.ErrUnexpectedEOF) {
		t.Error("unexpected EOF should be retryable")
	}
}
