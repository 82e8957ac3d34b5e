// Package fetcher performs plain HTTP requests for sources that expose an
// API instead of a browser-rendered page.
package fetcher

import (
	"net/http"
	"time"
)

// Response is a fully read, decompressed HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}
