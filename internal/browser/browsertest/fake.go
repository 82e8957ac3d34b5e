// Package browsertest provides a scripted browser.Session for adapter tests.
package browsertest

import (
	"context"
	"sync"
	"time"

	"github.com/IshaanNene/auction-ingest/internal/browser"
)

// Session is a browser.Session whose behaviour is supplied by funcs. Nil
// funcs succeed with zero values. Every call is recorded.
type Session struct {
	NavigateFunc func(url string) error
	EvalFunc     func(js string, args []any) (string, error)
	HTMLFunc     func() (string, error)
	CaptureFunc  func(match func(string) bool, trigger func() error) (*browser.Captured, error)

	mu          sync.Mutex
	navigations []string
	evals       []string
	closed      bool
}

var _ browser.Session = (*Session)(nil)

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.navigations = append(s.navigations, url)
	s.mu.Unlock()
	if s.NavigateFunc == nil {
		return nil
	}
	return s.NavigateFunc(url)
}

func (s *Session) Eval(ctx context.Context, js string, args ...any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.evals = append(s.evals, js)
	s.mu.Unlock()
	if s.EvalFunc == nil {
		return "", nil
	}
	return s.EvalFunc(js, args)
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.HTMLFunc == nil {
		return "", nil
	}
	return s.HTMLFunc()
}

func (s *Session) Capture(ctx context.Context, match func(string) bool, _ time.Duration, trigger func() error) (*browser.Captured, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.CaptureFunc == nil {
		return nil, trigger()
	}
	return s.CaptureFunc(match, trigger)
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Navigations returns the URLs passed to Navigate, in order.
func (s *Session) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// Evals returns the scripts passed to Eval, in order.
func (s *Session) Evals() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.evals...)
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
