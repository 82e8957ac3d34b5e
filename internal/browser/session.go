// Package browser owns the single browser session a run drives. The
// orchestrator creates it, passes it to the active adapter and closes it
// when the run ends; nothing here is process-global.
package browser

import (
	"context"
	"time"
)

// Session is the subset of a browser tab the adapters use. Calls are
// sequential: a session never has two outstanding operations.
type Session interface {
	// Navigate loads url and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// Eval runs a JavaScript function in the page and returns its result
	// as a string. Promises are awaited.
	Eval(ctx context.Context, js string, args ...any) (string, error)

	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)

	// Capture subscribes to network traffic, calls trigger, and returns the
	// first finished response whose URL satisfies match. If none arrives
	// within timeout it returns types.ErrNoResponse.
	Capture(ctx context.Context, match func(url string) bool, timeout time.Duration, trigger func() error) (*Captured, error)

	// Close releases the tab and the browser behind it.
	Close() error
}

// Captured is one intercepted request/response pair.
type Captured struct {
	URL         string
	Method      string
	Headers     map[string]string
	RequestBody string
	Status      int
	Body        string
}
