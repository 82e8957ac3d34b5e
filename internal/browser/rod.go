package browser

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/auction-ingest/internal/config"
	"github.com/IshaanNene/auction-ingest/internal/types"
)

// RodSession implements Session on a single Rod page.
type RodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	timeout  time.Duration
	logger   *slog.Logger
}

// Launch starts Chromium and opens the run's only tab.
func Launch(cfg *config.Config, logger *slog.Logger) (*RodSession, error) {
	s := &RodSession{
		timeout: cfg.Scraper.NavigationTimeout,
		logger:  logger.With("component", "browser"),
	}

	l := launcher.New().
		Headless(cfg.Browser.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("lang", cfg.Browser.Locale)
	if cfg.Browser.BinPath != "" {
		l = l.Bin(cfg.Browser.BinPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	s.launcher = l

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	s.browser = b

	var page *rod.Page
	if cfg.Browser.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	s.page = page

	err = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      cfg.Browser.UserAgent,
		AcceptLanguage: cfg.Browser.Locale,
	})
	if err != nil {
		s.logger.Warn("failed to set user agent", "error", err)
	}

	s.logger.Info("browser session ready",
		"headless", cfg.Browser.Headless,
		"stealth", cfg.Browser.Stealth,
	)
	return s, nil
}

// Navigate implements Session.
func (s *RodSession) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx).Timeout(s.timeout)
	if err := p.Navigate(url); err != nil {
		return &types.FetchError{URL: url, Err: err, Retryable: true}
	}
	if err := p.WaitStable(300 * time.Millisecond); err != nil {
		s.logger.Warn("page stability timeout, continuing", "url", url, "error", err)
	}
	return nil
}

// Eval implements Session.
func (s *RodSession) Eval(ctx context.Context, js string, args ...any) (string, error) {
	res, err := s.page.Context(ctx).Timeout(s.timeout).Eval(js, args...)
	if err != nil {
		return "", fmt.Errorf("eval: %w", err)
	}
	if res == nil || res.Value.Nil() {
		return "", nil
	}
	return res.Value.Str(), nil
}

// HTML implements Session.
func (s *RodSession) HTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).Timeout(s.timeout).HTML()
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

// Capture implements Session. The subscription is one-shot: it ends on
// the first matching response or when the timeout elapses.
func (s *RodSession) Capture(ctx context.Context, match func(url string) bool, timeout time.Duration, trigger func() error) (*Captured, error) {
	if err := (proto.NetworkEnable{}).Call(s.page.Context(ctx)); err != nil {
		return nil, fmt.Errorf("enable network events: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		requestID proto.NetworkRequestID
		captured  Captured
		finished  bool
	)
	wait := s.page.Context(waitCtx).EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			if requestID != "" || !match(e.Request.URL) {
				return
			}
			requestID = e.RequestID
			captured.URL = e.Request.URL
			captured.Method = e.Request.Method
			captured.RequestBody = e.Request.PostData
			captured.Headers = make(map[string]string, len(e.Request.Headers))
			for k, v := range e.Request.Headers {
				captured.Headers[k] = v.Str()
			}
		},
		func(e *proto.NetworkResponseReceived) {
			if requestID != "" && e.RequestID == requestID {
				captured.Status = e.Response.Status
			}
		},
		func(e *proto.NetworkLoadingFinished) bool {
			finished = requestID != "" && e.RequestID == requestID
			return finished
		},
	)

	if err := trigger(); err != nil {
		return nil, fmt.Errorf("trigger: %w", err)
	}
	wait()

	if !finished {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, types.ErrNoResponse
	}

	body, err := proto.NetworkGetResponseBody{RequestID: requestID}.Call(s.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("read captured body: %w", err)
	}
	captured.Body = body.Body
	if body.Base64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body.Body)
		if err != nil {
			return nil, fmt.Errorf("decode captured body: %w", err)
		}
		captured.Body = string(raw)
	}

	s.logger.Debug("response captured", "url", captured.URL, "status", captured.Status, "size", len(captured.Body))
	return &captured, nil
}

// Close implements Session.
func (s *RodSession) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	return errors.Join(errs...)
}
