// Package translate fills missing target-locale catalog values through an
// external machine translation service.
//
// The service is reached through the Translator interface. Client
// implements it for the Baidu general translation API; any failure of a
// single call falls back to the source text so a run always completes.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the logger used by package translate.
var Logger zerolog.Logger = log.With().Str("sys", "translate").Logger()

var (
	// ErrNoCredentials is returned without contacting the service when no
	// credentials are configured. It never counts as a call.
	ErrNoCredentials = errors.New("no translation credentials configured")
	// ErrBadResponse reports a reply the client cannot interpret.
	ErrBadResponse = errors.New("unexpected translation response")
)

// Translator turns one source text into the target language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(ctx context.Context, text string) (string, error)

// Translate calls f(ctx, text).
func (f TranslatorFunc) Translate(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Credentials identify the caller to the translation service.
type Credentials struct {
	AppID  string
	Secret string
}

// Empty reports whether either part is missing.
func (c Credentials) Empty() bool {
	return c.AppID == "" || c.Secret == ""
}

// VendorError is an error reported by the translation service itself.
type VendorError struct {
	Code    string
	Message string
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("translation service error %s: %s", e.Code, e.Message)
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

// makeHTTPClient creates an HTTP client with optional proxy support.
func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// An explicit proxy wins over HTTP_PROXY/HTTPS_PROXY
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
