package translate

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the Baidu general translation endpoint.
const DefaultEndpoint = "https://fanyi-api.baidu.com/api/trans/vip/translate"

// Service error codes.
const (
	codeSuccess        = "52000"
	codeFrequencyLimit = "54003"
)

// Config configures a Client.
type Config struct {
	// Endpoint is the translation URL. Default: DefaultEndpoint.
	Endpoint string
	// From and To are the service's language codes, see VendorCode.
	From string
	To   string
	// Credentials authenticate the requests.
	Credentials Credentials
	// QPS caps the request rate; zero or less means unlimited.
	QPS float64
	// Timeout is the per-request timeout. Default: 15s.
	Timeout time.Duration
	// MaxRetries is the number of retries on frequency limits and server
	// errors.
	MaxRetries int
	// Proxy is an optional proxy URL.
	Proxy string
}

// Client translates single texts with the Baidu general translation API.
// It is safe for sequential use; Backfill never calls it concurrently.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter

	salt    func() string
	backoff func(attempt int) time.Duration
}

// NewClient returns a client for cfg.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	limit := rate.Inf
	if cfg.QPS > 0 {
		limit = rate.Limit(cfg.QPS)
	}

	return &Client{
		cfg:     cfg,
		http:    makeHTTPClient(cfg.Proxy, cfg.Timeout),
		limiter: rate.NewLimiter(limit, 1),
		salt: func() string {
			return strconv.Itoa(32768 + rand.IntN(32768))
		},
		backoff: func(attempt int) time.Duration {
			return time.Duration(math.Pow(2, float64(attempt))) * time.Second
		},
	}
}

// Sign computes the request signature md5(appid+q+salt+secret) in
// lowercase hex.
func Sign(appID, q, salt, secret string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(appID+q+salt+secret)))
}

// Translate sends text to the service and returns the translation. Texts
// spanning several lines come back line by line and are joined again.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	creds := c.cfg.Credentials
	if creds.Empty() {
		return "", ErrNoCredentials
	}

	maxRetries := c.cfg.MaxRetries
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}

		salt := c.salt()
		q := url.Values{
			"q":     {text},
			"from":  {c.cfg.From},
			"to":    {c.cfg.To},
			"appid": {creds.AppID},
			"salt":  {salt},
			"sign":  {Sign(creds.AppID, text, salt, creds.Secret)},
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}

		Logger.Debug().
			Int("attempt", attempt+1).
			Str("from", c.cfg.From).
			Str("to", c.cfg.To).
			Msg("Calling translation service")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt < maxRetries && ctx.Err() == nil {
				if err := sleep(ctx, c.backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("translation request failed: %w", err)
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if attempt < maxRetries && resp.StatusCode >= 500 {
				if err := sleep(ctx, c.backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("translation service returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
		}

		if !gjson.ValidBytes(body) {
			return "", fmt.Errorf("%w: %s", ErrBadResponse, truncate(string(body), 200))
		}

		if code := gjson.GetBytes(body, "error_code"); code.Exists() && code.String() != codeSuccess {
			verr := &VendorError{Code: code.String(), Message: gjson.GetBytes(body, "error_msg").String()}
			if verr.Code == codeFrequencyLimit && attempt < maxRetries {
				Logger.Warn().
					Int("attempt", attempt+1).
					Msg("Translation service frequency limit, backing off")
				if err := sleep(ctx, c.backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", verr
		}

		dst := gjson.GetBytes(body, "trans_result.#.dst")
		if !dst.Exists() || len(dst.Array()) == 0 {
			return "", fmt.Errorf("%w: %s", ErrBadResponse, truncate(string(body), 200))
		}
		lines := make([]string, 0, len(dst.Array()))
		for _, l := range dst.Array() {
			lines = append(lines, l.String())
		}
		return strings.Join(lines, "\n"), nil
	}

	return "", fmt.Errorf("translation failed after %d retries", maxRetries)
}
