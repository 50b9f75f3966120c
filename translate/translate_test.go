package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		Endpoint:    srv.URL,
		From:        "zh",
		To:          "en",
		Credentials: Credentials{AppID: "app", Secret: "sec"},
		MaxRetries:  2,
	})
	c.salt = func() string { return "42" }
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestSign(t *testing.T) {
	assert.Equal(t, "f89f9594663708c1605f3d736d01d2d4", Sign("2015063000000001", "apple", "1435660288", "12345678"))
}

func TestClientTranslate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "你好", q.Get("q"))
		assert.Equal(t, "zh", q.Get("from"))
		assert.Equal(t, "en", q.Get("to"))
		assert.Equal(t, "app", q.Get("appid"))
		assert.Equal(t, "42", q.Get("salt"))
		assert.Equal(t, Sign("app", "你好", "42", "sec"), q.Get("sign"))
		fmt.Fprint(w, `{"from":"zh","to":"en","trans_result":[{"src":"你好","dst":"Hello"}]}`)
	})

	got, err := c.Translate(context.Background(), "你好")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)
}

func TestClientJoinsLines(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"trans_result":[{"src":"第一行","dst":"Line one"},{"src":"第二行","dst":"Line two"}]}`)
	})

	got, err := c.Translate(context.Background(), "第一行\n第二行")
	require.NoError(t, err)
	assert.Equal(t, "Line one\nLine two", got)
}

func TestClientRetriesFrequencyLimit(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			fmt.Fprint(w, `{"error_code":"54003","error_msg":"Invalid Access Limit"}`)
			return
		}
		fmt.Fprint(w, `{"trans_result":[{"src":"好","dst":"Good"}]}`)
	})

	got, err := c.Translate(context.Background(), "好")
	require.NoError(t, err)
	assert.Equal(t, "Good", got)
	assert.Equal(t, int32(2), hits.Load())
}

func TestClientGivesUpOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Translate(context.Background(), "好")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, int32(3), hits.Load())
}

func TestClientVendorErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"error_code":"54001","error_msg":"Invalid Sign"}`)
	})

	_, err := c.Translate(context.Background(), "好")
	var verr *VendorError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "54001", verr.Code)
	assert.Equal(t, "Invalid Sign", verr.Message)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClientBadResponse(t *testing.T) {
	for name, body := range map[string]string{
		"not json":     `<html>oops</html>`,
		"no result":    `{"from":"zh","to":"en"}`,
		"empty result": `{"trans_result":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			})
			_, err := c.Translate(context.Background(), "好")
			assert.ErrorIs(t, err, ErrBadResponse)
		})
	}
}

func TestClientWithoutCredentials(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewClient(Config{Endpoint: srv.URL, From: "zh", To: "en", Credentials: Credentials{AppID: "only-id"}})
	_, err := c.Translate(context.Background(), "好")
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Equal(t, int32(0), hits.Load())
}

// ---------------------------------------------------------------------------
// VendorCode
// ---------------------------------------------------------------------------

func TestVendorCode(t *testing.T) {
	tests := map[string]string{
		"zh-CN":   "zh",
		"zh":      "zh",
		"zh-Hans": "zh",
		"zh-TW":   "cht",
		"zh-HK":   "cht",
		"zh-Hant": "cht",
		"en-US":   "en",
		"en":      "en",
		"ja":      "jp",
		"ja-JP":   "jp",
		"ko-KR":   "kor",
		"fr":      "fra",
		"es-MX":   "spa",
		"ar":      "ara",
		"vi":      "vie",
		"de-DE":   "de",
		"ru":      "ru",
	}
	for locale, want := range tests {
		got, err := VendorCode(locale)
		require.NoError(t, err, locale)
		assert.Equal(t, want, got, locale)
	}

	_, err := VendorCode("not a locale!")
	assert.Error(t, err)
}
