package httpds

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func hostOf(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Hostname()
}

func TestOpenSuccess(t *testing.T) {
	t.Parallel()

	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, "<table></table>")
	}))
	defer srv.Close()

	c := NewClient(Config{AllowedDomains: []string{hostOf(t, srv.URL)}})
	rc, err := NewSource(c, srv.URL+"/wiki/List").Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()

	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "<table></table>", string(b))
	require.Equal(t, DefaultUserAgent, ua.Load())
}

// A failing status is not retried.
func TestOpenNon2xxNoRetry(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{})
	_, err := c.Open(context.Background(), srv.URL)
	require.ErrorContains(t, err, "503")
	require.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestAllowedDomains(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{AllowedDomains: []string{" Wikipedia.org. "}})

	tests := []struct {
		url  string
		ok   bool
		frag string
	}{
		{url: "https://en.wikipedia.org/wiki/List_of_countries_by_GDP_(nominal)", ok: true},
		{url: "https://wikipedia.org/", ok: true},
		{url: "https://EN.WIKIPEDIA.ORG/", ok: true},
		{url: "https://notwikipedia.org/", frag: "domain not allowed"},
		{url: "https://wikipedia.org.evil.com/", frag: "domain not allowed"},
		{url: "ftp://en.wikipedia.org/", frag: "unsupported scheme"},
	}
	for _, tt := range tests {
		err := c.Allowed(tt.url)
		if tt.ok {
			require.NoError(t, err, tt.url)
			continue
		}
		require.Error(t, err, tt.url)
		require.Contains(t, err.Error(), tt.frag)
	}

	require.NoError(t, NewClient(Config{}).Allowed("https://example.com/"), "empty list allows all")
}

func TestOpenRejectsDisallowedBeforeRequest(t *testing.T) {
	t.Parallel()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := NewClient(Config{AllowedDomains: []string{"wikipedia.org"}})
	_, err := c.Open(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrDomainNotAllowed)
	require.Zero(t, atomic.LoadInt32(&hits))
}

func TestRedirectOutsideAllowedDomains(t *testing.T) {
	t.Parallel()

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "elsewhere")
	}))
	defer target.Close()

	// Same server, but addressed as "localhost" so the host differs.
	other := strings.Replace(target.URL, "127.0.0.1", "localhost", 1)
	src := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, other, http.StatusFound)
	}))
	defer src.Close()

	c := NewClient(Config{AllowedDomains: []string{"127.0.0.1"}})
	_, err := c.Open(context.Background(), src.URL)
	require.ErrorIs(t, err, ErrDomainNotAllowed)
}

func TestOpenContextCanceled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(Config{}).Open(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBaseHeadersAndCustomTransport(t *testing.T) {
	t.Parallel()

	var got http.Header
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Clone()
		return &http.Response{
			StatusCode: http.StatusOK,
			Status:     "200 OK",
			Body:       io.NopCloser(strings.NewReader("ok")),
			Header:     http.Header{},
			Request:    r,
		}, nil
	})

	c := NewClient(Config{
		UserAgent:   "test-agent",
		BaseHeaders: http.Header{"Accept-Language": []string{"en"}},
		Transport:   rt,
	})
	rc, err := c.Open(context.Background(), "https://en.wikipedia.org/")
	require.NoError(t, err)
	rc.Close()

	require.Equal(t, "test-agent", got.Get("User-Agent"))
	require.Equal(t, "en", got.Get("Accept-Language"))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
