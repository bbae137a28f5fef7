// Package httpds fetches pages over HTTP with resty. Every request URL, and
// every redirect hop, must belong to an allowed domain. There is no retry: a
// failed fetch fails the run.
package httpds

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrDomainNotAllowed is returned when a URL's host is outside the allowed
// domains.
var ErrDomainNotAllowed = errors.New("httpds: domain not allowed")

// DefaultUserAgent identifies the scraper to the remote site.
const DefaultUserAgent = "countriesgdp/1.0 (+https://en.wikipedia.org/wiki/List_of_countries_by_GDP_(nominal))"

// Config configures the HTTP client.
//
// Zero values are given sensible defaults:
//   - Timeout:      30s
//   - UserAgent:    DefaultUserAgent
//   - MaxRedirects: 10
type Config struct {
	// Timeout bounds one request including reading the body.
	Timeout time.Duration

	// UserAgent is sent on every request.
	UserAgent string

	// AllowedDomains restricts request and redirect hosts. A domain matches
	// itself and its subdomains ("wikipedia.org" allows "en.wikipedia.org").
	// Empty allows any host.
	AllowedDomains []string

	// MaxRedirects caps redirect hops.
	MaxRedirects int

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// BaseHeaders are added to every request.
	BaseHeaders http.Header

	// Transport is an optional custom RoundTripper (tests).
	Transport http.RoundTripper
}

// Client wraps a resty client with the domain guard.
type Client struct {
	http    *resty.Client
	allowed []string
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 10
	}

	c := &Client{allowed: normalizeDomains(cfg.AllowedDomains)}

	r := resty.New()
	if cfg.Transport != nil {
		r.SetTransport(cfg.Transport)
	} else if cfg.InsecureSkipVerify {
		r.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // explicitly configurable
	}
	r.SetTimeout(cfg.Timeout)
	r.SetRetryCount(0)
	r.SetHeader("User-Agent", cfg.UserAgent)
	for k, vs := range cfg.BaseHeaders {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}

	maxRedirects := cfg.MaxRedirects
	r.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("httpds: stopped after %d redirects", maxRedirects)
		}
		return c.check(req.URL)
	}))

	c.http = r
	return c
}

func normalizeDomains(ds []string) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			out = append(out, d)
		}
	}
	return out
}

// Allowed reports whether rawURL may be fetched.
func (c *Client) Allowed(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("httpds: parse url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("httpds: unsupported scheme %q in %q", u.Scheme, rawURL)
	}
	return c.check(u)
}

func (c *Client) check(u *url.URL) error {
	if len(c.allowed) == 0 {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range c.allowed {
		if host == d || strings.HasSuffix(host, "."+d) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (allowed: %s)", ErrDomainNotAllowed, host, strings.Join(c.allowed, ", "))
}

// Open GETs rawURL and returns the unparsed response body. Non-2xx statuses
// are errors. The caller must close the body.
func (c *Client) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if err := c.Allowed(rawURL); err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("httpds: GET %s: %w", rawURL, err)
	}
	body := resp.RawBody()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		if body != nil {
			_ = body.Close()
		}
		return nil, fmt.Errorf("httpds: GET %s: unexpected status %s", rawURL, resp.Status())
	}
	return body, nil
}

// Source binds a Client to one URL; it implements datasource.Source.
type Source struct {
	client *Client
	url    string
}

// NewSource returns a Source fetching rawURL through c.
func NewSource(c *Client, rawURL string) *Source { return &Source{client: c, url: rawURL} }

// Open implements datasource.Source.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) { return s.client.Open(ctx, s.url) }

// Describe implements datasource.Source.
func (s *Source) Describe() string { return s.url }
