package httputil

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"wbb_scrooper/config"
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

type Clients struct {
	Scraping   *resty.Client // athletics sites, follows redirects
	API        *resty.Client // JSON feeds
	NoRedirect *resty.Client // single-hop redirect resolution
	cache      *Cache
}

type Response struct {
	URL        string
	StatusCode int
	Body       []byte
	Header     http.Header
}

func NewClients(cfg config.HTTPConfig) *Clients {
	build := func() *resty.Client {
		c := resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("User-Agent", cfg.UserAgent).
			SetRetryCount(cfg.Retries).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
			})
		if cfg.ProxyURL != "" {
			c.SetProxy(cfg.ProxyURL)
		}
		if cfg.InsecureTLS {
			c.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
		}
		return c
	}

	noRedirect := build().SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}))

	clients := &Clients{
		Scraping:   build(),
		API:        build().SetHeader("Accept", "application/json"),
		NoRedirect: noRedirect,
	}
	if cfg.CacheDir != "" {
		clients.cache = NewCache(cfg.CacheDir)
	}
	return clients
}

// Get fetches a page. Non-2xx statuses return the response together with an
// error; 404 wraps ErrNotFound.
func (c *Clients) Get(ctx context.Context, rawURL string) (*Response, error) {
	return do(ctx, c.Scraping, http.MethodGet, rawURL, nil)
}

// GetWithHeaders is Get with extra request headers.
func (c *Clients) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	return do(ctx, c.Scraping, http.MethodGet, rawURL, headers)
}

// GetCached serves successful bodies from the disk cache when one is configured.
func (c *Clients) GetCached(ctx context.Context, rawURL string) ([]byte, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(rawURL); ok {
			return body, nil
		}
	}

	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(rawURL, resp.Body); err != nil {
			return resp.Body, fmt.Errorf("cache %s: %w", rawURL, err)
		}
	}
	return resp.Body, nil
}

// GetJSON decodes a JSON response into v.
func (c *Clients) GetJSON(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	resp, err := do(ctx, c.API, http.MethodGet, rawURL, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// Head issues a HEAD request following redirects and returns the final status.
func (c *Clients) Head(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := do(ctx, c.Scraping, http.MethodHead, rawURL, nil)
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// ResolveRedirect follows a single 301/302/307/308 hop. Relative Location
// headers are resolved against the request URL.
func (c *Clients) ResolveRedirect(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.NoRedirect.R().SetContext(ctx).Head(rawURL)
	if err != nil {
		return "", fmt.Errorf("HEAD %s: %w", rawURL, err)
	}

	switch resp.StatusCode() {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		loc := resp.Header().Get("Location")
		if loc == "" {
			return rawURL, nil
		}
		base, err := url.Parse(rawURL)
		if err != nil {
			return loc, nil
		}
		ref, err := url.Parse(loc)
		if err != nil {
			return loc, nil
		}
		return base.ResolveReference(ref).String(), nil
	}
	return rawURL, nil
}

func do(ctx context.Context, client *resty.Client, method, rawURL string, headers map[string]string) (*Response, error) {
	req := client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	resp, err := req.Execute(method, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}

	out := &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Header:     resp.Header(),
	}
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		out.URL = resp.RawResponse.Request.URL.String()
	}

	if resp.StatusCode() == http.StatusNotFound {
		return out, fmt.Errorf("%s %s: %w", method, rawURL, ErrNotFound)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return out, fmt.Errorf("%s %s: status %d", method, rawURL, resp.StatusCode())
	}
	return out, nil
}
