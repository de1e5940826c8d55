// Package backend is the client for the notes REST/JSON backend. Session
// credentials travel as cookies kept in the client's jar.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const maxResponseSize = 4 << 20

type Client struct {
	base *url.URL
	jar  http.CookieJar
	http *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the transport. The client's cookie jar is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{base: base, jar: jar, http: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Jar = jar
	return c, nil
}

// Cookies returns the backend session cookies held by this client.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.base)
}

// SetCookies restores previously saved session cookies.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.jar.SetCookies(c.base, cookies)
}

// ClearCookies expires every cookie for the backend host.
func (c *Client) ClearCookies() {
	var expired []*http.Cookie
	for _, ck := range c.jar.Cookies(c.base) {
		expired = append(expired, &http.Cookie{Name: ck.Name, Value: "", Path: "/", MaxAge: -1})
	}
	if len(expired) > 0 {
		c.jar.SetCookies(c.base, expired)
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do performs one request. A nil body means no payload; a 204 returns nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, transportError("encode request", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, transportError("build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(method+" "+path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, transportError("read response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp.StatusCode, data)
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return data, nil
}

func unexpectedShape(what string, err error) *Error {
	return transportError("unexpected "+what+" payload", err)
}
