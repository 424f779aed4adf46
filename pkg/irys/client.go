// Package irys is a client for the Irys registration eligibility endpoint.
//
// A Client performs exactly one request per call. Retrying, proxy selection and
// payload interpretation are left to the caller.
package irys

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"
)

const (
	DefaultEndpoint  = "https://registration.irys.xyz/api/eligibility"
	DefaultReferer   = "https://registration.irys.xyz/"
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/142.0.0.0 Safari/537.36"

	defaultDialTimeout = 6 * time.Second
	maxBodyBytes       = 1 << 20
)

// Sentinel errors. Every failed Check wraps exactly one of them.
var (
	ErrNetwork          = errors.New("network request failed")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrDecode           = errors.New("response decoding failed")
	ErrInvalidProxy     = errors.New("invalid proxy")
)

// Headers are sent with every request.
// An empty Host keeps the host of the endpoint URL.
type Headers struct {
	Host      string
	Referer   string
	UserAgent string
}

// Option configures the Client
type Option func(*Client)

// WithHeaders overrides the default request headers
func WithHeaders(h Headers) Option {
	return func(c *Client) { c.headers = h }
}

// WithDialTimeout bounds TCP connect and TLS handshake for every transport
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) { c.dialTimeout = d }
}

// Client represents the eligibility API client.
// It keeps one transport per proxy so connections are reused across addresses.
type Client struct {
	endpoint    string
	headers     Headers
	dialTimeout time.Duration

	mu      sync.Mutex
	clients map[string]*http.Client
}

// NewClient creates a client for the given endpoint URL
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		headers: Headers{
			Referer:   DefaultReferer,
			UserAgent: DefaultUserAgent,
		},
		dialTimeout: defaultDialTimeout,
		clients:     make(map[string]*http.Client),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check asks the endpoint about one address and returns the decoded JSON payload.
// An empty proxyURI means a direct connection. The payload is decoded with
// json.Number for numbers so that raw values survive re-encoding untouched.
func (c *Client) Check(ctx context.Context, address, proxyURI string) (any, error) {
	req, err := c.newRequest(ctx, address)
	if err != nil {
		return nil, err
	}

	httpClient, err := c.clientFor(proxyURI)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return decodePayload(io.LimitReader(resp.Body, maxBodyBytes))
}

func (c *Client) newRequest(ctx context.Context, address string) (*http.Request, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing endpoint: %w", ErrNetwork, err)
	}
	q := u.Query()
	q.Set("address", address)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrNetwork, err)
	}

	if c.headers.Host != "" {
		req.Host = c.headers.Host
	}
	if c.headers.Referer != "" {
		req.Header.Set("Referer", c.headers.Referer)
	}
	if c.headers.UserAgent != "" {
		req.Header.Set("User-Agent", c.headers.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// decodePayload rejects empty bodies, non-JSON bodies and bodies with trailing data.
func decodePayload(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrDecode)
	}
	return payload, nil
}

func (c *Client) clientFor(proxyURI string) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if hc, ok := c.clients[proxyURI]; ok {
		return hc, nil
	}

	transport, err := c.newTransport(proxyURI)
	if err != nil {
		return nil, err
	}

	hc := &http.Client{Transport: transport}
	c.clients[proxyURI] = hc
	return hc, nil
}

func (c *Client) newTransport(proxyURI string) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   c.dialTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   c.dialTimeout,
		ResponseHeaderTimeout: c.dialTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
	}

	if proxyURI == "" {
		return transport, nil
	}

	u, err := ParseProxyURL(proxyURI)
	if err != nil {
		return nil, err
	}

	switch u.Scheme {
	case "http", "https":
		// Credentials in the URL become a Proxy-Authorization: Basic header.
		transport.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		d, err := proxy.FromURL(u, dialer)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
		}
		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("%w: socks5 dialer does not support contexts", ErrInvalidProxy)
		}
		transport.DialContext = cd.DialContext
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidProxy, u.Scheme)
	}

	return transport, nil
}

// ParseProxyURL parses a proxy URI. Entries without a scheme are treated as
// plain HTTP proxies, so "10.0.0.1:8080" means "http://10.0.0.1:8080".
func ParseProxyURL(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProxy, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidProxy, u.Redacted())
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return u, nil
}
