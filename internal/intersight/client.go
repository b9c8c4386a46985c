// Package intersight is a minimal read-only client for the Cisco Intersight REST API.
package intersight

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	exporrors "github.com/gnuowned/intersight-exporter/internal/errors"
)

// Client is the set of Intersight reads the poll loop depends on.
type Client interface {
	PhysicalSummaryCount(ctx context.Context) (int64, error)
	BladeCount(ctx context.Context) (int64, error)
	RackUnitCount(ctx context.Context) (int64, error)
	ListHxClusters(ctx context.Context) ([]ClusterSummary, error)
	ListHxHealth(ctx context.Context) ([]HealthRecord, error)
}

// Observer receives one observation per API request.
type Observer interface {
	ObserveAPIRequest(operation, status string, duration time.Duration)
}

// ClientConfig holds configuration for DefaultClient.
type ClientConfig struct {
	BaseURI            string
	KeyID              string
	PrivateKeyPath     string
	RequestTimeout     time.Duration
	InsecureSkipVerify bool
}

// DefaultClient implements Client over net/http with HTTP Signature authentication.
type DefaultClient struct {
	http     *http.Client
	baseURI  string
	signer   *Signer
	observer Observer
}

// Option customizes a DefaultClient.
type Option func(*DefaultClient)

// WithObserver records every request on o.
func WithObserver(o Observer) Option {
	return func(c *DefaultClient) { c.observer = o }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *DefaultClient) { c.http = hc }
}

// WithSigner replaces the signer built from the key file.
func WithSigner(s *Signer) Option {
	return func(c *DefaultClient) { c.signer = s }
}

// NewDefaultClient constructs a DefaultClient. The private key is read once here;
// a missing or unparsable key is a configuration error.
func NewDefaultClient(cfg ClientConfig, opts ...Option) (*DefaultClient, error) {
	if cfg.BaseURI == "" {
		return nil, exporrors.ConfigInvalid("intersight base URI is required", nil)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	c := &DefaultClient{
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		baseURI: strings.TrimRight(cfg.BaseURI, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.signer == nil {
		signer, err := LoadSigner(cfg.KeyID, cfg.PrivateKeyPath)
		if err != nil {
			return nil, exporrors.KeyInvalid(cfg.PrivateKeyPath, err)
		}
		c.signer = signer
	}

	return c, nil
}

// BaseURI returns the configured API root.
func (c *DefaultClient) BaseURI() string {
	return c.baseURI
}

// doGet performs a signed GET of path (relative to the API root) and returns the body.
// Every failure is an ApiError naming operation.
func (c *DefaultClient) doGet(ctx context.Context, operation, path string) (body []byte, err error) {
	start := time.Now()
	status := "error"
	defer func() {
		if c.observer != nil {
			c.observer.ObserveAPIRequest(operation, status, time.Since(start))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURI+path, nil)
	if err != nil {
		return nil, exporrors.Transport(operation, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	if err := c.signer.Sign(req, nil); err != nil {
		return nil, exporrors.Signing(operation, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, exporrors.Transport(operation, err)
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	const maxResponseBytes = 16 * 1024 * 1024
	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, exporrors.Transport(operation, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, exporrors.UnexpectedStatus(operation, resp.StatusCode, truncate(body, 200))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
