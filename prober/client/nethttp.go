package client

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gitlab.com/pwprobe/pwprobe"
)

// maxBodySize caps how much of a login response is read for matching
const maxBodySize = 10 << 20

// Option configures a NetHTTPClient
type Option func(c *NetHTTPClient)

// WithTimeout per request
func WithTimeout(timeout time.Duration) Option {
	return func(c *NetHTTPClient) {
		c.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header on every submission
func WithUserAgent(userAgent string) Option {
	return func(c *NetHTTPClient) {
		c.userAgent = userAgent
	}
}

// WithInsecureSkipVerify disables tls certificate verification
func WithInsecureSkipVerify(insecure bool) Option {
	return func(c *NetHTTPClient) {
		c.insecure = insecure
	}
}

// WithHTTPClient uses client as is, timeout and tls options are ignored
func WithHTTPClient(client *http.Client) Option {
	return func(c *NetHTTPClient) {
		c.client = client
	}
}

// WithLogger for debug output of each request
func WithLogger(logger zerolog.Logger) Option {
	return func(c *NetHTTPClient) {
		c.logger = logger
	}
}

// NetHTTPClient posts login forms with net/http
type NetHTTPClient struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	insecure  bool
	logger    zerolog.Logger
}

// New form client. Without a cookie jar, so attempts do not share a session.
func New(opts ...Option) *NetHTTPClient {
	c := &NetHTTPClient{
		timeout: pwprobe.DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.insecure {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		c.client = &http.Client{
			Timeout:   c.timeout,
			Transport: transport,
		}
	}
	c.logger = c.logger.With().Str("backend", "nethttp").Logger()
	return c
}

// PostForm submits form to target as application/x-www-form-urlencoded
func (c *NetHTTPClient) PostForm(ctx context.Context, target string, form url.Values) (*pwprobe.HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug().Str("url", target).Msg("submitting login form")
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "http do")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	response := &pwprobe.HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		Duration:   time.Since(start),
	}
	c.logger.Debug().Int("status", resp.StatusCode).Dur("duration", response.Duration).Msg("login form response")

	if resp.StatusCode >= http.StatusBadRequest {
		return response, &pwprobe.StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return response, nil
}

// Close idle connections
func (c *NetHTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
