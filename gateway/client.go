package gateway

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/jrsteele09/go-intercom-bridge/internal/utils"
	"github.com/jrsteele09/go-intercom-bridge/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Request is one upstream call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Quiet   bool // suppress per-call debug logging
}

// Client is the single chokepoint for upstream HTTP traffic.
type Client struct {
	httpClient *http.Client
	session    *sessions.Session
	limiter    *rate.Limiter
	timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.timeout = d
	}
}

func WithLimiter(l *rate.Limiter) Option {
	return func(cl *Client) {
		cl.limiter = l
	}
}

func New(session *sessions.Session, opts ...Option) (*Client, error) {
	if session == nil {
		return nil, errors.New("[gateway.New] session is required")
	}
	c := &Client{
		httpClient: &http.Client{},
		session:    session,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send performs req and normalises the response. A timeout on a
// single-variant URL is retried once on the community variant.
func (c *Client) Send(ctx context.Context, req Request) (Result, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	req.URL = strings.ReplaceAll(req.URL, SubdomainPlaceholder, c.session.Subdomain()+".")
	return c.send(ctx, req, true)
}

func (c *Client) send(ctx context.Context, req Request, retry bool) (Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, errors.Wrap(err, "[Client.Send] waiting for rate limiter")
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(attemptCtx, req.Method, req.URL, body)
	if err != nil {
		return Result{}, errors.Wrapf(internalerrors.ErrClient, "[Client.Send] building request for %s: %v", redact(req.URL), err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if host, ok := req.Headers["Host"]; ok {
		httpReq.Host = host
	}

	if !req.Quiet {
		log.Debug().Str("method", req.Method).Str("url", redact(req.URL)).Msg("sending upstream request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.failed(ctx, req, retry, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.failed(ctx, req, retry, err)
	}

	result, err := Normalise(resp.StatusCode, raw)
	if err != nil {
		log.Warn().Err(err).Str("url", redact(req.URL)).Int("status", resp.StatusCode).Str("body", truncate(raw, 256)).Msg("unusable upstream response")
		return Result{}, err
	}
	return result, nil
}

func (c *Client) failed(ctx context.Context, req Request, retry bool, err error) (Result, error) {
	if ctx.Err() != nil {
		return Result{}, errors.Wrap(ctx.Err(), "[Client.Send] cancelled")
	}

	if isTimeout(err) {
		return c.timedOut(ctx, req, retry)
	}

	if isNetwork(err) {
		return Result{}, errors.Wrapf(internalerrors.ErrCommunication, "[Client.Send] %s %s: %v", req.Method, redact(req.URL), err)
	}
	return Result{}, errors.Wrapf(internalerrors.ErrClient, "[Client.Send] %s %s: %v", req.Method, redact(req.URL), err)
}

func (c *Client) timedOut(ctx context.Context, req Request, retry bool) (Result, error) {
	single := sessions.AppTypeSingle.PathSegment()
	community := sessions.AppTypeCommunity.PathSegment()

	switch {
	case retry && strings.Contains(req.URL, single):
		log.Warn().Str("method", req.Method).Str("url", redact(req.URL)).Msg("request on single app path timed out, retrying on community")
		c.session.SetAppType(sessions.AppTypeCommunity)
		req.URL = strings.Replace(req.URL, single, community, 1)
		return c.send(ctx, req, false)
	case strings.Contains(req.URL, community):
		log.Error().Str("method", req.Method).Str("url", redact(req.URL)).Msg("request on community app path timed out")
		c.session.SetAppType(sessions.AppTypeSingle)
	}
	return Result{}, errors.Wrapf(internalerrors.ErrCommunication, "[Client.Send] timeout after %s for %s", c.timeout, redact(req.URL))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isNetwork(err error) bool {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	return errors.As(err, &dnsErr) || errors.As(err, &opErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// redact masks token query parameters before a URL is logged.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, k := range []string{"token", "TOKEN"} {
		if v := q.Get(k); v != "" {
			q.Set(k, utils.Mask(v))
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
