package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"betterauth/internal/autherr"
	"betterauth/internal/domain"
	"betterauth/internal/metrics"
)

const (
	// maxReply bounds a server reply.
	maxReply = 1 << 20

	requestIDHeader = "X-Request-ID"
)

// HTTP posts serialized envelopes to a server.
type HTTP struct {
	Base    string
	HTTP    *http.Client
	Limiter *rate.Limiter
	Backoff func(ctx context.Context) backoff.BackOff
	Metrics *metrics.Metrics
}

// Option configures HTTP.
type Option func(*HTTP)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTP) {
		if hc != nil {
			c.HTTP = hc
		}
	}
}

// WithRateLimit caps outgoing attempts at perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *HTTP) {
		if perSecond > 0 {
			c.Limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

// WithRetry retries transient failures with exponential backoff for up to
// maxElapsed. A zero maxElapsed disables retries.
func WithRetry(initial, maxElapsed time.Duration) Option {
	return func(c *HTTP) {
		if maxElapsed <= 0 {
			c.Backoff = noRetry
			return
		}
		c.Backoff = func(ctx context.Context) backoff.BackOff {
			return backoff.WithContext(&backoff.ExponentialBackOff{
				InitialInterval:     initial,
				RandomizationFactor: backoff.DefaultRandomizationFactor,
				Multiplier:          backoff.DefaultMultiplier,
				MaxInterval:         maxElapsed / 2,
				MaxElapsedTime:      maxElapsed,
				Stop:                backoff.Stop,
				Clock:               backoff.SystemClock,
			}, ctx)
		}
	}
}

// WithMetrics records round trips.
func WithMetrics(m *metrics.Metrics) Option { return func(c *HTTP) { c.Metrics = m } }

// NewHTTP returns a client for base with retries disabled.
func NewHTTP(base string, opts ...Option) *HTTP {
	c := &HTTP{Base: base, HTTP: http.DefaultClient, Backoff: noRetry}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func noRetry(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(&backoff.StopBackOff{}, ctx)
}

// SendRequest posts message to path and returns the reply body. Server error
// bodies come back as *autherr.Error; connection failures, 429 and 5xx are
// retried under the configured backoff.
func (c *HTTP) SendRequest(ctx context.Context, path string, message []byte) ([]byte, error) {
	requestID := uuid.NewString()
	logger := log.WithFields(log.Fields{"path": path, "request_id": requestID})

	var reply []byte
	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			c.Metrics.Retry()
			logger.WithField("attempt", attempt).Debug("retrying request")
		}
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return backoff.Permanent(autherr.Timeout(err))
			}
		}
		body, transient, err := c.post(ctx, path, requestID, message)
		if err != nil {
			if transient {
				return err
			}
			return backoff.Permanent(err)
		}
		reply = body
		return nil
	}

	if err := backoff.Retry(operation, c.Backoff(ctx)); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			err = autherr.Timeout(err)
		}
		logger.WithError(err).Debug("request failed")
		return nil, err
	}
	return reply, nil
}

func (c *HTTP) post(ctx context.Context, path, requestID string, message []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, bytes.NewReader(message))
	if err != nil {
		return nil, false, autherr.Connection(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(requestIDHeader, requestID)

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Metrics.ObserveRoundTrip(path, 0, time.Since(start))
		return nil, ctx.Err() == nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReply))
	c.Metrics.ObserveRoundTrip(path, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, ctx.Err() == nil, classify(ctx, err)
	}
	if resp.StatusCode/100 != 2 {
		if wireErr, perr := autherr.Parse(body); perr == nil {
			return nil, false, wireErr
		}
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, transient, autherr.Protocol("post %s: %s", path, resp.Status)
	}
	return body, false, nil
}

// KeyResponse is the reply of the server's response-key endpoint.
type KeyResponse struct {
	Identity  string `json:"identity"`
	PublicKey string `json:"publicKey"`
}

// FetchServerKey reads the server's response key from path.
func (c *HTTP) FetchServerKey(ctx context.Context, path string) (KeyResponse, error) {
	var out KeyResponse
	if err := c.getJSON(ctx, path, &out); err != nil {
		return KeyResponse{}, err
	}
	if out.Identity == "" || out.PublicKey == "" {
		return KeyResponse{}, autherr.InvalidMessage("publicKey", "server key response is incomplete")
	}
	return out, nil
}

func (c *HTTP) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return autherr.Connection(err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return autherr.Protocol("get %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReply)).Decode(out); err != nil {
		return autherr.Deserialization(fmt.Errorf("get %s: %w", path, err))
	}
	return nil
}

func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return autherr.Timeout(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return autherr.Timeout(err)
	}
	return autherr.Connection(err)
}

var _ domain.Network = (*HTTP)(nil)
