package idx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bandarscan/internal/domain/models"
	drepo "bandarscan/internal/domain/repository"
	"bandarscan/internal/service/ratelimit"
	xhttp "bandarscan/pkg/http"
	"bandarscan/pkg/logger"
)

var (
	// ErrUpstreamUnavailable covers network failures, timeouts and non-2xx
	// answers from the exchange endpoint.
	ErrUpstreamUnavailable = errors.New("idx: upstream unavailable")
	// ErrMalformedUpstream means the endpoint answered but the payload did
	// not parse into the expected summary shape.
	ErrMalformedUpstream = errors.New("idx: malformed upstream payload")
)

// summaryResponse is the trading-summary envelope served by the exchange.
type summaryResponse struct {
	Draw         int                `json:"draw"`
	RecordsTotal int                `json:"recordsTotal"`
	Data         []models.RawRecord `json:"data"`
}

// Client fetches the daily trading summary from the IDX endpoint.
// Implements repository.Feed.
type Client struct {
	url     string
	retries int
	backoff time.Duration
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	log     *logger.Logger
	metrics drepo.Metrics
}

type Option func(*Client)

func WithRetries(n int, backoff time.Duration) Option {
	return func(c *Client) {
		c.retries = n
		c.backoff = backoff
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client = xhttp.NewClient(xhttp.WithTimeout(d)) }
}

func WithMetrics(m drepo.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func New(url string, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		url:     url,
		retries: 1,
		backoff: 2 * time.Second,
		client:  xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		limiter: ratelimit.New(),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchSummary pulls today's full trading summary. Transient failures are
// retried with a fixed backoff; a parseable answer with no records counts as
// malformed.
func (c *Client) FetchSummary(ctx context.Context) ([]models.RawRecord, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			if c.metrics != nil {
				c.metrics.RecordFetchRetry()
			}
			c.log.Warn("upstream fetch retrying",
				logger.Int("attempt", attempt),
				logger.Error(lastErr))
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		records, err := c.fetch(ctx)
		if err == nil {
			return records, nil
		}
		if errors.Is(err, ErrMalformedUpstream) {
			// Retrying will not fix a bad payload.
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
}

func (c *Client) fetch(ctx context.Context) ([]models.RawRecord, error) {
	var resp summaryResponse
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.url,
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			"Accept":     "application/json",
			"Referer":    "https://www.idx.co.id/",
		},
		QueryParams: map[string][]string{
			"length": {"9999"},
			"start":  {"0"},
		},
	}, &resp)
	if err != nil {
		if strings.Contains(err.Error(), "decode json") {
			return nil, fmt.Errorf("%w: %v", ErrMalformedUpstream, err)
		}
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty record set", ErrMalformedUpstream)
	}
	return resp.Data, nil
}

// pace blocks until the upstream token bucket allows another request.
func (c *Client) pace(ctx context.Context) error {
	for !c.limiter.Allow("idx-summary", 2, 0.5) {
		select {
		case <-time.After(250 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
