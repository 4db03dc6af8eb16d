package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"pubg-tracker/internal/constants"
	"pubg-tracker/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const (
	acceptHeader      = "application/vnd.api+json"
	rateLimitLimit    = "X-RateLimit-Limit"
	rateLimitRemain   = "X-RateLimit-Remaining"
	rateLimitResetHdr = "X-RateLimit-Reset"
)

// Client talks to the PUBG statistics API. Transient failures are retried
// here; results are never cached at this layer.
type Client struct {
	apiKey     string
	baseURL    string
	client     *fasthttp.Client
	clock      clockwork.Clock
	logger     zerolog.Logger
	maxRetries int
	backoff    time.Duration
	metrics    *clientMetrics

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

type Option func(*Client)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithRegisterer registers the client's request counters.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = newClientMetrics(reg)
	}
}

func NewClient(apiKey, baseURL string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		clock:      clockwork.NewRealClock(),
		logger:     logger.With().Str("component", "pubg_api").Logger(),
		maxRetries: constants.MaxRetries,
		backoff:    constants.InitialBackoff,
		rateLimit: RateLimitInfo{
			Reset:     int(constants.DefaultRateLimitReset.Seconds()),
			UpdatedAt: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = newClientMetrics(nil)
	}
	return c
}

func (c *Client) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

// FetchPlayer looks a player up by exact name on the given shard.
func (c *Client) FetchPlayer(ctx context.Context, shard, name string) (*PlayerRecord, error) {
	reqURL := fmt.Sprintf("%s/%s/players?filter[playerNames]=%s", c.baseURL, shard, url.QueryEscape(name))
	resp, err := doRequest[PlayerResponse](ctx, c, "player", reqURL)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: player %q on shard %s", ErrNotFound, name, shard)
	}
	return resp.Data[0].Record(), nil
}

func (c *Client) FetchMatch(ctx context.Context, shard, matchID string) (*domain.MatchRecord, error) {
	reqURL := fmt.Sprintf("%s/%s/matches/%s", c.baseURL, shard, url.PathEscape(matchID))
	resp, err := doRequest[MatchResponse](ctx, c, "match", reqURL)
	if err != nil {
		return nil, err
	}
	return resp.Record(), nil
}

type rawResponse struct {
	status int
	body   []byte
	reset  string
}

func (c *Client) do(ctx context.Context, reqURL string) (*rawResponse, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(reqURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", acceptHeader)

	deadline := time.Now().Add(constants.ExternalAPITimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}

	c.updateRateLimit(resp)

	return &rawResponse{
		status: resp.StatusCode(),
		body:   append([]byte(nil), resp.Body()...),
		reset:  string(resp.Header.Peek(rateLimitResetHdr)),
	}, nil
}

func (c *Client) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek(rateLimitLimit)); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek(rateLimitRemain)); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek(rateLimitResetHdr)); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-c.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// doRequest performs a GET with up to maxRetries retries. Network failures and
// 5xx responses back off exponentially; 429 responses wait for the reset
// header (default 60s). 401/403/404 and decode failures are not retried.
func doRequest[T any](ctx context.Context, c *Client, endpoint, reqURL string) (*T, error) {
	retries := 0
	backoff := c.backoff

	for {
		resp, err := c.do(ctx, reqURL)
		if err != nil {
			c.metrics.observe(endpoint, "network_error")
			if retries >= c.maxRetries {
				return nil, &NetworkError{Err: err}
			}
			c.logger.Warn().Err(err).Str("url", reqURL).Dur("backoff", backoff).Int("retry", retries+1).Msg("network error, retrying")
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, &NetworkError{Err: err}
			}
			c.metrics.retry("network")
			retries++
			backoff *= 2
			continue
		}

		c.metrics.observe(endpoint, strconv.Itoa(resp.status))

		switch {
		case resp.status == fasthttp.StatusOK:
			var result T
			if err := json.Unmarshal(resp.body, &result); err != nil {
				return nil, &ServerError{StatusCode: resp.status, Detail: fmt.Sprintf("failed to parse response: %v", err)}
			}
			return &result, nil

		case resp.status == fasthttp.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSpace(string(resp.body)))

		case resp.status == fasthttp.StatusUnauthorized, resp.status == fasthttp.StatusForbidden:
			return nil, ErrUnauthorized

		case resp.status == fasthttp.StatusTooManyRequests:
			retryAfter := parseReset(resp.reset)
			if retries >= c.maxRetries {
				return nil, &RateLimitError{RetryAfter: retryAfter}
			}
			c.logger.Warn().Str("url", reqURL).Dur("retry_after", retryAfter).Int("retry", retries+1).Msg("rate limit exceeded, waiting for reset")
			if err := c.sleep(ctx, retryAfter); err != nil {
				return nil, &RateLimitError{RetryAfter: retryAfter}
			}
			c.metrics.retry("rate_limit")
			retries++

		case resp.status >= fasthttp.StatusInternalServerError:
			if retries >= c.maxRetries {
				return nil, &ServerError{StatusCode: resp.status, Detail: strings.TrimSpace(string(resp.body))}
			}
			c.logger.Warn().Str("url", reqURL).Int("status", resp.status).Dur("backoff", backoff).Int("retry", retries+1).Msg("server error, retrying")
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, &NetworkError{Err: err}
			}
			c.metrics.retry("server")
			retries++
			backoff *= 2

		default:
			return nil, &ServerError{StatusCode: resp.status, Detail: fmt.Sprintf("unexpected status: %s", strings.TrimSpace(string(resp.body)))}
		}
	}
}

func parseReset(v string) time.Duration {
	if v == "" {
		return constants.DefaultRateLimitReset
	}
	secs, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return constants.DefaultRateLimitReset
	}
	return time.Duration(secs) * time.Second
}

type clientMetrics struct {
	requests *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	m := &clientMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubg_api_requests_total",
			Help: "Requests sent to the PUBG API by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pubg_api_retries_total",
			Help: "Retries performed against the PUBG API by reason",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.retries)
	}
	return m
}

func (m *clientMetrics) observe(endpoint, outcome string) {
	m.requests.WithLabelValues(endpoint, outcome).Inc()
}

func (m *clientMetrics) retry(reason string) {
	m.retries.WithLabelValues(reason).Inc()
}
