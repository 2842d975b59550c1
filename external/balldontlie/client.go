package balldontlie

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/logging"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/resilience"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

const (
	defaultBaseURL     = "https://api.balldontlie.io/v1"
	defaultPerPage     = 25
	defaultHTTPTimeout = 20 * time.Second
	maxResponseBytes   = 6 << 20
	statsPath          = "/stats"
)

var errTransient = crerr.New("balldontlie transient failure")

// RetryObserver is told about every retry the client schedules.
type RetryObserver interface {
	ObserveRetry(reason string, wait time.Duration)
}

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Token      string
	Timeout    time.Duration
	Backoff    resilience.BackoffPolicy
	// Breaker is shared by every window in the process; nil disables it.
	Breaker  *resilience.Breaker
	Sleep    resilience.Sleeper
	Now      func() time.Time
	Logger   *logging.Logger
	Observer RetryObserver
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	backoff    resilience.BackoffPolicy
	breaker    *resilience.Breaker
	sleep      resilience.Sleeper
	now        func() time.Time
	logger     *logging.Logger
	observer   RetryObserver
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultHTTPTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = resilience.SleepContext
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		backoff:    resilience.NormalizeBackoffPolicy(cfg.Backoff),
		breaker:    cfg.Breaker,
		sleep:      sleep,
		now:        now,
		logger:     logger,
		observer:   cfg.Observer,
	}
}

// FetchPage requests one page of player-game stats for the window.
func (c *Client) FetchPage(ctx context.Context, w window.Window, cursor *string, perPage int) (usecase.StatsPage, error) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "balldontlie circuit breaker rejected request", "state", c.breaker.State())
		return usecase.StatsPage{}, fmt.Errorf("%w: stats provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	values := url.Values{}
	values.Set("start_date", w.Start())
	values.Set("end_date", w.End())
	values.Set("per_page", strconv.Itoa(perPage))
	if cursor != nil && *cursor != "" {
		values.Set("cursor", *cursor)
	}
	fullURL := c.baseURL + statsPath + "?" + values.Encode()

	raw, err := c.executeRequest(ctx, fullURL)
	switch {
	case err == nil:
		c.breaker.Success()
	case errors.Is(err, usecase.ErrExhaustedRetries):
		c.breaker.Failure()
	case ctx.Err() != nil:
		c.breaker.Release()
	default:
		// the provider answered; a client error says nothing about its health
		c.breaker.Success()
	}
	if err != nil {
		return usecase.StatsPage{}, err
	}

	var env statsEnvelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return usecase.StatsPage{}, fmt.Errorf("%w: decode stats payload: %v", usecase.ErrNonRetryable, err)
	}
	return mapStatsPage(env), nil
}

type retryHint struct {
	reason     string
	retryAfter time.Duration
	hasAfter   bool
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	schedule := c.backoff.Schedule()
	var lastErr error
	for schedule.Attempt() {
		raw, hint, err := c.attempt(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !crerr.Is(err, errTransient) {
			return nil, err
		}
		lastErr = err
		if !schedule.Remaining() {
			break
		}

		var wait time.Duration
		if hint.hasAfter {
			wait = schedule.Override(hint.retryAfter)
		} else {
			wait = schedule.Next()
		}
		if c.observer != nil {
			c.observer.ObserveRetry(hint.reason, wait)
		}
		c.logger.WarnContext(ctx, "balldontlie request failed, retrying",
			"attempt", schedule.Attempts(),
			"reason", hint.reason,
			"wait", wait,
			"error", sanitizeSensitiveText(err.Error(), c.token),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("provider request failed")
	}
	c.logger.WarnContext(ctx, "balldontlie request exhausted retries", "attempts", schedule.Attempts(), "error", sanitizeSensitiveText(lastErr.Error(), c.token))
	return nil, fmt.Errorf("%w: after %d attempts: %s", usecase.ErrExhaustedRetries, schedule.Attempts(), sanitizeSensitiveText(lastErr.Error(), c.token))
}

func (c *Client) attempt(ctx context.Context, fullURL string) ([]byte, retryHint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, retryHint{}, fmt.Errorf("%w: build request: %v", usecase.ErrNonRetryable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, retryHint{reason: "network"}, fmt.Errorf("%w: send request: %s", errTransient, sanitizeSensitiveText(err.Error(), c.token))
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, retryHint{reason: "body_read"}, fmt.Errorf("%w: read response body: %v", errTransient, readErr)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, retryHint{}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		hint := retryHint{reason: "rate_limited"}
		hint.retryAfter, hint.hasAfter = parseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		return nil, hint, fmt.Errorf("%w: provider status=%d", errTransient, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, retryHint{reason: "server_error"}, fmt.Errorf("%w: provider status=%d body=%s", errTransient, resp.StatusCode, abbreviateBody(raw))
	default:
		return nil, retryHint{}, fmt.Errorf("%w: provider status=%d body=%s", usecase.ErrNonRetryable, resp.StatusCode, sanitizeSensitiveText(abbreviateBody(raw), c.token))
	}
}

// parseRetryAfter accepts delta-seconds or an HTTP-date.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		d := when.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" || token == "" {
		return value
	}
	return strings.ReplaceAll(value, token, "REDACTED")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
