package balldontlie

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/draft-combine-pipeline/internal/domain/window"
	"github.com/riskibarqy/draft-combine-pipeline/internal/platform/resilience"
	"github.com/riskibarqy/draft-combine-pipeline/internal/usecase"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type recordingSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return nil
}

func response(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(rt roundTripperFunc, sleeper *recordingSleeper, breaker *resilience.Breaker) *Client {
	return NewClient(ClientConfig{
		HTTPClient: &http.Client{Transport: rt},
		BaseURL:    "https://api.example.test/v1/",
		Token:      "secret-token",
		Sleep:      sleeper.Sleep,
		Breaker:    breaker,
		Now:        func() time.Time { return time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func testWindow(t *testing.T) window.Window {
	t.Helper()
	w, err := window.New(2024, "2024-10-22", "2024-10-28")
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	return w
}

const nestedPage = `{
	"data": [
		{
			"id": 1,
			"min": "35:12",
			"pts": 31,
			"reb": 8,
			"ast": "9",
			"player": {"id": 237, "first_name": "LeBron", "last_name": "James"},
			"team": {"id": 14},
			"game": {"id": 15, "date": "2024-10-22T00:00:00.000Z"}
		},
		{
			"id": 2,
			"player_id": 99,
			"first_name": null,
			"last_name": "Nene",
			"game_id": 15,
			"pts": null,
			"player": {"id": 1, "first_name": "Ignored", "last_name": "Ignored"}
		}
	],
	"meta": {"next_cursor": 1200, "per_page": 25}
}`

func TestFetchPage_BuildsRequestAndFlattens(t *testing.T) {
	t.Parallel()

	var gotURL, gotAuth string
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		gotAuth = req.Header.Get("Authorization")
		return response(http.StatusOK, nestedPage, nil), nil
	})
	client := newTestClient(rt, &recordingSleeper{}, nil)

	cursor := "1175"
	page, err := client.FetchPage(context.Background(), testWindow(t), &cursor, 25)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}

	wantURL := "https://api.example.test/v1/stats?cursor=1175&end_date=2024-10-28&per_page=25&start_date=2024-10-22"
	if gotURL != wantURL {
		t.Fatalf("unexpected url:\n got=%s\nwant=%s", gotURL, wantURL)
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("unexpected auth header: got=%q", gotAuth)
	}
	if page.NextCursor == nil || *page.NextCursor != "1200" {
		t.Fatalf("unexpected next cursor: %v", page.NextCursor)
	}
	if len(page.Records) != 2 {
		t.Fatalf("unexpected records: got=%d want=2", len(page.Records))
	}

	first := page.Records[0]
	if string(first.PlayerID) != "237" || string(first.GameID) != "15" || string(first.TeamID) != "14" {
		t.Fatalf("nested ids not flattened: %+v", first)
	}
	if *first.FirstName != "LeBron" || string(first.MIN) != `"35:12"` || string(first.AST) != `"9"` {
		t.Fatalf("unexpected first record: %+v", first)
	}

	second := page.Records[1]
	if string(second.PlayerID) != "99" {
		t.Fatalf("flat player_id must win: got=%s", second.PlayerID)
	}
	if second.FirstName == nil || *second.FirstName != "Ignored" {
		t.Fatalf("null flat first_name falls back to nested: %v", second.FirstName)
	}
	if !second.PTS.IsNull() {
		t.Fatalf("expected null pts, got %s", second.PTS)
	}
}

func TestFetchPage_FirstPageOmitsCursor(t *testing.T) {
	t.Parallel()

	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Query().Has("cursor") {
			t.Fatalf("first page must not send a cursor: %s", req.URL.RawQuery)
		}
		return response(http.StatusOK, `{"data":[],"meta":{}}`, nil), nil
	})
	page, err := newTestClient(rt, &recordingSleeper{}, nil).FetchPage(context.Background(), testWindow(t), nil, 0)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if len(page.Records) != 0 || page.NextCursor != nil {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestFetchPage_RateLimitBackoffSequence(t *testing.T) {
	t.Parallel()

	calls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return response(http.StatusTooManyRequests, `{"error":"slow down"}`, nil), nil
	})
	sleeper := &recordingSleeper{}
	_, err := newTestClient(rt, sleeper, nil).FetchPage(context.Background(), testWindow(t), nil, 25)
	if !errors.Is(err, usecase.ErrExhaustedRetries) {
		t.Fatalf("unexpected error: got=%v want=%v", err, usecase.ErrExhaustedRetries)
	}
	if calls != 8 {
		t.Fatalf("unexpected attempts: got=%d want=8", calls)
	}

	want := []time.Duration{1, 2, 4, 8, 16, 32, 60}
	if len(sleeper.waits) != len(want) {
		t.Fatalf("unexpected waits: got=%v", sleeper.waits)
	}
	for i, w := range want {
		if sleeper.waits[i] != w*time.Second {
			t.Fatalf("unexpected wait #%d: got=%s want=%s", i, sleeper.waits[i], w*time.Second)
		}
	}
}

func TestFetchPage_RetryAfterUsedVerbatim(t *testing.T) {
	t.Parallel()

	calls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		switch calls {
		case 1:
			return response(http.StatusTooManyRequests, "", http.Header{"Retry-After": []string{"5"}}), nil
		case 2:
			return response(http.StatusTooManyRequests, "", http.Header{"Retry-After": []string{"Fri, 01 Nov 2024 12:00:30 GMT"}}), nil
		case 3:
			return response(http.StatusBadGateway, "upstream", nil), nil
		default:
			return response(http.StatusOK, `{"data":[],"meta":{"next_cursor":null}}`, nil), nil
		}
	})
	sleeper := &recordingSleeper{}
	if _, err := newTestClient(rt, sleeper, nil).FetchPage(context.Background(), testWindow(t), nil, 25); err != nil {
		t.Fatalf("fetch page: %v", err)
	}

	want := []time.Duration{5 * time.Second, 30 * time.Second, 4 * time.Second}
	if len(sleeper.waits) != len(want) {
		t.Fatalf("unexpected waits: got=%v want=%v", sleeper.waits, want)
	}
	for i := range want {
		if sleeper.waits[i] != want[i] {
			t.Fatalf("unexpected wait #%d: got=%s want=%s", i, sleeper.waits[i], want[i])
		}
	}
}

func TestFetchPage_NetworkErrorsRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection reset by peer")
		}
		return response(http.StatusOK, `{"data":[{"player_id":1}],"meta":{}}`, nil), nil
	})
	sleeper := &recordingSleeper{}
	page, err := newTestClient(rt, sleeper, nil).FetchPage(context.Background(), testWindow(t), nil, 25)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if len(page.Records) != 1 || len(sleeper.waits) != 2 {
		t.Fatalf("unexpected outcome: records=%d waits=%v", len(page.Records), sleeper.waits)
	}
}

func TestFetchPage_NonRetryableFailsImmediately(t *testing.T) {
	t.Parallel()

	calls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return response(http.StatusUnauthorized, `{"error":"bad token secret-token"}`, nil), nil
	})
	sleeper := &recordingSleeper{}
	_, err := newTestClient(rt, sleeper, nil).FetchPage(context.Background(), testWindow(t), nil, 25)
	if !errors.Is(err, usecase.ErrNonRetryable) {
		t.Fatalf("unexpected error: got=%v want=%v", err, usecase.ErrNonRetryable)
	}
	if calls != 1 || len(sleeper.waits) != 0 {
		t.Fatalf("non-retryable must not retry: calls=%d waits=%v", calls, sleeper.waits)
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Fatalf("token leaked into error: %v", err)
	}
}

func TestFetchPage_BreakerOpensAfterExhaustion(t *testing.T) {
	t.Parallel()

	calls := 0
	rt := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return response(http.StatusServiceUnavailable, "", nil), nil
	})
	breaker := resilience.NewBreaker(resilience.BreakerConfig{Enabled: true, Threshold: 1, Cooldown: time.Hour})
	client := newTestClient(rt, &recordingSleeper{}, breaker)

	if _, err := client.FetchPage(context.Background(), testWindow(t), nil, 25); !errors.Is(err, usecase.ErrExhaustedRetries) {
		t.Fatalf("unexpected first error: %v", err)
	}
	before := calls
	if _, err := client.FetchPage(context.Background(), testWindow(t), nil, 25); !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("unexpected second error: got=%v want=%v", err, usecase.ErrDependencyUnavailable)
	}
	if calls != before {
		t.Fatalf("open breaker must not reach the provider")
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	if d, ok := parseRetryAfter("7", now); !ok || d != 7*time.Second {
		t.Fatalf("unexpected delta: got=%s ok=%v", d, ok)
	}
	if d, ok := parseRetryAfter("Fri, 01 Nov 2024 11:59:00 GMT", now); !ok || d != 0 {
		t.Fatalf("past date must clamp to zero: got=%s ok=%v", d, ok)
	}
	if _, ok := parseRetryAfter("soon", now); ok {
		t.Fatalf("garbage header must be ignored")
	}
}
