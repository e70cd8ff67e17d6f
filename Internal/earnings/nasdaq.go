package earnings

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fazecat/avwapscout/Internal/utils/formatting"
)

const (
	nasdaqBaseURL = "https://api.nasdaq.com"

	// NasdaqThrottle is the enforced gap between calendar requests; the
	// public API starts refusing without it.
	NasdaqThrottle = time.Second
)

// CalendarRow is one entry of the earnings calendar for a given day.
type CalendarRow struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	EPS    string `json:"eps"`
}

// CalendarSource is what the anchor resolver needs from the outside
// world: the calendar by date, and historical report dates by symbol.
type CalendarSource interface {
	EarningsForDate(ctx context.Context, day time.Time) ([]CalendarRow, error)
	HistoricalReports(ctx context.Context, symbol string) ([]time.Time, error)
}

// CalendarClient talks to the Nasdaq public API. All requests run through
// a shared rate limiter and a circuit breaker: one bad day's fetch yields
// zero rows, and a dead API trips the breaker so a long lookback scan
// stops hammering it.
type CalendarClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

func NewCalendarClient(throttle time.Duration) *CalendarClient {
	if throttle <= 0 {
		throttle = NasdaqThrottle
	}
	return &CalendarClient{
		baseURL:    nasdaqBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(throttle), 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "nasdaq",
			Timeout: 2 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

func (c *CalendarClient) get(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")
		req.Header.Set("Accept", "application/json, text/plain, */*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("nasdaq returned status %d", resp.StatusCode)
		}
		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	return err
}

// EarningsForDate fetches the earnings calendar for one day. Failures are
// logged and surface as an empty result to the caller's fall-through.
func (c *CalendarClient) EarningsForDate(ctx context.Context, day time.Time) ([]CalendarRow, error) {
	var payload struct {
		Data struct {
			Rows []CalendarRow `json:"rows"`
		} `json:"data"`
	}

	path := fmt.Sprintf("/api/calendar/earnings?date=%s", day.Format("2006-01-02"))
	if err := c.get(ctx, path, &payload); err != nil {
		log.Warn().Err(err).Str("date", day.Format("2006-01-02")).Msg("earnings calendar fetch failed")
		return nil, err
	}
	return payload.Data.Rows, nil
}

// HistoricalReports fetches past quarterly report dates for one symbol.
// This is the per-symbol fallback when the calendar scan comes up short.
func (c *CalendarClient) HistoricalReports(ctx context.Context, symbol string) ([]time.Time, error) {
	var payload struct {
		Data struct {
			EarningsSurpriseTable struct {
				Rows []struct {
					DateReported string `json:"dateReported"`
				} `json:"rows"`
			} `json:"earningsSurpriseTable"`
		} `json:"data"`
	}

	path := fmt.Sprintf("/api/company/%s/earnings-surprise", strings.ToUpper(symbol))
	if err := c.get(ctx, path, &payload); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("historical earnings lookup failed")
		return nil, err
	}

	var dates []time.Time
	for _, row := range payload.Data.EarningsSurpriseTable.Rows {
		d := formatting.ParseDate(row.DateReported)
		if d.IsZero() {
			continue
		}
		dates = append(dates, d)
	}
	return MergeDates(dates), nil
}
