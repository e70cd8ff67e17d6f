package datafeed

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fazecat/avwapscout/Internal/types"
)

// Session is the one shared market-data connection. The data API is not
// safe for concurrent multiplexed requests over a shared request-id
// space, so a mutex enforces single-flight: one bar request in the air
// at a time. Each request is issued on its own goroutine and resolved
// through a correlation-id future; the caller blocks on the future with
// a bounded timeout instead of sharing mutable response state.
type Session struct {
	apiKey    string
	apiSecret string
	baseURL   string
	timeout   time.Duration

	mu        sync.Mutex
	nextReqID uint64
}

type barResult struct {
	bars []types.Bar
	err  error
}

func NewSession(timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Session{
		apiKey:    os.Getenv("ALPACA_API_KEY"),
		apiSecret: os.Getenv("ALPACA_API_SECRET"),
		baseURL:   "https://data.alpaca.markets",
		timeout:   timeout,
	}
}

// DailyBars returns ascending daily OHLCV bars covering lookbackDays
// calendar days. Both "no data" and transient upstream failures degrade
// to an empty slice with the error attached; a timed-out request is a
// recoverable failure the caller should skip, not a reason to abort the
// run.
func (s *Session) DailyBars(symbol string, lookbackDays int) ([]types.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextReqID++
	reqID := s.nextReqID

	done := make(chan barResult, 1)
	go func() {
		bars, err := s.fetchDailyBars(symbol, lookbackDays)
		done <- barResult{bars: bars, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, res.err
		}
		return res.bars, nil
	case <-time.After(s.timeout):
		log.Warn().Uint64("req_id", reqID).Str("symbol", symbol).
			Dur("timeout", s.timeout).Msg("bar request timed out")
		return nil, fmt.Errorf("bar request %d for %s timed out after %s", reqID, symbol, s.timeout)
	}
}
