package datafeed

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(baseURL string, timeout time.Duration) *Session {
	return &Session{
		apiKey:    "test-key",
		apiSecret: "test-secret",
		baseURL:   baseURL,
		timeout:   timeout,
	}
}

func TestSession_DailyBarsAscending(t *testing.T) {
	// Server returns bars newest-first; the session must hand them back
	// ascending by date.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("APCA-API-KEY-ID"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"bars":[
			{"t":"2024-06-07T04:00:00Z","o":102,"h":103,"l":101,"c":102.5,"v":12000},
			{"t":"2024-06-06T04:00:00Z","o":101,"h":102,"l":100,"c":101.5,"v":11000},
			{"t":"2024-06-05T04:00:00Z","o":100,"h":101,"l":99,"c":100.5,"v":10000}
		]}`))
	}))
	defer srv.Close()

	s := newTestSession(srv.URL, 5*time.Second)
	bars, err := s.DailyBars("ABC", 30)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.True(t, bars[0].Date.Before(bars[1].Date))
	assert.True(t, bars[1].Date.Before(bars[2].Date))
	assert.Equal(t, 100.5, bars[0].Close)
	assert.Equal(t, int64(12000), bars[2].Volume)
}

func TestSession_TimeoutIsRecoverable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"bars":[]}`))
	}))
	defer srv.Close()
	defer close(release)

	s := newTestSession(srv.URL, 50*time.Millisecond)
	bars, err := s.DailyBars("SLOW", 30)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Empty(t, bars)
}

func TestSession_ForbiddenDegradesToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := newTestSession(srv.URL, 5*time.Second)
	bars, err := s.DailyBars("NOPE", 30)
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestSession_SingleFlight(t *testing.T) {
	var inFlight, maxInFlight int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			max := atomic.LoadInt32(&maxInFlight)
			if cur <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, cur) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		w.Write([]byte(`{"bars":[]}`))
	}))
	defer srv.Close()

	s := newTestSession(srv.URL, 5*time.Second)
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			_, _ = s.DailyBars("ABC", 10)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight), "requests must not overlap on the shared session")
}
