package earnings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCalendar serves canned calendar rows and fallback dates, recording
// how it was used.
type stubCalendar struct {
	calendar      map[string][]CalendarRow // keyed by YYYY-MM-DD
	fallback      map[string][]time.Time
	fallbackErr   error
	calendarCalls int
	fallbackCalls int
}

func (s *stubCalendar) EarningsForDate(_ context.Context, d time.Time) ([]CalendarRow, error) {
	s.calendarCalls++
	return s.calendar[d.Format("2006-01-02")], nil
}

func (s *stubCalendar) HistoricalReports(_ context.Context, symbol string) ([]time.Time, error) {
	s.fallbackCalls++
	if s.fallbackErr != nil {
		return nil, s.fallbackErr
	}
	return s.fallback[symbol], nil
}

func TestCollectCalendarDates_StopsWhenSatisfied(t *testing.T) {
	today := day("2024-06-10")
	src := &stubCalendar{calendar: map[string][]CalendarRow{
		"2024-06-09": {{Symbol: "ABC"}, {Symbol: "XYZ"}},
		"2024-06-05": {{Symbol: "abc"}, {Symbol: "XYZ"}}, // lower case must still match
		"2024-06-01": {{Symbol: "ABC"}},
	}}

	got := CollectCalendarDates(context.Background(), src, []string{"ABC", "XYZ"}, today, 2)

	assert.Equal(t, []time.Time{day("2024-06-09"), day("2024-06-05")}, got["ABC"])
	assert.Equal(t, []time.Time{day("2024-06-09"), day("2024-06-05")}, got["XYZ"])
	// Both symbols were satisfied on 2024-06-05, six days into the scan;
	// 2024-06-01 must never have been requested.
	assert.Equal(t, 6, src.calendarCalls)
}

func TestCollectCalendarDates_FullLookbackWhenShort(t *testing.T) {
	today := day("2024-06-10")
	src := &stubCalendar{calendar: map[string][]CalendarRow{
		"2024-06-09": {{Symbol: "ABC"}},
	}}

	got := CollectCalendarDates(context.Background(), src, []string{"ABC"}, today, 2)
	assert.Equal(t, []time.Time{day("2024-06-09")}, got["ABC"])
	assert.Equal(t, MaxLookbackDays, src.calendarCalls)
}

func TestResolve_CacheFirstSkipsFallback(t *testing.T) {
	today := day("2024-06-10")
	cache := NewCache()
	cache.Put("ABC", []time.Time{day("2024-04-25"), day("2024-01-24")})
	src := &stubCalendar{}

	got := Resolve(context.Background(), src, cache, "ABC", nil, today, MinAnchorCount)

	assert.Equal(t, []time.Time{day("2024-04-25"), day("2024-01-24")}, got)
	assert.Equal(t, 0, src.fallbackCalls)
}

func TestResolve_MergesBatchAndCapsAtTwo(t *testing.T) {
	today := day("2024-06-10")
	cache := NewCache()
	cache.Put("ABC", []time.Time{day("2024-01-24")})
	src := &stubCalendar{}

	batch := []time.Time{day("2024-04-25"), day("2024-01-24"), day("2023-10-26")}
	got := Resolve(context.Background(), src, cache, "ABC", batch, today, MinAnchorCount)

	require.Len(t, got, 2)
	assert.Equal(t, day("2024-04-25"), got[0])
	assert.Equal(t, day("2024-01-24"), got[1])
	assert.Equal(t, 0, src.fallbackCalls, "cache+batch reached the minimum")

	// All three known dates were written back to the cache.
	assert.Equal(t, []time.Time{day("2024-04-25"), day("2024-01-24"), day("2023-10-26")}, cache.Dates("ABC"))
}

func TestResolve_FallbackFillsGap(t *testing.T) {
	today := day("2024-06-10")
	cache := NewCache()
	src := &stubCalendar{fallback: map[string][]time.Time{
		"ABC": {day("2024-04-25"), day("2024-01-24")},
	}}

	got := Resolve(context.Background(), src, cache, "ABC", nil, today, MinAnchorCount)

	assert.Equal(t, []time.Time{day("2024-04-25"), day("2024-01-24")}, got)
	assert.Equal(t, 1, src.fallbackCalls)
	// Discovery is cached so the next run skips the fallback entirely.
	assert.Equal(t, got, cache.Dates("ABC"))
}

func TestResolve_SourceFailureDegradesToEmpty(t *testing.T) {
	today := day("2024-06-10")
	cache := NewCache()
	src := &stubCalendar{fallbackErr: errors.New("nasdaq 503")}

	got := Resolve(context.Background(), src, cache, "ABC", nil, today, MinAnchorCount)
	assert.Empty(t, got)
	assert.Empty(t, cache.Dates("ABC"))
}

func TestResolve_FutureDatesFiltered(t *testing.T) {
	today := day("2024-06-10")
	cache := NewCache()
	cache.Put("ABC", []time.Time{day("2024-07-25"), day("2024-04-25"), day("2024-01-24")})

	got := Resolve(context.Background(), &stubCalendar{}, cache, "ABC", nil, today, MinAnchorCount)
	assert.Equal(t, []time.Time{day("2024-04-25"), day("2024-01-24")}, got)
}
