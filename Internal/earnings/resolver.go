package earnings

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// MaxLookbackDays bounds the calendar scan when hunting for anchors.
	MaxLookbackDays = 250
	// MinAnchorCount is how many anchors resolution aims for (and the cap
	// on what it returns): the current and the previous report date.
	MinAnchorCount = 2
)

// CollectCalendarDates walks the earnings calendar backwards day by day
// and records every report date belonging to one of the requested
// symbols. The scan stops early once every symbol has at least minCount
// dates. A failed day contributes nothing; the scan keeps going.
func CollectCalendarDates(ctx context.Context, src CalendarSource, symbols []string, today time.Time, minCount int) map[string][]time.Time {
	results := make(map[string][]time.Time, len(symbols))
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(s)
		wanted[sym] = true
		results[sym] = nil
	}
	if len(wanted) == 0 {
		return results
	}

	for delta := 0; delta < MaxLookbackDays; delta++ {
		if ctx.Err() != nil {
			break
		}
		day := today.AddDate(0, 0, -delta)

		rows, err := src.EarningsForDate(ctx, day)
		if err != nil || len(rows) == 0 {
			continue
		}

		for _, row := range rows {
			sym := strings.ToUpper(row.Symbol)
			if !wanted[sym] {
				continue
			}
			results[sym] = MergeDates(results[sym], []time.Time{day})
		}

		done := true
		for sym := range wanted {
			if len(results[sym]) < minCount {
				done = false
				break
			}
		}
		if done {
			log.Info().Int("days_scanned", delta+1).Msg("calendar scan satisfied all symbols")
			break
		}
	}

	for sym, dates := range results {
		results[sym] = filterPast(dates, today)
	}
	return results
}

// Resolve returns up to minCount past earnings dates for symbol, most
// recent first. Lookup order: cache, then the supplied batch-scan dates,
// then a per-symbol historical-report fallback. Each source failing or
// coming up empty just falls through to the next. Any new discovery is
// written back to the cache in place so later runs skip the slow paths.
func Resolve(ctx context.Context, src CalendarSource, cache *Cache, symbol string, batch []time.Time, today time.Time, minCount int) []time.Time {
	cached := filterPast(cache.Dates(symbol), today)
	merged := MergeDates(cached, filterPast(batch, today))

	if len(merged) < minCount && src != nil {
		fallback, err := src.HistoricalReports(ctx, symbol)
		if err == nil {
			merged = MergeDates(merged, filterPast(fallback, today))
		}
	}

	if len(merged) > 0 {
		cache.Put(symbol, merged)
	}

	if len(merged) > minCount {
		merged = merged[:minCount]
	}
	return merged
}

func filterPast(dates []time.Time, today time.Time) []time.Time {
	cutoff := today.Format("2006-01-02")
	var out []time.Time
	for _, d := range dates {
		if d.Format("2006-01-02") <= cutoff {
			out = append(out, d)
		}
	}
	return out
}
