package runner

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fazecat/avwapscout/Internal/datafeed"
	"github.com/fazecat/avwapscout/Internal/earnings"
	"github.com/fazecat/avwapscout/Internal/strategy/avwap"
	"github.com/fazecat/avwapscout/Internal/strategy/signals"
	"github.com/fazecat/avwapscout/Internal/types"
	"github.com/fazecat/avwapscout/Internal/utils"
	"github.com/fazecat/avwapscout/Internal/utils/config"
)

// BarSource supplies ascending daily bars for one symbol.
type BarSource interface {
	DailyBars(symbol string, lookbackDays int) ([]types.Bar, error)
}

// Runner drives one full scan cycle: resolve anchors, fetch bars,
// classify, write the report, persist the cache.
type Runner struct {
	cfg      *config.Config
	bars     BarSource
	calendar earnings.CalendarSource

	now func() time.Time
}

func New(cfg *config.Config, bars BarSource, calendar earnings.CalendarSource) *Runner {
	return &Runner{cfg: cfg, bars: bars, calendar: calendar, now: time.Now}
}

// RunOnce performs a complete scan and rewrites the report file. Missing
// ticker lists are fatal; everything per-symbol degrades to a warning
// and a skip so one bad symbol never costs the rest of the run.
func (r *Runner) RunOnce(ctx context.Context) error {
	runAt := r.now()
	today := midnight(runAt)

	longs, err := utils.LoadTickersFromFile(r.cfg.Scanner.LongsFile)
	if err != nil {
		log.Warn().Err(err).Str("file", r.cfg.Scanner.LongsFile).Msg("could not read longs list")
	}
	shorts, err := utils.LoadTickersFromFile(r.cfg.Scanner.ShortsFile)
	if err != nil {
		log.Warn().Err(err).Str("file", r.cfg.Scanner.ShortsFile).Msg("could not read shorts list")
	}

	longSet := toSet(longs)
	shortSet := toSet(shorts)
	symbols := unionSorted(longSet, shortSet)
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols in %s or %s", r.cfg.Scanner.LongsFile, r.cfg.Scanner.ShortsFile)
	}

	cache := earnings.LoadCache(r.cfg.Scanner.CacheFile)
	minCount := r.cfg.Earnings.MinAnchorCount

	var missing []string
	for _, sym := range symbols {
		if len(cache.Dates(sym)) < minCount {
			missing = append(missing, sym)
		}
	}

	batch := map[string][]time.Time{}
	if len(missing) > 0 {
		log.Info().Int("symbols", len(missing)).Msg("scanning earnings calendar for uncached symbols")
		batch = earnings.CollectCalendarDates(ctx, r.calendar, missing, today, minCount)
	}

	rep := &Report{}
	for _, sym := range symbols {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.scanSymbol(ctx, rep, cache, sym, batch[sym], today, longSet[sym], shortSet[sym])
	}

	if err := r.writeReport(rep, runAt); err != nil {
		return err
	}
	if err := cache.Save(r.cfg.Scanner.CacheFile); err != nil {
		log.Warn().Err(err).Str("file", r.cfg.Scanner.CacheFile).Msg("could not save earnings cache")
	}

	current, previous := rep.All()
	if err := datafeed.LogSignals(ctx, runAt, types.RoleCurrent, current); err != nil {
		log.Warn().Err(err).Msg("could not log current-anchor signals")
	}
	if err := datafeed.LogSignals(ctx, runAt, types.RolePrevious, previous); err != nil {
		log.Warn().Err(err).Msg("could not log previous-anchor signals")
	}

	log.Info().
		Int("symbols", len(symbols)).
		Int("current_signals", len(current)).
		Int("previous_signals", len(previous)).
		Msg("scan complete")
	return nil
}

func (r *Runner) scanSymbol(ctx context.Context, rep *Report, cache *earnings.Cache, sym string, batch []time.Time, today time.Time, isLong, isShort bool) {
	anchors := earnings.Resolve(ctx, r.calendar, cache, sym, batch, today, r.cfg.Earnings.MinAnchorCount)
	if len(anchors) == 0 {
		log.Warn().Str("symbol", sym).Msg("no earnings dates found; skipping")
		return
	}

	current, previous := signals.SelectAnchors(anchors, today, r.cfg.Scanner.RecentDays)
	if current == nil {
		log.Warn().Str("symbol", sym).Msg("only a too-recent anchor available; skipping")
		return
	}

	earliest := *current
	if previous != nil && previous.Before(earliest) {
		earliest = *previous
	}
	lookback := int(today.Sub(earliest).Hours()/24) + 3
	if min := r.cfg.Bounce.ATRLength + 3; lookback < min {
		lookback = min
	}

	bars, err := r.bars.DailyBars(sym, lookback)
	if err != nil {
		log.Warn().Err(err).Str("symbol", sym).Msg("bar fetch failed; skipping")
		return
	}
	if len(bars) == 0 {
		log.Warn().Str("symbol", sym).Msg("no bars returned; skipping")
		return
	}

	params := signals.Params{ATRLength: r.cfg.Bounce.ATRLength, ATRMult: r.cfg.Bounce.ATRMult}
	r.scanAnchor(rep, sym, bars, *current, types.RoleCurrent, isLong, isShort, params)
	if previous != nil {
		r.scanAnchor(rep, sym, bars, *previous, types.RolePrevious, isLong, isShort, params)
	}
}

func (r *Runner) scanAnchor(rep *Report, sym string, bars []types.Bar, anchor time.Time, role types.AnchorRole, isLong, isShort bool, params signals.Params) {
	idx := findAnchorIndex(bars, anchor)
	if idx < 0 {
		log.Warn().Str("symbol", sym).Str("role", string(role)).
			Str("anchor", anchor.Format("2006-01-02")).Msg("anchor date not in bar series; skipping role")
		return
	}
	// Fewer than three bars from the anchor cannot form a pattern yet.
	if len(bars)-idx < 3 {
		return
	}

	bands := avwap.BandsFromAnchor(bars, idx)
	if !bands.Valid {
		log.Warn().Str("symbol", sym).Str("role", string(role)).Msg("bands undefined from anchor; skipping role")
		return
	}

	res := signals.Classify(signals.Input{
		Symbol:  sym,
		Bars:    bars,
		Bands:   bands,
		IsLong:  isLong,
		IsShort: isShort,
		Role:    role,
	}, params)
	rep.Accumulate(res, role)
}

func (r *Runner) writeReport(rep *Report, completedAt time.Time) error {
	f, err := os.Create(r.cfg.Scanner.ReportFile)
	if err != nil {
		return fmt.Errorf("could not create report file: %w", err)
	}
	defer f.Close()

	if err := rep.Write(f, completedAt); err != nil {
		return fmt.Errorf("could not write report: %w", err)
	}
	return nil
}

// Loop runs a scan immediately and then on every tick until the context
// is cancelled. Ticks never overlap: a slow scan just delays the next.
func (r *Runner) Loop(ctx context.Context, interval time.Duration) {
	if err := r.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("scan failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scanner loop stopped")
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("scan failed")
			}
		}
	}
}

// findAnchorIndex locates the bar whose session matches the anchor's
// calendar day.
func findAnchorIndex(bars []types.Bar, anchor time.Time) int {
	key := anchor.Format("2006-01-02")
	for i, b := range bars {
		if b.Date.Format("2006-01-02") == key {
			return i
		}
	}
	return -1
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func toSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(s)] = true
	}
	return set
}

func unionSorted(sets ...map[string]bool) []string {
	seen := map[string]bool{}
	var out []string
	for _, set := range sets {
		for s := range set {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}
