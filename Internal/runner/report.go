package runner

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fazecat/avwapscout/Internal/strategy/signals"
	"github.com/fazecat/avwapscout/Internal/types"
)

const (
	sectionCurrent  = "# CURRENT ANCHOR"
	sectionPrevious = "# PREVIOUS ANCHOR"
)

// Report accumulates one run's signals by output category. The category
// order below is the order sections appear in the file; the downstream
// watcher keys off it.
type Report struct {
	Tier3       []types.Signal
	Tier2       []types.Signal
	Tier1       []types.Signal
	VWAPCrosses []types.Signal
	CrossUps    []types.Signal
	CrossDowns  []types.Signal
	Bounces     []types.Signal

	PrevBounceLongs  []types.Signal
	PrevBounceShorts []types.Signal
	PrevCrossUps     []types.Signal
	PrevCrossDowns   []types.Signal
}

// Accumulate folds one symbol's classification into the report.
func (rep *Report) Accumulate(res signals.Result, role types.AnchorRole) {
	if role == types.RolePrevious {
		rep.PrevBounceLongs = append(rep.PrevBounceLongs, res.BounceLongs...)
		rep.PrevBounceShorts = append(rep.PrevBounceShorts, res.BounceShorts...)
		rep.PrevCrossUps = append(rep.PrevCrossUps, res.CrossUps...)
		rep.PrevCrossDowns = append(rep.PrevCrossDowns, res.CrossDowns...)
		return
	}

	rep.Tier3 = append(rep.Tier3, res.Tier3...)
	rep.Tier2 = append(rep.Tier2, res.Tier2...)
	rep.Tier1 = append(rep.Tier1, res.Tier1...)
	rep.VWAPCrosses = append(rep.VWAPCrosses, res.VWAPCrosses...)
	rep.CrossUps = append(rep.CrossUps, res.CrossUps...)
	rep.CrossDowns = append(rep.CrossDowns, res.CrossDowns...)
	rep.Bounces = append(rep.Bounces, res.BounceLongs...)
	rep.Bounces = append(rep.Bounces, res.BounceShorts...)
}

// All returns every signal in the report, current-anchor categories
// first, for the signal-history sink.
func (rep *Report) All() (current, previous []types.Signal) {
	for _, cat := range rep.currentCategories() {
		current = append(current, cat...)
	}
	for _, cat := range rep.previousCategories() {
		previous = append(previous, cat...)
	}
	return current, previous
}

func (rep *Report) currentCategories() [][]types.Signal {
	return [][]types.Signal{
		rep.Tier3, rep.Tier2, rep.Tier1,
		rep.VWAPCrosses, rep.CrossUps, rep.CrossDowns, rep.Bounces,
	}
}

func (rep *Report) previousCategories() [][]types.Signal {
	return [][]types.Signal{
		rep.PrevBounceLongs, rep.PrevBounceShorts,
		rep.PrevCrossUps, rep.PrevCrossDowns,
	}
}

// Write rewrites the full report: section headers, blank-line-separated
// category blocks of SYMBOL,MM/DD,LABEL,SIDE rows, and a timestamped
// completion line. Within each category LONG rows come before SHORT
// rows; processing order is otherwise preserved.
func (rep *Report) Write(w io.Writer, completedAt time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, sectionCurrent)
	for _, cat := range rep.currentCategories() {
		writeCategory(bw, cat)
	}

	fmt.Fprintln(bw, sectionPrevious)
	for _, cat := range rep.previousCategories() {
		writeCategory(bw, cat)
	}

	fmt.Fprintf(bw, "Run completed at %s\n", completedAt.Format("15:04:05"))
	return bw.Flush()
}

func writeCategory(w io.Writer, sigs []types.Signal) {
	for _, s := range sortSides(sigs) {
		fmt.Fprintf(w, "%s,%s,%s,%s\n", s.Symbol, s.Date, s.Label, s.Side)
	}
	if len(sigs) > 0 {
		fmt.Fprintln(w)
	}
}

// sortSides stable-partitions a category: LONG rows first, then SHORT.
func sortSides(sigs []types.Signal) []types.Signal {
	out := make([]types.Signal, 0, len(sigs))
	for _, s := range sigs {
		if s.Side == types.SideLong {
			out = append(out, s)
		}
	}
	for _, s := range sigs {
		if s.Side != types.SideLong {
			out = append(out, s)
		}
	}
	return out
}

// ParsedSignal is one report row read back, tagged with the anchor
// section it came from.
type ParsedSignal struct {
	types.Signal
	Role types.AnchorRole `json:"role"`
}

// ParseReport reads a report file back into signals. The report format
// is a stable contract, so the API serves from the file the last run
// wrote rather than from process state.
func ParseReport(r io.Reader) ([]ParsedSignal, string, error) {
	var (
		out       []ParsedSignal
		role      = types.RoleCurrent
		completed string
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == sectionCurrent:
			role = types.RoleCurrent
			continue
		case line == sectionPrevious:
			role = types.RolePrevious
			continue
		case strings.HasPrefix(line, "Run completed at "):
			completed = strings.TrimPrefix(line, "Run completed at ")
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) != 4 {
			return nil, "", fmt.Errorf("malformed report line: %q", line)
		}
		out = append(out, ParsedSignal{
			Signal: types.Signal{
				Symbol: parts[0],
				Date:   parts[1],
				Label:  parts[2],
				Side:   types.Side(parts[3]),
			},
			Role: role,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, "", err
	}
	return out, completed, nil
}
