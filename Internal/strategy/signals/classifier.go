package signals

import (
	"fmt"
	"time"

	"github.com/fazecat/avwapscout/Internal/strategy/avwap"
	"github.com/fazecat/avwapscout/Internal/types"
)

// Level labels as they appear in the report file.
const (
	LabelVWAP   = "VWAP"
	LabelUpper1 = "UPPER_1"
	LabelUpper2 = "UPPER_2"
	LabelUpper3 = "UPPER_3"
	LabelLower1 = "LOWER_1"
	LabelLower2 = "LOWER_2"
	LabelLower3 = "LOWER_3"

	prevPrefix = "PREV_"
)

// Params tunes the classifier. Zero values fall back to the defaults used
// by the original scanner.
type Params struct {
	ATRLength int
	ATRMult   float64
}

func (p Params) withDefaults() Params {
	if p.ATRLength <= 0 {
		p.ATRLength = avwap.DefaultATRLength
	}
	if p.ATRMult <= 0 {
		p.ATRMult = avwap.DefaultATRMult
	}
	return p
}

// Input is one symbol/anchor evaluation. Bands must already be computed
// from the anchor this role refers to.
type Input struct {
	Symbol  string
	Bars    []types.Bar
	Bands   types.Bands
	IsLong  bool
	IsShort bool
	Role    types.AnchorRole
}

// Result groups the emitted signals by report category. For the previous
// anchor role only the cross and bounce categories are populated and all
// labels carry the PREV_ prefix.
type Result struct {
	Tier3        []types.Signal
	Tier2        []types.Signal
	Tier1        []types.Signal
	VWAPCrosses  []types.Signal
	CrossUps     []types.Signal
	CrossDowns   []types.Signal
	BounceLongs  []types.Signal
	BounceShorts []types.Signal
}

// Classify runs every detector that applies to the input's anchor role.
// It is stateless: the same bars and bands always produce the same result.
func Classify(in Input, p Params) Result {
	p = p.withDefaults()
	var res Result

	if len(in.Bars) == 0 || !in.Bands.Valid || (!in.IsLong && !in.IsShort) {
		return res
	}

	last := in.Bars[len(in.Bars)-1]
	dstr := last.Date.Format("01/02")

	if in.Role == types.RoleCurrent {
		res.classifyTiers(in, dstr, last.Close)
		res.classifyVWAPTouches(in)
	}
	res.classifyCrossings(in, dstr, last.Close)
	res.classifyBounces(in, p, dstr, last.Close)

	return res
}

// classifyTiers emits at most one tier signal per side: the highest band
// the latest close has cleared, current anchor only.
func (r *Result) classifyTiers(in Input, dstr string, close float64) {
	if in.IsLong {
		switch {
		case close > in.Bands.Upper3:
			r.Tier3 = append(r.Tier3, sig(in.Symbol, dstr, LabelUpper3, types.SideLong, close))
		case close > in.Bands.Upper2:
			r.Tier2 = append(r.Tier2, sig(in.Symbol, dstr, LabelUpper2, types.SideLong, close))
		case close > in.Bands.Upper1:
			r.Tier1 = append(r.Tier1, sig(in.Symbol, dstr, LabelUpper1, types.SideLong, close))
		}
	}
	if in.IsShort {
		switch {
		case close < in.Bands.Lower3:
			r.Tier3 = append(r.Tier3, sig(in.Symbol, dstr, LabelLower3, types.SideShort, close))
		case close < in.Bands.Lower2:
			r.Tier2 = append(r.Tier2, sig(in.Symbol, dstr, LabelLower2, types.SideShort, close))
		case close < in.Bands.Lower1:
			r.Tier1 = append(r.Tier1, sig(in.Symbol, dstr, LabelLower1, types.SideShort, close))
		}
	}
}

// classifyVWAPTouches scans the last two calendar days present in the
// series. A day that touches VWAP emits a cross, unless VWAP, UPPER_1 and
// LOWER_1 were all inside the day's range: such a day swallows the whole
// band cluster and says nothing.
func (r *Result) classifyVWAPTouches(in Input) {
	start := len(in.Bars) - 2
	if start < 0 {
		start = 0
	}

	levels := map[string]float64{
		LabelVWAP:   in.Bands.VWAP,
		LabelUpper1: in.Bands.Upper1,
		LabelUpper2: in.Bands.Upper2,
		LabelUpper3: in.Bands.Upper3,
		LabelLower1: in.Bands.Lower1,
		LabelLower2: in.Bands.Lower2,
		LabelLower3: in.Bands.Lower3,
	}

	side := types.SideShort
	if in.IsLong {
		side = types.SideLong
	}

	for _, bar := range in.Bars[start:] {
		touched := map[string]bool{}
		for name, lvl := range levels {
			if bar.Low <= lvl && lvl <= bar.High {
				touched[name] = true
			}
		}
		if touched[LabelVWAP] && touched[LabelUpper1] && touched[LabelLower1] {
			continue
		}
		if touched[LabelVWAP] {
			r.VWAPCrosses = append(r.VWAPCrosses, sig(in.Symbol, bar.Date.Format("01/02"), LabelVWAP, side, bar.Close))
		}
	}
}

// classifyCrossings compares the previous close to the latest close
// against each band independently, so one big move can fire several
// levels at once.
func (r *Result) classifyCrossings(in Input, dstr string, close float64) {
	if len(in.Bars) < 2 {
		return
	}
	prevClose := in.Bars[len(in.Bars)-2].Close

	if in.IsLong {
		uppers := []float64{in.Bands.Upper1, in.Bands.Upper2, in.Bands.Upper3}
		for k, lvl := range uppers {
			if prevClose <= lvl && lvl < close {
				label := fmt.Sprintf("%sCROSS_UP_UPPER_%d", r.prefix(in.Role), k+1)
				r.CrossUps = append(r.CrossUps, sig(in.Symbol, dstr, label, types.SideLong, close))
			}
		}
	}
	if in.IsShort {
		lowers := []float64{in.Bands.Lower1, in.Bands.Lower2, in.Bands.Lower3}
		for k, lvl := range lowers {
			if prevClose >= lvl && lvl > close {
				label := fmt.Sprintf("%sCROSS_DOWN_LOWER_%d", r.prefix(in.Role), k+1)
				r.CrossDowns = append(r.CrossDowns, sig(in.Symbol, dstr, label, types.SideShort, close))
			}
		}
	}
}

// classifyBounces checks the ATR-scaled 3-bar bounce pattern. The current
// anchor watches the four levels nearest to each side's traffic; the
// previous anchor only watches the first band on its own side.
func (r *Result) classifyBounces(in Input, p Params, dstr string, close float64) {
	atr, ok := avwap.ATR(in.Bars, p.ATRLength)
	if !ok {
		return
	}

	up := func(level float64) bool {
		return avwap.BounceUpAt(in.Bars, level, atr, p.ATRLength, p.ATRMult)
	}
	down := func(level float64) bool {
		return avwap.BounceDownAt(in.Bars, level, atr, p.ATRLength, p.ATRMult)
	}

	if in.Role == types.RolePrevious {
		if in.IsLong && up(in.Bands.Upper1) {
			r.BounceLongs = append(r.BounceLongs, sig(in.Symbol, dstr, prevPrefix+"BOUNCE_UPPER_1", types.SideLong, close))
		}
		if in.IsShort && down(in.Bands.Lower1) {
			r.BounceShorts = append(r.BounceShorts, sig(in.Symbol, dstr, prevPrefix+"BOUNCE_LOWER_1", types.SideShort, close))
		}
		return
	}

	if in.IsLong {
		longLevels := []struct {
			label string
			value float64
		}{
			{"BOUNCE_LOWER_2", in.Bands.Lower2},
			{"BOUNCE_LOWER_1", in.Bands.Lower1},
			{"BOUNCE_VWAP", in.Bands.VWAP},
			{"BOUNCE_UPPER_1", in.Bands.Upper1},
		}
		for _, lvl := range longLevels {
			if up(lvl.value) {
				r.BounceLongs = append(r.BounceLongs, sig(in.Symbol, dstr, lvl.label, types.SideLong, close))
			}
		}
	}
	if in.IsShort {
		shortLevels := []struct {
			label string
			value float64
		}{
			{"BOUNCE_UPPER_2", in.Bands.Upper2},
			{"BOUNCE_UPPER_1", in.Bands.Upper1},
			{"BOUNCE_VWAP", in.Bands.VWAP},
			{"BOUNCE_LOWER_1", in.Bands.Lower1},
		}
		for _, lvl := range shortLevels {
			if down(lvl.value) {
				r.BounceShorts = append(r.BounceShorts, sig(in.Symbol, dstr, lvl.label, types.SideShort, close))
			}
		}
	}
}

func (r *Result) prefix(role types.AnchorRole) string {
	if role == types.RolePrevious {
		return prevPrefix
	}
	return ""
}

func sig(symbol, dstr, label string, side types.Side, price float64) types.Signal {
	return types.Signal{Symbol: symbol, Date: dstr, Label: label, Side: side, Price: price}
}

// SelectAnchors applies the recency guard to a most-recent-first anchor
// list. A latest earnings date younger than recentDays cannot anchor a
// stable VWAP yet, so the prior date is promoted to current and the
// previous-anchor pass is suppressed for this cycle.
func SelectAnchors(anchors []time.Time, today time.Time, recentDays int) (current, previous *time.Time) {
	if len(anchors) == 0 {
		return nil, nil
	}

	latest := anchors[0]
	if today.Sub(latest) > time.Duration(recentDays)*24*time.Hour {
		current = &latest
		if len(anchors) > 1 {
			previous = &anchors[1]
		}
		return current, previous
	}

	if len(anchors) > 1 {
		return &anchors[1], nil
	}
	return nil, nil
}
