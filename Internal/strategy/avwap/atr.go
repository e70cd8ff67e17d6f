package avwap

import (
	"math"

	"github.com/fazecat/avwapscout/Internal/types"
)

const (
	// DefaultATRLength is the trailing window for the bounce-scaling ATR.
	DefaultATRLength = 20
	// DefaultATRMult scales the ATR into the bounce touch/push thresholds.
	DefaultATRMult = 0.05
)

// ATR returns the simple average of the trailing `length` True Range
// values. The boolean is false when fewer than length+1 bars exist or the
// average is not positive.
func ATR(bars []types.Bar, length int) (float64, bool) {
	if length <= 0 || len(bars) < length+1 {
		return 0, false
	}

	trs := make([]float64, 0, len(bars)-1)
	prevClose := bars[0].Close
	for i := 1; i < len(bars); i++ {
		h := bars[i].High
		l := bars[i].Low
		tr := math.Max(h-l, math.Max(math.Abs(h-prevClose), math.Abs(l-prevClose)))
		trs = append(trs, tr)
		prevClose = bars[i].Close
	}

	sum := 0.0
	for _, tr := range trs[len(trs)-length:] {
		sum += tr
	}
	atr := sum / float64(length)
	if atr <= 0 {
		return 0, false
	}
	return atr, true
}
