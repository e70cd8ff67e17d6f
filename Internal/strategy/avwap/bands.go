package avwap

import (
	"math"

	"github.com/fazecat/avwapscout/Internal/types"
)

// BandsFromAnchor accumulates the anchored VWAP and its 1/2/3 standard
// deviation bands over bars[anchorIdx:] in a single forward pass.
//
// The variance term is accumulated against the running VWAP at each step,
// not the final one. That makes the result a specific approximation of a
// two-pass weighted stdev; downstream consumers depend on these exact
// values, so the accumulation order must not be changed.
//
// Bars with volume <= 0 are skipped entirely: they contribute to neither
// the VWAP nor the deviation sum. If no volume accumulates at all the
// result is invalid.
func BandsFromAnchor(bars []types.Bar, anchorIdx int) types.Bands {
	if anchorIdx < 0 || anchorIdx >= len(bars) {
		return types.Bands{}
	}

	var cumVol, cumVP, cumSD float64
	for i := anchorIdx; i < len(bars); i++ {
		v := float64(bars[i].Volume)
		if v <= 0 {
			continue
		}
		tp := bars[i].TypicalPrice()
		cumVol += v
		cumVP += tp * v
		vw := cumVP / cumVol
		dev := tp - vw
		cumSD += dev * dev * v
	}

	if cumVol == 0 {
		return types.Bands{}
	}

	vwap := cumVP / cumVol
	stdev := math.Sqrt(cumSD / cumVol)

	return types.Bands{
		VWAP:   vwap,
		Stdev:  stdev,
		Upper1: vwap + stdev,
		Upper2: vwap + 2*stdev,
		Upper3: vwap + 3*stdev,
		Lower1: vwap - stdev,
		Lower2: vwap - 2*stdev,
		Lower3: vwap - 3*stdev,
		Valid:  true,
	}
}
