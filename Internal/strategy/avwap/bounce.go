package avwap

import (
	"math"

	"github.com/fazecat/avwapscout/Internal/types"
)

// BounceUp reports whether the last three bars form an upward bounce off
// `level`: the middle bar dips to the level (within eps) but closes at or
// above it, and the latest bar closes higher and at least `push` above the
// level. eps and push are both atrMult*atr.
//
// Returns false, never an error, when the level or ATR is undefined or the
// series is shorter than atrLength+3 bars.
func BounceUp(bars []types.Bar, level, atr float64) bool {
	return BounceUpAt(bars, level, atr, DefaultATRLength, DefaultATRMult)
}

// BounceDown is the short-side mirror of BounceUp: a poke above the level,
// a close back at or below it, then a lower close at least `push` below.
func BounceDown(bars []types.Bar, level, atr float64) bool {
	return BounceDownAt(bars, level, atr, DefaultATRLength, DefaultATRMult)
}

func BounceUpAt(bars []types.Bar, level, atr float64, atrLength int, atrMult float64) bool {
	if len(bars) < atrLength+3 || math.IsNaN(level) || atr <= 0 {
		return false
	}

	eps := atrMult * atr
	push := atrMult * atr

	b := bars[len(bars)-2]
	c := bars[len(bars)-1]

	touched := b.Low <= level+eps
	reclaimed := b.Close >= level
	confirm := c.Close > b.Close && c.Close >= level+push
	return touched && reclaimed && confirm
}

func BounceDownAt(bars []types.Bar, level, atr float64, atrLength int, atrMult float64) bool {
	if len(bars) < atrLength+3 || math.IsNaN(level) || atr <= 0 {
		return false
	}

	eps := atrMult * atr
	push := atrMult * atr

	b := bars[len(bars)-2]
	c := bars[len(bars)-1]

	touched := b.High >= level-eps
	rejected := b.Close <= level
	confirm := c.Close < b.Close && c.Close <= level-push
	return touched && rejected && confirm
}
