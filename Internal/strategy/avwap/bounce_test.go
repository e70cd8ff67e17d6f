package avwap

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazecat/avwapscout/Internal/types"
)

func bounceBar(day int, o, h, l, c float64) types.Bar {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day)
	return types.Bar{Date: d, Open: o, High: h, Low: l, Close: c, Volume: 1000}
}

// padBars prepends enough quiet history to satisfy the atrLength+3 minimum
// and give a well-defined ATR.
func padBars(tail ...types.Bar) []types.Bar {
	bars := make([]types.Bar, 0, DefaultATRLength+3)
	for i := 0; i < DefaultATRLength+3-len(tail); i++ {
		bars = append(bars, bounceBar(i, 100, 101, 99, 100))
	}
	for i, b := range tail {
		b.Date = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, len(bars)+i)
		bars = append(bars, b)
	}
	return bars
}

func TestBounceUp_TouchReclaimConfirm(t *testing.T) {
	level := 100.0
	atr := 2.0 // eps = push = 0.1

	bars := padBars(
		bounceBar(0, 101, 102, 100.5, 101),   // A: ignored
		bounceBar(0, 101, 101.5, 99.95, 100.2), // B: dips to level+eps, closes above
		bounceBar(0, 100.5, 101.5, 100.2, 100.9), // C: higher close, >= level+push
	)

	assert.True(t, BounceUp(bars, level, atr))
	assert.False(t, BounceDown(bars, level, atr))
}

func TestBounceDown_TouchRejectConfirm(t *testing.T) {
	level := 100.0
	atr := 2.0

	bars := padBars(
		bounceBar(0, 99, 99.5, 98.5, 99),
		bounceBar(0, 99, 100.05, 98.8, 99.8),  // pokes level-eps, closes below
		bounceBar(0, 99.5, 99.6, 98.5, 99.1), // lower close, <= level-push
	)

	assert.True(t, BounceDown(bars, level, atr))
	assert.False(t, BounceUp(bars, level, atr))
}

func TestBounce_NeverBothDirections(t *testing.T) {
	level := 100.0
	atr := 2.0

	cases := [][]types.Bar{
		padBars(bounceBar(0, 100, 101, 99, 100), bounceBar(0, 100, 101, 99.9, 100.2), bounceBar(0, 100, 101.5, 100, 101)),
		padBars(bounceBar(0, 100, 101, 99, 100), bounceBar(0, 100, 100.1, 99, 99.8), bounceBar(0, 99.5, 100, 98.5, 99)),
		padBars(bounceBar(0, 100, 101, 99, 100), bounceBar(0, 100, 102, 98, 100), bounceBar(0, 100, 102, 98, 100)),
		padBars(bounceBar(0, 95, 96, 94, 95), bounceBar(0, 95, 96, 94, 95.5), bounceBar(0, 95.5, 97, 95, 96.5)),
	}

	for i, bars := range cases {
		up := BounceUp(bars, level, atr)
		down := BounceDown(bars, level, atr)
		assert.False(t, up && down, "case %d fired both directions", i)
	}
}

func TestBounce_GuardConditions(t *testing.T) {
	level := 100.0
	atr := 2.0

	short := padBars()[:DefaultATRLength+2]
	require.Less(t, len(short), DefaultATRLength+3)
	assert.False(t, BounceUp(short, level, atr))
	assert.False(t, BounceDown(short, level, atr))

	full := padBars(
		bounceBar(0, 101, 102, 100.5, 101),
		bounceBar(0, 101, 101.5, 99.95, 100.2),
		bounceBar(0, 100.5, 101.5, 100.2, 100.9),
	)
	assert.False(t, BounceUp(full, math.NaN(), atr))
	assert.False(t, BounceUp(full, level, 0))
	assert.False(t, BounceUp(full, level, -1))
}
