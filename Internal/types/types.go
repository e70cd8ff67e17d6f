package types

import "time"

type Bar struct {
	Date   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume int64     `json:"v"`
}

// TypicalPrice is the OHLC4 average used by the anchored VWAP.
func (b Bar) TypicalPrice() float64 {
	return (b.Open + b.High + b.Low + b.Close) / 4.0
}

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// AnchorRole identifies which earnings anchor a signal was derived from.
type AnchorRole string

const (
	RoleCurrent  AnchorRole = "current"
	RolePrevious AnchorRole = "previous"
)

// Signal is one detected event. Date is the MM/DD display date of the bar
// that produced it. Price is the close at detection time; it is stored in
// the signal history but not written to the report file.
type Signal struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Label  string  `json:"label"`
	Side   Side    `json:"side"`
	Price  float64 `json:"price,omitempty"`
}

// Bands holds the anchored VWAP and its deviation bands. Valid is false
// when the computation is undefined (zero cumulative volume from the
// anchor onwards).
type Bands struct {
	VWAP   float64
	Stdev  float64
	Upper1 float64
	Upper2 float64
	Upper3 float64
	Lower1 float64
	Lower2 float64
	Lower3 float64
	Valid  bool
}
