package earnings

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// Cache holds the per-symbol earnings anchor dates persisted between runs.
// Entries are kept canonical in memory: distinct past report dates, most
// recent first.
type Cache struct {
	entries map[string][]time.Time
}

// cacheEntry is the persisted shape. Dates is only written when more than
// two dates are known, matching what earlier versions of the cache did.
type cacheEntry struct {
	Current  string   `json:"current,omitempty"`
	Previous string   `json:"previous,omitempty"`
	Dates    []string `json:"dates,omitempty"`
}

func NewCache() *Cache {
	return &Cache{entries: map[string][]time.Time{}}
}

// LoadCache reads the cache file at path. A missing or corrupt file yields
// an empty cache; the normalized form overwrites it on the next Save.
func LoadCache(path string) *Cache {
	c := NewCache()

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Str("path", path).Msg("earnings cache is corrupt; starting with empty cache")
		return c
	}

	for sym, entry := range raw {
		dates := NormalizeEntry(entry)
		if len(dates) == 0 {
			continue
		}
		c.entries[sym] = dates
	}
	return c
}

// Save writes the cache back in canonical form.
func (c *Cache) Save(path string) error {
	out := make(map[string]cacheEntry, len(c.entries))
	for sym, dates := range c.entries {
		if len(dates) == 0 {
			continue
		}
		entry := cacheEntry{Current: dates[0].Format("2006-01-02")}
		if len(dates) > 1 {
			entry.Previous = dates[1].Format("2006-01-02")
		}
		if len(dates) > 2 {
			for _, d := range dates {
				entry.Dates = append(entry.Dates, d.Format("2006-01-02"))
			}
		}
		out[sym] = entry
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Dates returns the cached anchor dates for symbol, most recent first.
func (c *Cache) Dates(symbol string) []time.Time {
	dates := c.entries[symbol]
	out := make([]time.Time, len(dates))
	copy(out, dates)
	return out
}

// Put replaces the entry for symbol with the canonical form of dates.
func (c *Cache) Put(symbol string, dates []time.Time) {
	merged := MergeDates(dates)
	if len(merged) == 0 {
		return
	}
	c.entries[symbol] = merged
}

// NormalizeEntry maps one raw persisted cache value to canonical dates.
// Three legacy shapes are tolerated besides the current one: a bare ISO
// string, a list of ISO strings, and a dict carrying any of the
// current/previous/latest/prior keys.
func NormalizeEntry(raw json.RawMessage) []time.Time {
	var values []string

	var s string
	var list []string
	var obj map[string]json.RawMessage

	switch {
	case json.Unmarshal(raw, &s) == nil:
		values = []string{s}
	case json.Unmarshal(raw, &list) == nil:
		values = list
	case json.Unmarshal(raw, &obj) == nil:
		if datesRaw, ok := obj["dates"]; ok {
			var dates []string
			if json.Unmarshal(datesRaw, &dates) == nil {
				values = dates
			}
		}
		if len(values) == 0 {
			for _, key := range []string{"current", "previous", "latest", "prior"} {
				var v string
				if keyRaw, ok := obj[key]; ok && json.Unmarshal(keyRaw, &v) == nil {
					values = append(values, v)
				}
			}
		}
	}

	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	return MergeDates(dates)
}

// MergeDates merges date collections into one deduplicated list sorted
// most recent first. Dates are compared by calendar day, so the same day
// arriving from different sources (or time zones) counts once.
func MergeDates(collections ...[]time.Time) []time.Time {
	seen := map[string]bool{}
	var out []time.Time
	for _, col := range collections {
		for _, d := range col {
			if d.IsZero() {
				continue
			}
			key := d.Format("2006-01-02")
			if seen[key] {
				continue
			}
			seen[key] = true
			day, _ := time.Parse("2006-01-02", key)
			out = append(out, day)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out
}
