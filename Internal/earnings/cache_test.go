package earnings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNormalizeEntry_LegacyShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []time.Time
	}{
		{"bare string", `"2024-01-05"`, []time.Time{day("2024-01-05")}},
		{"string list", `["2024-01-05", "2023-10-12"]`, []time.Time{day("2024-01-05"), day("2023-10-12")}},
		{"unordered list", `["2023-10-12", "2024-01-05"]`, []time.Time{day("2024-01-05"), day("2023-10-12")}},
		{"current/previous dict", `{"current": "2024-01-05", "previous": "2023-10-12"}`, []time.Time{day("2024-01-05"), day("2023-10-12")}},
		{"legacy latest/prior keys", `{"latest": "2024-01-05", "prior": "2023-10-12"}`, []time.Time{day("2024-01-05"), day("2023-10-12")}},
		{"dates key wins", `{"current": "2024-01-05", "dates": ["2024-01-05", "2023-10-12", "2023-07-20"]}`, []time.Time{day("2024-01-05"), day("2023-10-12"), day("2023-07-20")}},
		{"duplicates collapse", `["2024-01-05", "2024-01-05"]`, []time.Time{day("2024-01-05")}},
		{"garbage date dropped", `["not-a-date", "2024-01-05"]`, []time.Time{day("2024-01-05")}},
		{"null", `null`, nil},
		{"number", `42`, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeEntry(json.RawMessage(tc.raw))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCache_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earnings_cache.json")

	c := NewCache()
	c.Put("ABC", []time.Time{day("2023-10-12"), day("2024-01-05")})
	c.Put("XYZ", []time.Time{day("2024-02-01"), day("2023-11-02"), day("2023-08-03")})
	require.NoError(t, c.Save(path))

	reloaded := LoadCache(path)
	assert.Equal(t, []time.Time{day("2024-01-05"), day("2023-10-12")}, reloaded.Dates("ABC"))
	assert.Equal(t, []time.Time{day("2024-02-01"), day("2023-11-02"), day("2023-08-03")}, reloaded.Dates("XYZ"))

	// The dates key is only persisted when more than two dates are known.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw["ABC"], "dates")
	assert.Contains(t, raw["ABC"], "previous")
	assert.Contains(t, raw["XYZ"], "dates")
}

func TestCache_LegacyFileNormalizesOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earnings_cache.json")
	legacy := `{"ABC": "2024-01-05", "DEF": ["2023-09-01", "2024-03-08"]}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0644))

	c := LoadCache(path)
	assert.Equal(t, []time.Time{day("2024-01-05")}, c.Dates("ABC"))
	assert.Equal(t, []time.Time{day("2024-03-08"), day("2023-09-01")}, c.Dates("DEF"))

	// Saving rewrites the legacy entry in canonical form with no previous
	// key for a single-date symbol.
	require.NoError(t, c.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "2024-01-05", raw["ABC"]["current"])
	_, hasPrev := raw["ABC"]["previous"]
	assert.False(t, hasPrev)
}

func TestCache_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earnings_cache.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ABC": `), 0644))

	c := LoadCache(path)
	assert.Empty(t, c.Dates("ABC"))

	// A fresh normalized cache overwrites the corrupt file on save.
	c.Put("ABC", []time.Time{day("2024-01-05")})
	require.NoError(t, c.Save(path))
	assert.Equal(t, []time.Time{day("2024-01-05")}, LoadCache(path).Dates("ABC"))
}

func TestMergeDates(t *testing.T) {
	a := []time.Time{day("2024-01-05"), day("2023-10-12")}
	b := []time.Time{day("2023-10-12"), day("2024-04-01")}

	got := MergeDates(a, b)
	assert.Equal(t, []time.Time{day("2024-04-01"), day("2024-01-05"), day("2023-10-12")}, got)

	assert.Empty(t, MergeDates(nil, nil))
}
