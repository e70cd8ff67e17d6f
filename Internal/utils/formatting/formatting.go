package formatting

import "time"

// ParseDate parses a date string in the formats the data sources emit.
// Returns the zero time when nothing matches.
func ParseDate(dateStr string) time.Time {
	formats := []string{
		"2006-01-02", // YYYY-MM-DD (standard)
		"1/2/2006",   // M/D/YYYY (Nasdaq dateReported)
		"01/02/2006", // MM/DD/YYYY
		"20060102",   // YYYYMMDD (compact feed dates)
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t
		}
	}

	return time.Time{}
}
