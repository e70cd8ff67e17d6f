package utils

import (
	"bufio"
	"os"
	"strings"
)

// tickerFileHeader is the export header TC2000 writes at the top of its
// symbol lists.
const tickerFileHeader = "SYMBOLS FROM TC2000"

// LoadTickersFromFile reads a newline-delimited ticker list, skipping
// blank lines and the TC2000 export header. Symbols are uppercased.
func LoadTickersFromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tickers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		val := strings.TrimSpace(scanner.Text())
		if val == "" || strings.HasPrefix(strings.ToUpper(val), tickerFileHeader) {
			continue
		}
		tickers = append(tickers, strings.ToUpper(val))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tickers, nil
}
