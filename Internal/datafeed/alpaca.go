package datafeed

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/fazecat/avwapscout/Internal/types"
	"github.com/fazecat/avwapscout/Internal/utils"
)

// fetchDailyBars pulls daily stock bars from the Alpaca data API. The
// response is sorted ascending by date before returning; a 403 (plan
// without access) degrades to no data rather than an error.
func (s *Session) fetchDailyBars(symbol string, lookbackDays int) ([]types.Bar, error) {
	if lookbackDays < 2 {
		lookbackDays = 2
	}
	start := time.Now().UTC().AddDate(0, 0, -lookbackDays)

	apiURL := fmt.Sprintf(
		"%s/v2/stocks/%s/bars?timeframe=1Day&limit=%d&start=%s",
		s.baseURL, url.PathEscape(symbol), lookbackDays+10, start.Format(time.RFC3339),
	)

	var bars []types.Bar
	retryConfig := utils.DefaultRetryConfig()

	err := utils.RetryWithBackoff(func() error {
		req, err := http.NewRequest("GET", apiURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("APCA-API-KEY-ID", s.apiKey)
		req.Header.Set("APCA-API-SECRET-KEY", s.apiSecret)

		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusForbidden {
			bars = []types.Bar{}
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("data API returned status %d", resp.StatusCode)
		}

		var r struct {
			Bars []types.Bar `json:"bars"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			return err
		}
		bars = r.Bars
		return nil
	}, retryConfig)

	if err != nil {
		return nil, err
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
