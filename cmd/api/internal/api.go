package internal

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fazecat/avwapscout/Internal/datafeed"
	"github.com/fazecat/avwapscout/Internal/runner"
	"github.com/fazecat/avwapscout/Internal/types"
	"github.com/fazecat/avwapscout/Internal/utils/config"
)

// API serves the latest scan results. It reads the report file the
// scanner process writes rather than sharing state with it, so the two
// can run and restart independently.
type API struct {
	Cfg        *config.Config
	JWTManager *JWTManager
}

func (api *API) loadReport() ([]runner.ParsedSignal, string, error) {
	f, err := os.Open(api.Cfg.Scanner.ReportFile)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return runner.ParseReport(f)
}

// HandleGetReport returns the whole last report, split by anchor section.
func (api *API) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	parsed, completed, err := api.loadReport()
	if err != nil {
		log.Warn().Err(err).Msg("could not read report")
		WriteError(w, http.StatusServiceUnavailable, "No report available yet")
		return
	}

	current := []runner.ParsedSignal{}
	previous := []runner.ParsedSignal{}
	for _, p := range parsed {
		if p.Role == types.RolePrevious {
			previous = append(previous, p)
		} else {
			current = append(current, p)
		}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"current":      current,
		"previous":     previous,
		"completed_at": completed,
	})
}

// HandleGetSignals returns report rows filtered by the side and role
// query parameters. Both filters are optional.
func (api *API) HandleGetSignals(w http.ResponseWriter, r *http.Request) {
	parsed, _, err := api.loadReport()
	if err != nil {
		log.Warn().Err(err).Msg("could not read report")
		WriteError(w, http.StatusServiceUnavailable, "No report available yet")
		return
	}

	side := strings.ToUpper(r.URL.Query().Get("side"))
	role := strings.ToLower(r.URL.Query().Get("role"))

	out := []runner.ParsedSignal{}
	for _, p := range parsed {
		if side != "" && string(p.Side) != side {
			continue
		}
		if role != "" && string(p.Role) != role {
			continue
		}
		out = append(out, p)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"signals": out,
		"count":   len(out),
	})
}

// HandleSignalHistory returns the newest persisted signals for one
// symbol. Needs the signal-history database.
func (api *API) HandleSignalHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "Missing symbol parameter")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	signals, err := datafeed.RecentSignals(r.Context(), symbol, limit)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("signal history query failed")
		WriteError(w, http.StatusServiceUnavailable, "Signal history unavailable")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  symbol,
		"signals": signals,
	})
}

func (api *API) HandleGenerateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID          string `json:"user_id"`
		Email           string `json:"email"`
		ExpirationHours int    `json:"expiration_hours"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.ExpirationHours <= 0 {
		req.ExpirationHours = 24
	}

	token, err := api.JWTManager.GenerateToken(req.UserID, req.Email, req.ExpirationHours)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":            token,
		"expiration_hours": req.ExpirationHours,
	})
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
