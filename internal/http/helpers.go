package http

import (
	"encoding/json"
	"net/http"

	"cardstats/internal/chart"
	"cardstats/internal/stats"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Failed []string `json:"failed,omitempty"`
}

type chartsResponse struct {
	Year    string                        `json:"year"`
	Bank    string                        `json:"bank"`
	Labels  []string                      `json:"labels"`
	Months  int                           `json:"months"`
	Charts  map[chart.Target]chart.Config `json:"charts"`
	Summary stats.Summary                 `json:"summary"`
	Skipped []string                      `json:"skipped"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
