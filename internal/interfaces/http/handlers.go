package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantegy/tradepulse/internal/risk"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	}
}

// latestClassificationHandler reads the cache first, then the repo, then
// falls back to the in-memory cycle result.
func latestClassificationHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			symbol = deps.Symbol
		}
		timeframe := r.URL.Query().Get("timeframe")
		if timeframe == "" {
			timeframe = deps.Timeframe
		}

		if deps.Cache != nil {
			row, err := deps.Cache.GetLatest(r.Context(), symbol, timeframe)
			if err != nil {
				log.Warn().Err(err).Msg("cache read failed, falling through")
			} else if row != nil {
				writeJSON(w, http.StatusOK, row)
				return
			}
		}
		if deps.Repo != nil {
			row, err := deps.Repo.Latest(r.Context(), symbol, timeframe)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
				return
			}
			if row != nil {
				writeJSON(w, http.StatusOK, row)
				return
			}
		}
		if last := deps.Cycle.Last(); last != nil && last.Symbol == symbol {
			writeJSON(w, http.StatusOK, last.Regime)
			return
		}
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no classification yet"})
	}
}

func latestCycleHandler(view CycleView) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		last := view.Last()
		if last == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no cycle yet"})
			return
		}
		writeJSON(w, http.StatusOK, last)
	}
}

// riskPreviewHandler computes what-if risk parameters from query inputs
// without touching live state.
func riskPreviewHandler(engine *risk.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		atrPct, err := strconv.ParseFloat(q.Get("atr_pct"), 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "atr_pct is required"})
			return
		}
		in := risk.Inputs{
			Regime: risk.RegimeClass(q.Get("regime")),
			ATRPct: &atrPct,
		}
		if v := q.Get("loss_streak"); v != "" {
			if streak, err := strconv.Atoi(v); err == nil {
				in.LossStreak = streak
			}
		}
		if v := q.Get("stage"); v != "" {
			if stage, err := strconv.Atoi(v); err == nil {
				in.Stage = stage
			}
		}
		if v := q.Get("impulse"); v != "" {
			if impulse, err := strconv.ParseFloat(v, 64); err == nil {
				in.Impulse = &impulse
			}
		}
		if q.Get("health") == "WARN" {
			in.MarketHealth = risk.HealthWarn
		}

		params, err := engine.Compute(in)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		// An equity input additionally previews the position size the
		// equity-fraction model would allocate against the computed stop.
		if v := q.Get("equity"); v != "" {
			equity, err := strconv.ParseFloat(v, 64)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "equity must be a number"})
				return
			}
			sizing, err := engine.ComputeSizing(equity, params.SLPct)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, riskPreviewResponse{Params: params, Sizing: sizing})
			return
		}
		writeJSON(w, http.StatusOK, params)
	}
}

type riskPreviewResponse struct {
	Params *risk.Params `json:"params"`
	Sizing *risk.Sizing `json:"sizing"`
}
