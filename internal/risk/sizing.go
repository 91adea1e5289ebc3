package risk

import "fmt"

// Sizing is the position notional derived from account equity and stop
// distance, before exchange rounding.
type Sizing struct {
	PositionUSDT float64  `json:"position_usdt"`
	Capped       bool     `json:"capped"`
	Floored      bool     `json:"floored"`
	Reasoning    []string `json:"reasoning,omitempty"`
}

// ComputeSizing converts the configured equity risk fraction into a position
// notional: equity * risk_pct / sl_pct, capped by the per-position equity
// fraction and then floored to the exchange minimum. Cap applies before
// floor, so a tiny account still trades at minimum notional.
func (e *Engine) ComputeSizing(equityUSDT, slPct float64) (*Sizing, error) {
	if !e.config.UseEquitySizing {
		return nil, fmt.Errorf("risk: equity sizing disabled")
	}
	if equityUSDT <= 0 {
		return nil, fmt.Errorf("risk: non-positive equity %.2f", equityUSDT)
	}
	if slPct <= 0 {
		return nil, fmt.Errorf("risk: non-positive sl_pct %.4f", slPct)
	}

	s := &Sizing{}
	s.PositionUSDT = equityUSDT * e.config.RiskPct / (slPct / 100.0)
	s.Reasoning = append(s.Reasoning, fmt.Sprintf("equity %.2f, risk %.2f%%, sl %.2f%%",
		equityUSDT, e.config.RiskPct*100, slPct))

	cap := equityUSDT * e.config.CapMaxPct
	if s.PositionUSDT > cap {
		s.PositionUSDT = cap
		s.Capped = true
		s.Reasoning = append(s.Reasoning, fmt.Sprintf("capped at %.1f%% of equity", e.config.CapMaxPct*100))
	}
	if s.PositionUSDT < e.config.MinNotional {
		s.PositionUSDT = e.config.MinNotional
		s.Floored = true
		s.Reasoning = append(s.Reasoning, fmt.Sprintf("floored to min notional %.2f", e.config.MinNotional))
	}
	return s, nil
}
