package scoring

import (
	"math"
	"time"
)

// MacroEvent is one macro or sentiment reading supplied by the news
// pipeline: a signed score, a relevance weight, and a decay half-life.
// Historical-event similarity matches arrive as events with their
// similarity already folded into Weight.
type MacroEvent struct {
	Label         string    `json:"label"`
	Score         int       `json:"score"`  // signed, -100..+100
	Weight        float64   `json:"weight"` // 0..1 relevance
	Timestamp     time.Time `json:"timestamp"`
	HalfLifeHours float64   `json:"half_life_hours"`
}

// MacroAxis fuses time-decayed macro/sentiment events into one axis.
// An empty event list yields a neutral zero axis.
func MacroAxis(events []MacroEvent, now time.Time) AxisResult {
	components := map[string]int{}
	total := 0.0

	for _, ev := range events {
		halfLife := ev.HalfLifeHours
		if halfLife <= 0 {
			halfLife = 6.0
		}
		ageHours := now.Sub(ev.Timestamp).Hours()
		if ageHours < 0 {
			ageHours = 0
		}
		decay := math.Pow(0.5, ageHours/halfLife)
		contribution := float64(ev.Score) * ev.Weight * decay

		components[ev.Label] = int(math.Round(contribution))
		total += contribution
	}

	return AxisResult{
		Name:       "macro",
		Score:      clampAxis(int(math.Round(total))),
		Components: components,
	}
}
