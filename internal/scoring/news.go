package scoring

// NewsAxis builds the supplementary news-event axis from an externally
// classified event score. The axis only emits a bounded score; the fusion
// point enforces that it can never act alone or flip the dominant side.
// A nil score yields a neutral axis.
func NewsAxis(score *int) AxisResult {
	value := 0
	if score != nil {
		value = clampAxis(*score)
	}

	return AxisResult{
		Name:            "news",
		Score:           value,
		Components:      map[string]int{"event": value},
		IsSupplementary: true,
	}
}
