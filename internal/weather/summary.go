package weather

import "math"

// Summary note strings are part of the response contract.
const (
	noteInWindow    = "based on available forecast window"
	noteOutOfWindow = "date range is outside forecast window"
)

// SummarizeRange aggregates the per-day temperatures of the compacted
// forecast over the inclusive start..end window. It returns nil when either
// bound is missing or there is no forecast to summarize. start <= end is the
// caller's responsibility.
func SummarizeRange(daily []DailyForecastEntry, start, end *Date) *TemperatureSummary {
	if start == nil || end == nil || len(daily) == 0 {
		return nil
	}

	temps := make(map[Date]float64, len(daily))
	for _, e := range daily {
		if e.Temp != nil {
			temps[e.Day] = *e.Temp
		}
	}

	var collected []float64
	for d := *start; !d.After(*end); d = d.Next() {
		if t, ok := temps[d]; ok {
			collected = append(collected, t)
		}
	}

	if len(collected) == 0 {
		return &TemperatureSummary{Count: 0, Note: noteOutOfWindow}
	}

	sum, lo, hi := collected[0], collected[0], collected[0]
	for _, t := range collected[1:] {
		sum += t
		if t < lo {
			lo = t
		}
		if t > hi {
			hi = t
		}
	}

	return &TemperatureSummary{
		Count: len(collected),
		Avg:   round2(sum / float64(len(collected))),
		Min:   round2(lo),
		Max:   round2(hi),
		Note:  noteInWindow,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
