package weather

import (
	"sort"
	"time"
)

// maxForecastDays bounds the compacted forecast, matching the provider's
// 5-day horizon.
const maxForecastDays = 5

// CompactDaily collapses irregular multi-per-day forecast samples into at
// most one entry per calendar day, keeping the sample whose local hour is
// closest to noon. Distance ties keep the first sample in input order.
// Samples without a timestamp are bucketed as epoch 0; callers that do not
// want that day mixed into real data must drop such samples first.
func CompactDaily(samples []RawSample) []DailyForecastEntry {
	type candidate struct {
		hour   int
		local  time.Time
		sample RawSample
	}

	byDay := make(map[Date]candidate)
	for _, s := range samples {
		var epoch int64
		if s.Epoch != nil {
			epoch = *s.Epoch
		}
		local := time.Unix(epoch, 0).In(time.Local)
		day := DateOf(local)
		hour := local.Hour()

		best, ok := byDay[day]
		if !ok || absInt(hour-12) < absInt(best.hour-12) {
			byDay[day] = candidate{hour: hour, local: local, sample: s}
		}
	}

	days := make([]Date, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	if len(days) > maxForecastDays {
		days = days[:maxForecastDays]
	}

	entries := make([]DailyForecastEntry, 0, len(days))
	for _, day := range days {
		c := byDay[day]
		entries = append(entries, DailyForecastEntry{
			Day:         day,
			Date:        day.String(),
			Time:        c.local.Format(displayTime),
			Temp:        c.sample.Temp,
			Description: titleCase(c.sample.Description),
			IconURL:     IconURL(c.sample.Icon),
		})
	}
	return entries
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
