package forecast

import (
	"github.com/weatherglass/weatherglass/internal/models"
)

// MaxDays caps the number of daily summaries returned by Aggregate.
const MaxDays = 5

// Aggregate collapses a chronologically ordered sequence of 3-hour forecast
// samples into at most MaxDays daily summaries, one per distinct calendar day
// in order of first appearance. The first sample seen for a day becomes that
// day's representative verbatim: the upstream embeds the daily min/max in
// every sample, so no recomputation across samples is done. The calendar date
// comes from the sample's own UTC epoch, not the server's local zone. Input
// is scanned as given and never re-sorted; an empty input yields an empty
// (non-nil) result.
func Aggregate(samples []models.ForecastSample) []models.DailySummary {
	summaries := make([]models.DailySummary, 0, MaxDays)
	seen := make(map[string]struct{}, MaxDays)

	for _, s := range samples {
		day := s.Timestamp.UTC()
		date := day.Format("2006-01-02")
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		summaries = append(summaries, models.DailySummary{
			Date:          date,
			DayName:       day.Weekday().String(),
			Temperature:   models.TemperatureRange{Min: s.TempMin, Max: s.TempMax},
			Description:   s.Description,
			Icon:          s.Icon,
			Humidity:      s.Humidity,
			WindSpeed:     s.WindSpeed,
			Precipitation: s.Precipitation,
		})
		if len(summaries) == MaxDays {
			break
		}
	}
	return summaries
}
