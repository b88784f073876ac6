// README: Trip metrics calculator (pure; no I/O).
package trip

import (
	"sort"

	"fitapp/internal/modules/gps"
	"fitapp/internal/types"
)

// kcal per meter at ratio 1.0 is caloriesPerKm/1000.
const caloriesPerKm = 50.0

// CalculateMetrics derives a summary from a session's samples and reports
// whether the session is finalized. The input is not modified.
//
// With fewer than two samples only StartTime is set and the session is never
// finalized. Otherwise samples are stable-sorted by timestamp and the
// chronologically last one decides the activity and, through its last_entry
// flag, finalization. Running figures are returned for unfinalized sessions
// but EndTime stays nil.
func CalculateMetrics(points []gps.Sample) (Summary, bool) {
	if len(points) < 2 {
		sum := Summary{Activity: types.DefaultActivity}
		if len(points) == 1 {
			start := points[0].Timestamp
			sum.StartTime = &start
			sum.Activity = points[0].Activity.OrDefault()
		}
		return sum, false
	}

	sorted := make([]gps.Sample, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	first, last := sorted[0], sorted[len(sorted)-1]

	distance := 0.0
	for i := 1; i < len(sorted); i++ {
		distance += haversineMeters(
			sorted[i-1].Latitude, sorted[i-1].Longitude,
			sorted[i].Latitude, sorted[i].Longitude,
		)
	}

	activity := last.Activity.OrDefault()
	calories := 0.0
	if distance > 0 {
		calories = distance * activity.CaloriesRatio() * caloriesPerKm / 1000.0
	}
	duration := last.Timestamp.Sub(first.Timestamp).Seconds()
	start := first.Timestamp

	sum := Summary{
		StartTime:      &start,
		Duration:       &duration,
		Distance:       &distance,
		CaloriesBurned: &calories,
		Activity:       activity,
	}
	if !last.LastEntry {
		return sum, false
	}
	end := last.Timestamp
	sum.EndTime = &end
	return sum, true
}
