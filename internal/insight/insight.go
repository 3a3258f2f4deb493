// Package insight derives coaching metrics from raw Strava data.
// Everything here is a pure transformation; network access and
// persistence live in the strava and store packages.
package insight

import (
	"fmt"
	"strings"

	"github.com/Jayden1717/fitness-companion/internal/strava"
)

// HRZone buckets an average heart rate against the rider's max.
// Returns "N/A" when either value is missing.
func HRZone(averageHR, maxHR float64) string {
	if averageHR == 0 || maxHR == 0 {
		return "N/A"
	}
	switch {
	case averageHR < maxHR*0.6:
		return "Zone 1 (Recovery)"
	case averageHR < maxHR*0.7:
		return "Zone 2 (Endurance)"
	case averageHR < maxHR*0.8:
		return "Zone 3 (Tempo)"
	case averageHR < maxHR*0.9:
		return "Zone 4 (Threshold)"
	default:
		return "Zone 5 (Anaerobic)"
	}
}

// SufferScoreLabel renders a relative-effort score as "<score> (<label>)".
// Returns "N/A" when the score is missing.
func SufferScoreLabel(score float64) string {
	if score <= 0 {
		return "N/A"
	}
	var label string
	switch {
	case score < 25:
		label = "Light Effort"
	case score < 75:
		label = "Moderate Effort"
	case score < 125:
		label = "Tough Workout"
	default:
		label = "All-Out Effort"
	}
	return fmt.Sprintf("%.0f (%s)", score, label)
}

// ClassifyRideType names a ride by its climbing density and length.
// distanceM and elevationM are the summary values in meters.
func ClassifyRideType(distanceM, elevationM float64) string {
	if distanceM == 0 {
		return "Stationary"
	}
	climbRatio := elevationM / (distanceM / 1000) // meters of climbing per km
	switch {
	case climbRatio > 20:
		return "Mountainous Climb"
	case climbRatio > 10:
		return "Hilly Ride"
	case distanceM > 80000:
		return "Long Endurance Ride"
	default:
		return "Rolling/Flat Ride"
	}
}

// PowerToWeight returns watts per kilogram, or 0 when either input is missing.
func PowerToWeight(watts, weightKg float64) float64 {
	if watts == 0 || weightKg == 0 {
		return 0
	}
	return watts / weightKg
}

// EstimateVO2Max applies the Uth–Sørensen–Overgaard–Pedersen estimation
// (VO2max ≈ 15.3 × MHR/RHR). A rough guide, not a lab value. Returns 0
// when max heart rate is missing. restingHR defaults to 60 when zero.
func EstimateVO2Max(maxHR, restingHR float64) float64 {
	if maxHR == 0 {
		return 0
	}
	if restingHR == 0 {
		restingHR = 60
	}
	return 15.3 * (maxHR / restingHR)
}

// Insight is one activity enriched with derived metrics, ready to be
// formatted into natural language for the model.
type Insight struct {
	ID            int64
	Name          string
	Date          string // YYYY-MM-DD
	DistanceKm    float64
	ElevationM    int
	MovingTimeMin float64
	PRCount       int
	AthleteCount  int
	AverageWatts  float64
	WattsPerKg    float64 // 0 when weight or watts unknown
	RideType      string
	SufferLabel   string
	HRZone        string
}

// Summarize enriches raw activities with derived metrics. weightKg may be
// 0 when the rider's weight is unknown; power-to-weight is then omitted.
func Summarize(activities []strava.Activity, weightKg float64) []Insight {
	insights := make([]Insight, 0, len(activities))
	for _, act := range activities {
		date, _, _ := strings.Cut(act.StartDateLocal, "T")
		insights = append(insights, Insight{
			ID:            act.ID,
			Name:          act.Name,
			Date:          date,
			DistanceKm:    act.Distance / 1000,
			ElevationM:    int(act.TotalElevationGain),
			MovingTimeMin: float64(act.MovingTime) / 60,
			PRCount:       act.PRCount,
			AthleteCount:  act.AthleteCount,
			AverageWatts:  act.AverageWatts,
			WattsPerKg:    PowerToWeight(act.AverageWatts, weightKg),
			RideType:      ClassifyRideType(act.Distance, act.TotalElevationGain),
			SufferLabel:   SufferScoreLabel(act.SufferScore),
			HRZone:        HRZone(act.AverageHeartrate, act.MaxHeartrate),
		})
	}
	return insights
}

// Digest formats a window of insights as the textual summary handed back
// to the model. The model consumes only natural language, so every number
// is pre-formatted into sentences here.
func Digest(insights []Insight) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d activities in the last 14 days:\n", len(insights))
	for _, in := range insights {
		fmt.Fprintf(&b, "- ID: %d | %s (%s): %.1fkm, %dm elev, %s. ",
			in.ID, in.Name, in.Date, in.DistanceKm, in.ElevationM, in.RideType)
		if in.WattsPerKg > 0 {
			fmt.Fprintf(&b, "Power: %.2f W/kg. ", in.WattsPerKg)
		}
		fmt.Fprintf(&b, "Intensity: %s.\n", in.SufferLabel)
	}
	return b.String()
}

// Progression compares the current week's volume against the weekly
// average of roughly the past month and returns a trend sentence.
func Progression(currentWeek, pastMonth []Insight) string {
	if len(pastMonth) == 0 {
		return "Not enough historical data to calculate progression."
	}

	var currentDist float64
	for _, in := range currentWeek {
		currentDist += in.DistanceKm
	}

	var pastDist float64
	for _, in := range pastMonth {
		pastDist += in.DistanceKm
	}

	// Normalize the trailing window to a weekly figure (~4 weeks),
	// flooring at 1 km to avoid dividing by zero.
	avgPastWeekly := pastDist / 4
	if avgPastWeekly == 0 {
		avgPastWeekly = 1
	}

	diffPercent := (currentDist - avgPastWeekly) / avgPastWeekly * 100

	trend := "improving"
	if diffPercent <= 0 {
		trend = "decreasing"
	}

	pct := int(diffPercent)
	if pct < 0 {
		pct = -pct
	}
	return fmt.Sprintf("Your weekly volume is %d%% %s compared to your 4-week average.", pct, trend)
}

// AnalyzeStreams turns per-activity time-series channels into a
// human-readable narrative: heart rate distribution, pacing, and climb.
// Streams are keyed by type (heartrate, velocity_smooth, altitude, ...)
// at low resolution, roughly one sample per 10 seconds.
func AnalyzeStreams(streams map[string][]float64, activityName string) string {
	if len(streams) == 0 {
		return fmt.Sprintf("No detailed stream data available for %s to perform analysis.", activityName)
	}

	var lines []string

	if hr := streams["heartrate"]; len(hr) > 0 {
		maxHR, minHR, sum := hr[0], hr[0], 0.0
		for _, v := range hr {
			if v > maxHR {
				maxHR = v
			}
			if v < minHR {
				minHR = v
			}
			sum += v
		}
		avgHR := sum / float64(len(hr))

		lines = append(lines,
			fmt.Sprintf("Heart Rate Analysis for '%s':", activityName),
			fmt.Sprintf("  - Max HR: %.0f bpm", maxHR),
			fmt.Sprintf("  - Min HR: %.0f bpm", minHR),
			fmt.Sprintf("  - Avg HR: %.1f bpm", avgHR),
		)

		// Sustained high effort: samples at or above 85% of observed max,
		// each sample covering ~10s at low resolution.
		threshold := maxHR * 0.85
		var secondsHigh float64
		for _, v := range hr {
			if v >= threshold {
				secondsHigh += 10
			}
		}
		if secondsHigh > 0 {
			lines = append(lines, fmt.Sprintf(
				"  - Spent approximately %.1f minutes at high intensity (over %.0f bpm).",
				secondsHigh/60, threshold))
		}

		if vo2 := EstimateVO2Max(maxHR, 0); vo2 > 0 {
			lines = append(lines, fmt.Sprintf(
				"  - Estimated VO2max from peak HR: %.1f ml/kg/min (rough estimate).", vo2))
		}
	}

	if vel := streams["velocity_smooth"]; len(vel) > 0 {
		maxSpeed, sum := 0.0, 0.0
		for _, v := range vel {
			kmh := v * 3.6 // m/s to km/h
			if kmh > maxSpeed {
				maxSpeed = kmh
			}
			sum += kmh
		}
		avgSpeed := sum / float64(len(vel))

		lines = append(lines,
			fmt.Sprintf("Speed Analysis for '%s':", activityName),
			fmt.Sprintf("  - Max Speed: %.1f km/h", maxSpeed),
			fmt.Sprintf("  - Avg Speed: %.1f km/h", avgSpeed),
		)
	}

	if alt := streams["altitude"]; len(alt) > 1 {
		var totalClimb float64
		for i := 1; i < len(alt); i++ {
			if alt[i] > alt[i-1] {
				totalClimb += alt[i] - alt[i-1]
			}
		}
		lines = append(lines,
			fmt.Sprintf("Altitude Analysis for '%s':", activityName),
			fmt.Sprintf("  - Estimated total climb (from streams): %d meters (may differ from the summary figure due to smoothing).", int(totalClimb)),
		)
	}

	if len(lines) == 0 {
		return fmt.Sprintf("No specific analysis could be performed for %s with the available stream data.", activityName)
	}

	return strings.Join(lines, "\n")
}
