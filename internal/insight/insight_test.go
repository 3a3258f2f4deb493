package insight

import (
	"strings"
	"testing"

	"github.com/Jayden1717/fitness-companion/internal/strava"
)

func TestHRZone(t *testing.T) {
	tests := []struct {
		name   string
		avg    float64
		max    float64
		want   string
	}{
		{"missing avg", 0, 190, "N/A"},
		{"missing max", 120, 0, "N/A"},
		{"recovery", 100, 190, "Zone 1 (Recovery)"},
		{"endurance", 120, 190, "Zone 2 (Endurance)"},
		{"tempo", 140, 190, "Zone 3 (Tempo)"},
		{"threshold", 165, 190, "Zone 4 (Threshold)"},
		{"anaerobic", 180, 190, "Zone 5 (Anaerobic)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HRZone(tt.avg, tt.max); got != tt.want {
				t.Errorf("HRZone(%v, %v) = %q, want %q", tt.avg, tt.max, got, tt.want)
			}
		})
	}
}

func TestSufferScoreLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "N/A"},
		{10, "10 (Light Effort)"},
		{60, "60 (Moderate Effort)"},
		{100, "100 (Tough Workout)"},
		{150, "150 (All-Out Effort)"},
	}

	for _, tt := range tests {
		if got := SufferScoreLabel(tt.score); got != tt.want {
			t.Errorf("SufferScoreLabel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestClassifyRideType(t *testing.T) {
	tests := []struct {
		name       string
		distanceM  float64
		elevationM float64
		want       string
	}{
		{"stationary", 0, 0, "Stationary"},
		{"mountainous", 30000, 700, "Mountainous Climb"},
		{"hilly", 30000, 400, "Hilly Ride"},
		{"long endurance", 100000, 200, "Long Endurance Ride"},
		{"flat", 30000, 100, "Rolling/Flat Ride"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRideType(tt.distanceM, tt.elevationM); got != tt.want {
				t.Errorf("ClassifyRideType(%v, %v) = %q, want %q", tt.distanceM, tt.elevationM, got, tt.want)
			}
		})
	}
}

func TestPowerToWeight(t *testing.T) {
	if got := PowerToWeight(210, 70); got != 3 {
		t.Errorf("PowerToWeight(210, 70) = %v, want 3", got)
	}
	if got := PowerToWeight(210, 0); got != 0 {
		t.Errorf("PowerToWeight with no weight = %v, want 0", got)
	}
	if got := PowerToWeight(0, 70); got != 0 {
		t.Errorf("PowerToWeight with no watts = %v, want 0", got)
	}
}

func TestEstimateVO2Max(t *testing.T) {
	// 15.3 * 190/60 = 48.45
	got := EstimateVO2Max(190, 60)
	if got < 48.4 || got > 48.5 {
		t.Errorf("EstimateVO2Max(190, 60) = %v, want ~48.45", got)
	}
	if EstimateVO2Max(0, 60) != 0 {
		t.Error("expected 0 when max HR missing")
	}
	// Resting HR defaults to 60.
	if EstimateVO2Max(190, 0) != EstimateVO2Max(190, 60) {
		t.Error("expected default resting HR of 60")
	}
}

func testActivity() strava.Activity {
	return strava.Activity{
		ID:                 42,
		Name:               "Morning Ride",
		StartDateLocal:     "2025-06-01T07:30:00Z",
		Distance:           30000,
		TotalElevationGain: 200,
		MovingTime:         3600,
		AverageWatts:       180,
		AverageHeartrate:   140,
		MaxHeartrate:       185,
		SufferScore:        60,
	}
}

func TestSummarize(t *testing.T) {
	insights := Summarize([]strava.Activity{testActivity()}, 72)
	if len(insights) != 1 {
		t.Fatalf("got %d insights, want 1", len(insights))
	}

	in := insights[0]
	if in.ID != 42 {
		t.Errorf("ID = %d, want 42", in.ID)
	}
	if in.Date != "2025-06-01" {
		t.Errorf("Date = %q, want 2025-06-01", in.Date)
	}
	if in.DistanceKm != 30 {
		t.Errorf("DistanceKm = %v, want 30", in.DistanceKm)
	}
	if in.ElevationM != 200 {
		t.Errorf("ElevationM = %d, want 200", in.ElevationM)
	}
	if in.WattsPerKg == 0 {
		t.Error("expected W/kg to be set with weight available")
	}
	if in.SufferLabel != "60 (Moderate Effort)" {
		t.Errorf("SufferLabel = %q", in.SufferLabel)
	}
	if in.RideType != "Rolling/Flat Ride" {
		t.Errorf("RideType = %q", in.RideType)
	}
}

func TestSummarizeWithoutWeight(t *testing.T) {
	in := Summarize([]strava.Activity{testActivity()}, 0)[0]
	if in.WattsPerKg != 0 {
		t.Errorf("WattsPerKg = %v, want 0 when weight unknown", in.WattsPerKg)
	}
}

func TestDigest(t *testing.T) {
	digest := Digest(Summarize([]strava.Activity{testActivity()}, 72))

	for _, want := range []string{
		"Found 1 activities in the last 14 days:",
		"ID: 42",
		"Morning Ride",
		"30.0km",
		"200m elev",
		"Moderate Effort",
		"W/kg",
	} {
		if !strings.Contains(digest, want) {
			t.Errorf("digest missing %q:\n%s", want, digest)
		}
	}
}

func TestDigestOmitsPowerWithoutWeight(t *testing.T) {
	digest := Digest(Summarize([]strava.Activity{testActivity()}, 0))
	if strings.Contains(digest, "W/kg") {
		t.Errorf("digest should omit power without weight:\n%s", digest)
	}
}

func TestProgression(t *testing.T) {
	week := func(km float64) Insight { return Insight{DistanceKm: km} }

	tests := []struct {
		name    string
		current []Insight
		past    []Insight
		want    string
	}{
		{
			name: "no history",
			want: "Not enough historical data to calculate progression.",
		},
		{
			// Current 60km vs 160km/4 = 40km weekly average → +50%
			name:    "improving",
			current: []Insight{week(60)},
			past:    []Insight{week(80), week(80)},
			want:    "Your weekly volume is 50% improving compared to your 4-week average.",
		},
		{
			// Current 20km vs 40km weekly average → -50%
			name:    "decreasing",
			current: []Insight{week(20)},
			past:    []Insight{week(80), week(80)},
			want:    "Your weekly volume is 50% decreasing compared to your 4-week average.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Progression(tt.current, tt.past); got != tt.want {
				t.Errorf("Progression() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnalyzeStreams(t *testing.T) {
	streams := map[string][]float64{
		"heartrate":       {120, 150, 180, 175, 130},
		"velocity_smooth": {8, 10, 12}, // m/s
		"altitude":        {100, 110, 105, 120},
	}

	out := AnalyzeStreams(streams, "Activity 42")

	for _, want := range []string{
		"Heart Rate Analysis for 'Activity 42':",
		"Max HR: 180 bpm",
		"Min HR: 120 bpm",
		"Speed Analysis",
		"Max Speed: 43.2 km/h",
		"Altitude Analysis",
		"25 meters", // climbs: 10 + 15
	} {
		if !strings.Contains(out, want) {
			t.Errorf("analysis missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeStreamsEmpty(t *testing.T) {
	out := AnalyzeStreams(nil, "Activity 7")
	if !strings.Contains(out, "No detailed stream data available") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestAnalyzeStreamsHighIntensity(t *testing.T) {
	// 3 of 4 samples at/above 85% of max (200): threshold 170.
	streams := map[string][]float64{
		"heartrate": {200, 180, 175, 100},
	}
	out := AnalyzeStreams(streams, "Intervals")
	if !strings.Contains(out, "0.5 minutes at high intensity") {
		t.Errorf("expected 30s (0.5 min) of high intensity:\n%s", out)
	}
}
