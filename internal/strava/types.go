// Package strava is the client for the Strava v3 API: OAuth token
// lifecycle, activity listings, and per-activity data streams.
package strava

import "errors"

// Activity is the summary record returned by the athlete activities
// endpoint. Distances and elevation are meters; moving time is seconds.
type Activity struct {
	ID                   int64   `json:"id"`
	Name                 string  `json:"name"`
	StartDateLocal       string  `json:"start_date_local"`
	Distance             float64 `json:"distance"`
	TotalElevationGain   float64 `json:"total_elevation_gain"`
	MovingTime           int     `json:"moving_time"`
	PRCount              int     `json:"pr_count"`
	AthleteCount         int     `json:"athlete_count"`
	AverageWatts         float64 `json:"average_watts"`
	WeightedAverageWatts float64 `json:"weighted_average_watts"`
	AverageHeartrate     float64 `json:"average_heartrate"`
	MaxHeartrate         float64 `json:"max_heartrate"`
	SufferScore          float64 `json:"suffer_score"`
}

// Credentials is the per-user OAuth token triple.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
}

// CredentialStore persists per-user credentials. The SQLite store
// implements it; tests use an in-memory map.
type CredentialStore interface {
	// Credentials returns the stored triple for a user, or nil when the
	// user has never linked a Strava account.
	Credentials(userID string) (*Credentials, error)

	// PutCredentials stores or replaces the triple for a user.
	PutCredentials(userID string, c *Credentials) error
}

// ErrNotAuthenticated indicates the user has no stored credentials.
// Callers surface this as a tool-level failure, not a request failure.
var ErrNotAuthenticated = errors.New("user not authenticated with Strava")
