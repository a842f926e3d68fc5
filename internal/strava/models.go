package strava

import "time"

// ClubMember is an entry from the club members endpoint. The endpoint omits
// the numeric athlete id for most clubs, so ID is frequently zero and callers
// fall back to a name-derived identity.
type ClubMember struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Sex       string `json:"sex"`
	Profile   string `json:"profile"`
}

// ActivityAthlete is the owner stub embedded in an activity record.
type ActivityAthlete struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// Activity is an activity summary as returned by both the club feed and the
// per-athlete activities endpoint.
type Activity struct {
	ID                 int64           `json:"id"`
	Athlete            ActivityAthlete `json:"athlete"`
	Name               string          `json:"name"`
	Type               string          `json:"type"`
	StartDate          time.Time       `json:"start_date"`
	Distance           float64         `json:"distance"`             // meters
	MovingTime         int             `json:"moving_time"`          // seconds
	ElapsedTime        int             `json:"elapsed_time"`         // seconds
	TotalElevationGain float64         `json:"total_elevation_gain"` // meters
	AverageSpeed       float64         `json:"average_speed"`        // m/s
}
