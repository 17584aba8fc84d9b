package models

// UserProfile holds the study preferences used for pod matching.
type UserProfile struct {
	UserID       string   `db:"user_id" json:"user_id"`
	Subjects     []string `db:"-" json:"subjects"`
	Pace         string   `db:"pace" json:"pace"`
	Availability []string `db:"-" json:"availability"`
	Goals        []string `db:"-" json:"goals"`
}

// Compatibility breaks a match score down by dimension. Each value is in [0,100].
type Compatibility struct {
	Schedule int `json:"schedule"`
	Pace     int `json:"pace"`
	Subject  int `json:"subject"`
	Goal     int `json:"goal"`
}

// PodMatch is the scorer output for one user/pod pair.
type PodMatch struct {
	Score         int           `json:"score"`
	Compatibility Compatibility `json:"compatibility"`
	Reasons       []string      `json:"reasons"`
	// Fallback marks results produced without a usable scoring response.
	Fallback bool `json:"fallback,omitempty"`
}

// PodRecommendation is a candidate pod enriched with its match for the requesting user.
type PodRecommendation struct {
	Pod
	Match PodMatch `json:"match"`
}
