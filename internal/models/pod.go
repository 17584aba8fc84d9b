package models

import "time"

// Pod represents a study group.
type Pod struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Subject      string    `db:"subject" json:"subject"`
	Description  string    `db:"description" json:"description"`
	Pace         string    `db:"pace" json:"pace"`
	Goals        []string  `db:"-" json:"goals"`
	Availability []string  `db:"-" json:"availability"`
	MaxMembers   int       `db:"max_members" json:"max_members"`
	MemberCount  int       `db:"member_count" json:"member_count"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PodSummary is the API view of a pod for one of its members.
type PodSummary struct {
	Pod
	OnlineCount int `json:"online_count"`
}
