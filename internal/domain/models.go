package domain

import "time"

// ItemState is the render-ready view of one scale item within an assessment.
type ItemState struct {
	ItemID string `json:"itemId"`
	Score  int    `json:"score"`
	Choice int    `json:"choice"`
	Locked bool   `json:"locked"`
}

// Assessment is a snapshot of a live scoring session, pushed to clients after every change.
type Assessment struct {
	ID         string      `json:"id"`
	Items      []ItemState `json:"items"`
	Total      int         `json:"total"`
	Severity   string      `json:"severity"`
	Tier       string      `json:"tier"`
	ComaActive bool        `json:"comaActive"`
	StartedAt  time.Time   `json:"startedAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// Selection models a single option choice coming from a client.
// Either Option (zero-based index) or Code ("0".."4", "UN") must be set.
type Selection struct {
	ItemID string
	Option *int
	Code   string
}

// Record is an archived, finalized assessment.
type Record struct {
	AssessmentID string         `json:"assessmentId"`
	Scores       map[string]int `json:"scores"`
	Total        int            `json:"total"`
	Severity     string         `json:"severity"`
	Tier         string         `json:"tier"`
	ComaActive   bool           `json:"comaActive"`
	StartedAt    time.Time      `json:"startedAt"`
	FinalizedAt  time.Time      `json:"finalizedAt"`
}
