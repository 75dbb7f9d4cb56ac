package domain

import "time"

// ============================================================
// Engagement tracking
// ============================================================

// Interaction types recorded on content views.
const (
	InteractionView          = "view"
	InteractionPageView      = "page_view"
	InteractionClick         = "click"
	InteractionCandidateView = "candidate_view"
)

// ContentView is the single accumulated row for a (user_id, content_id) pair.
type ContentView struct {
	ID              int64     `json:"id,omitempty"`
	UserID          string    `json:"user_id"`
	ContentID       string    `json:"content_id"`
	ContentLabel    string    `json:"content_label,omitempty"`
	InteractionType string    `json:"interaction_type"`
	ViewDuration    int64     `json:"view_duration"` // seconds, accumulated
	ScrollDepth     int       `json:"scroll_depth"`  // percent, max observed
	ActivityCount   int       `json:"activity_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ViewDelta is what one tracking event adds to a ContentView row.
// Durations and activity are added, scroll depth is max-merged.
type ViewDelta struct {
	UserID          string
	ContentID       string
	ContentLabel    string
	InteractionType string
	Duration        int64
	ScrollDepth     int
	Activity        int
}

// Observation is what the browser reports when a viewing session ends.
type Observation struct {
	ScrollDepth  int `json:"scrollDepth"`
	Interactions int `json:"interactions"`
}

// SessionKey identifies an open viewing session.
type SessionKey struct {
	UserID    string
	ContentID string
}

func (k SessionKey) String() string {
	return k.UserID + "|" + k.ContentID
}

// TrackingState is the per-(user, content) lifecycle.
type TrackingState string

const (
	TrackingNoRecord TrackingState = "no_record"
	TrackingOpen     TrackingState = "tracking"
	TrackingIdle     TrackingState = "idle"
)

// TrackingResult is returned by the tracking endpoints. Tracking is best
// effort, so Persisted=false is a normal outcome.
type TrackingResult struct {
	State     TrackingState `json:"state"`
	Persisted bool          `json:"persisted"`
	Elapsed   int64         `json:"elapsedSeconds,omitempty"`
}

// TrackingRequest is the body of the /v1/tracking/* endpoints. UserID is
// only used when the request carries no bearer token.
type TrackingRequest struct {
	UserID          string `json:"userId,omitempty"`
	ContentID       string `json:"contentId,omitempty"`
	ContentLabel    string `json:"contentLabel,omitempty"`
	InteractionType string `json:"interactionType,omitempty"`
	Path            string `json:"path,omitempty"` // page views
	ScrollDepth     int    `json:"scrollDepth,omitempty"`
	Interactions    int    `json:"interactions,omitempty"`
}
