package models

import "time"

// ErrorResponse is the JSON body returned for any failed API request.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse reports liveness/readiness of the service and its
// external dependencies (Redis and the worker pool).
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// JobEnqueueRequest is the POST /v1/jobs body: a URL plus the classifier
// and router hints the spec allows a caller to attach up front.
type JobEnqueueRequest struct {
	URL      string            `json:"url" validate:"required,url"`
	RenderJS bool              `json:"render_js,omitempty"`
	ForceJS  bool              `json:"force_js,omitempty"`
	Timeout  float64           `json:"timeout,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Engine   string            `json:"engine,omitempty" validate:"omitempty,oneof=firecrawl"`
}

// JobEnqueueResponse reports whether the enqueue call actually added a new
// job, per the Queue's dedup contract.
type JobEnqueueResponse struct {
	Enqueued  bool   `json:"enqueued"`
	URL       string `json:"url"`
	RequestID string `json:"request_id"`
}

// MissionRequest is the POST /v1/missions body: a natural-language goal
// handed to the Orchestrator's Planner.
type MissionRequest struct {
	Goal string `json:"goal" validate:"required,min=3"`
}

// MissionAcceptedResponse is returned immediately on mission submission;
// the mission itself runs in the background.
type MissionAcceptedResponse struct {
	ProcessID string `json:"process_id"`
	Status    string `json:"status"`
}

// MissionStatusResponse reports the outcome of a submitted mission.
type MissionStatusResponse struct {
	ProcessID   string          `json:"process_id"`
	Status      string          `json:"status"`
	Summary     *MissionSummary `json:"summary,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
