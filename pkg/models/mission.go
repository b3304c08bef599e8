package models

import "time"

// Plan is the opaque planning record produced by a Planner given a
// natural-language mission goal.
type Plan struct {
	Interpretation    string   `json:"interpretation"`
	SearchQueries     []string `json:"search_queries"`
	TargetDescription string   `json:"target_description"`
	ForceJS           bool     `json:"force_js"`
}

// DiscoveredURLs is the archive record written by the Orchestrator when a
// mission's discovered URL set is persisted to disk.
type DiscoveredURLs struct {
	Mission       string    `json:"mission"`
	SearchQueries []string  `json:"search_queries"`
	DiscoveredAt  time.Time `json:"discovered_at"`
	TotalURLs     int       `json:"total_urls"`
	URLs          []string  `json:"urls"`
}

// MissionSummary reports the outcome counts of a completed mission run.
type MissionSummary struct {
	Mission    string `json:"mission"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
}
