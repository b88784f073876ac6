// README: GPS sample model and ingestion result.
package gps

import (
	"time"

	"fitapp/internal/types"
)

// Sample is one GPS reading. Samples are immutable facts once written.
type Sample struct {
	SessionID    string         `json:"session_id"`
	UserID       int64          `json:"user_id"`
	Timestamp    time.Time      `json:"timestamp"`
	Latitude     float64        `json:"latitude"`
	Longitude    float64        `json:"longitude"`
	Acceleration float64        `json:"acceleration"`
	LastEntry    bool           `json:"last_entry"`
	Activity     types.Activity `json:"activity,omitempty"`
}

// IngestResult describes a batch whose write succeeded. Failed holds the
// sessions whose reconciliation did not complete; they stay unfinalized until
// the next batch or read touches them.
type IngestResult struct {
	Stored   int
	Sessions []string
	Failed   map[string]error
}

type sessionTouch struct {
	id        string
	completed bool
}
