// README: Trip aggregate, its one-to-one summary and the read-path view.
package trip

import (
	"errors"
	"time"

	"fitapp/internal/modules/gps"
	"fitapp/internal/types"
)

var (
	ErrNotFound          = errors.New("trip not found")
	ErrAlreadyExists     = errors.New("trip already exists")
	ErrAlreadyHasSummary = errors.New("trip already has a summary")
	ErrForbidden         = errors.New("trip belongs to another user")
)

type Trip struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Summary   *Summary  `json:"summary,omitempty"`
}

// Summary holds the derived figures of a trip. Nil fields were not derivable
// from the samples available at computation time.
type Summary struct {
	TripID         int64          `json:"trip_id"`
	SessionID      string         `json:"session_id"`
	StartTime      *time.Time     `json:"start_time"`
	EndTime        *time.Time     `json:"end_time"`
	Duration       *float64       `json:"duration"`
	Distance       *float64       `json:"distance"`
	CaloriesBurned *float64       `json:"calories_burned"`
	Activity       types.Activity `json:"activity"`
}

// Finalized reports whether the session was explicitly terminated.
func (s Summary) Finalized() bool {
	return s.EndTime != nil
}

// Caller is the identity resolved by the auth collaborator.
type Caller struct {
	UserID int64
	Admin  bool
}

func (c Caller) CanAccess(ownerID int64) bool {
	return c.Admin || c.UserID == ownerID
}

// View is what the summary fetch returns.
type View struct {
	SessionID string       `json:"session_id"`
	Summary   Summary      `json:"summary"`
	Points    []gps.Sample `json:"points"`
}
