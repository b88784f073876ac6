// README: Activity value object shared by GPS samples and trip summaries.
package types

import (
	"errors"
	"strings"
)

// Activity is the kind of exercise a trip records. Samples carry it
// individually but only the chronologically last sample's value counts for
// the trip; values are never averaged or voted across samples.
type Activity string

const (
	ActivityRunning  Activity = "RUNNING"
	ActivityCycling  Activity = "CYCLING"
	ActivityWalking  Activity = "WALKING"
	ActivityClimbing Activity = "CLIMBING"
	ActivityDiving   Activity = "DIVING"
	ActivitySwimming Activity = "SWIMMING"
	ActivityOther    Activity = "OTHER"
)

// DefaultActivity is used when a trip's last sample does not name one.
const DefaultActivity = ActivityRunning

var ErrUnknownActivity = errors.New("unknown activity")

// Activities lists every activity in code order.
var Activities = []Activity{
	ActivityRunning,
	ActivityCycling,
	ActivityWalking,
	ActivityClimbing,
	ActivityDiving,
	ActivitySwimming,
	ActivityOther,
}

var caloriesRatio = map[Activity]float64{
	ActivityRunning:  1.2,
	ActivityCycling:  1.0,
	ActivityWalking:  0.8,
	ActivityClimbing: 1.5,
	ActivityDiving:   0.9,
	ActivitySwimming: 1.1,
	ActivityOther:    1.0,
}

// ParseActivity accepts names case-insensitively. An empty string yields an
// empty Activity, meaning "unspecified".
func ParseActivity(s string) (Activity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	a := Activity(strings.ToUpper(s))
	if !a.Valid() {
		return "", ErrUnknownActivity
	}
	return a, nil
}

func (a Activity) Valid() bool {
	_, ok := caloriesRatio[a]
	return ok
}

// OrDefault returns a, or DefaultActivity when a is unspecified or unknown.
func (a Activity) OrDefault() Activity {
	if a.Valid() {
		return a
	}
	return DefaultActivity
}

// Code is the stable numeric identifier exposed to clients (1-based).
func (a Activity) Code() int {
	for i, v := range Activities {
		if v == a {
			return i + 1
		}
	}
	return 0
}

// CaloriesRatio is the per-activity multiplier of the calorie estimate.
func (a Activity) CaloriesRatio() float64 {
	return caloriesRatio[a.OrDefault()]
}
