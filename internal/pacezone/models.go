package pacezone

import "time"

// Zone is a user-defined pace band used to color the run path on the map.
// Paces are seconds per kilometer; Min is the faster bound.
type Zone struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MinPaceS  float64   `json:"min_pace_s"`
	MaxPaceS  float64   `json:"max_pace_s"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}
