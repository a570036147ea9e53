package tracking

// GeoFix is one raw position reading from a positioning source. Altitude is
// a pointer because the sensor may not report one.
type GeoFix struct {
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Altitude    *float64 `json:"altitude"`
	AccuracyM   float64  `json:"accuracy"`
	SpeedMps    float64  `json:"speed"`
	TimestampMs int64    `json:"timestamp"`
}

// TrackPoint is one accepted position on a session's path.
type TrackPoint struct {
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Altitude    *float64 `json:"altitude"`
	TimestampMs int64    `json:"timestamp"`
	PaceZoneID  string   `json:"paceZoneId,omitempty"`
}

type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseActive Phase = "active"
	PhasePaused Phase = "paused"
)

// Snapshot is a read-only copy of the live session state, emitted after
// every accepted mutation.
type Snapshot struct {
	SessionID        string       `json:"session_id"`
	Type             string       `json:"type"`
	Phase            Phase        `json:"phase"`
	DistanceKm       float64      `json:"distance_km"`
	ElevationGainM   float64      `json:"elevation_gain_m"`
	ElapsedSeconds   int          `json:"elapsed_seconds"`
	PaceSecondsPerKm float64      `json:"pace_s_per_km"`
	Path             []TrackPoint `json:"path"`
	Location         *TrackPoint  `json:"location,omitempty"`
	Searching        bool         `json:"gps_searching"`
	AccuracyM        *float64     `json:"accuracy_m,omitempty"`
}

// GPSQuality describes the current fix quality for the searching indicator.
type GPSQuality struct {
	Searching bool     `json:"searching"`
	AccuracyM *float64 `json:"accuracy_m"`
}

// SessionRecord is the immutable summary persisted when a session finishes.
// The JSON field names are the storage and backup format.
type SessionRecord struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	StartTime int64        `json:"startTime"`
	Duration  int          `json:"duration"`
	Distance  float64      `json:"distance"`
	Path      []TrackPoint `json:"path"`
	Calories  int          `json:"calories"`
	AvgPace   string       `json:"avgPace"`
}

// EventSink receives engine notifications. Implementations must not call
// back into the engine.
type EventSink interface {
	StateChanged(Snapshot)
	GPSQualityChanged(GPSQuality)
	PermissionError(reason string)
}
