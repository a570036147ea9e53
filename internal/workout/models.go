package workout

import "time"

// Preset is a saved workout configuration selectable from the dashboard.
type Preset struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	TargetPaceS float64   `json:"target_pace_s,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Exercise is one bodyweight movement inside a workout session.
type Exercise struct {
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	RestSeconds int    `json:"rest_seconds"`
}

type RunnerPhase string

const (
	PhaseWork   RunnerPhase = "work"
	PhaseRest   RunnerPhase = "rest"
	PhasePaused RunnerPhase = "paused"
	PhaseDone   RunnerPhase = "done"
)

// RunnerSnapshot is a read-only copy of a live workout session.
type RunnerSnapshot struct {
	SessionID      string      `json:"session_id"`
	Type           string      `json:"type"`
	Phase          RunnerPhase `json:"phase"`
	ExerciseIndex  int         `json:"exercise_index"`
	SetNumber      int         `json:"set_number"`
	RestRemaining  int         `json:"rest_remaining"`
	ElapsedSeconds int         `json:"elapsed_seconds"`
	CompletedSets  int         `json:"completed_sets"`
	TotalSets      int         `json:"total_sets"`
}
