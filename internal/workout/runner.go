package workout

import (
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/opl224/fitgo/internal/tracking"
)

const caloriesPerSecond = 0.15

var (
	ErrNoExercises = errors.New("workout has no exercises")
	ErrRunnerDone  = errors.New("workout already finished")
	ErrNotWorking  = errors.New("no active set to complete")
	ErrNotPaused   = errors.New("workout is not paused")
)

// Runner drives a single workout session: a work phase per set, a rest
// countdown between sets, and a running elapsed clock. All methods are
// safe for concurrent use.
type Runner struct {
	mu sync.Mutex

	sessionID string
	typ       string
	exercises []Exercise

	phase       RunnerPhase
	resumeTo    RunnerPhase
	exerciseIdx int
	setNumber   int
	restLeft    int
	elapsed     int
	completed   int
	total       int
	startMs     int64
	done        bool

	ticker     *time.Ticker
	tickerDone chan struct{}

	now func() time.Time
}

func NewRunner(sessionID, typ string, exercises []Exercise) (*Runner, error) {
	if len(exercises) == 0 {
		return nil, ErrNoExercises
	}
	total := 0
	for _, ex := range exercises {
		total += ex.Sets
	}
	if total == 0 {
		return nil, ErrNoExercises
	}
	return &Runner{
		sessionID: sessionID,
		typ:       typ,
		exercises: exercises,
		phase:     PhaseWork,
		setNumber: 1,
		total:     total,
		now:       time.Now,
	}, nil
}

// Start records the session start and begins the 1 Hz clock.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done || r.ticker != nil {
		return
	}
	r.startMs = r.now().UnixMilli()
	r.ticker = time.NewTicker(time.Second)
	r.tickerDone = make(chan struct{})
	go func(t *time.Ticker, done chan struct{}) {
		for {
			select {
			case <-t.C:
				r.tick()
			case <-done:
				return
			}
		}
	}(r.ticker, r.tickerDone)
}

func (r *Runner) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done || r.phase == PhasePaused || r.phase == PhaseDone {
		return
	}
	r.elapsed++
	if r.phase == PhaseRest {
		r.restLeft--
		if r.restLeft <= 0 {
			r.restLeft = 0
			r.advanceLocked()
		}
	}
}

// CompleteSet marks the current set finished and either enters the rest
// countdown or, after the last set, ends the workout.
func (r *Runner) CompleteSet() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return ErrRunnerDone
	}
	if r.phase != PhaseWork {
		return ErrNotWorking
	}
	r.completed++
	if r.completed >= r.total {
		r.phase = PhaseDone
		return nil
	}
	rest := r.exercises[r.exerciseIdx].RestSeconds
	if rest <= 0 {
		r.advanceLocked()
		return nil
	}
	r.phase = PhaseRest
	r.restLeft = rest
	return nil
}

// advanceLocked moves to the next set, crossing into the next exercise
// when the current one is out of sets.
func (r *Runner) advanceLocked() {
	r.phase = PhaseWork
	if r.setNumber < r.exercises[r.exerciseIdx].Sets {
		r.setNumber++
		return
	}
	r.exerciseIdx++
	r.setNumber = 1
}

func (r *Runner) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return ErrRunnerDone
	}
	if r.phase == PhasePaused || r.phase == PhaseDone {
		return nil
	}
	r.resumeTo = r.phase
	r.phase = PhasePaused
	return nil
}

func (r *Runner) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return ErrRunnerDone
	}
	if r.phase != PhasePaused {
		return ErrNotPaused
	}
	r.phase = r.resumeTo
	return nil
}

// Finish stops the clock and returns the session record. Distance carries
// the completion percentage and AvgPace its display form, matching how
// workout entries render in the activity log.
func (r *Runner) Finish() (tracking.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return tracking.SessionRecord{}, ErrRunnerDone
	}
	r.stopLocked()
	percent := math.Round(float64(r.completed) / float64(r.total) * 100)
	return tracking.SessionRecord{
		ID:        r.sessionID,
		Type:      r.typ,
		StartTime: r.startMs,
		Duration:  r.elapsed,
		Distance:  percent,
		Path:      []tracking.TrackPoint{},
		Calories:  int(math.Floor(float64(r.elapsed) * caloriesPerSecond)),
		AvgPace:   formatPercent(percent),
	}, nil
}

// Cancel discards the session without producing a record.
func (r *Runner) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return ErrRunnerDone
	}
	r.stopLocked()
	return nil
}

func (r *Runner) stopLocked() {
	if r.ticker != nil {
		r.ticker.Stop()
		close(r.tickerDone)
		r.ticker = nil
	}
	r.done = true
}

func (r *Runner) Snapshot() RunnerSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RunnerSnapshot{
		SessionID:      r.sessionID,
		Type:           r.typ,
		Phase:          r.phase,
		ExerciseIndex:  r.exerciseIdx,
		SetNumber:      r.setNumber,
		RestRemaining:  r.restLeft,
		ElapsedSeconds: r.elapsed,
		CompletedSets:  r.completed,
		TotalSets:      r.total,
	}
}

func formatPercent(p float64) string {
	return strconv.Itoa(int(p)) + "%"
}
