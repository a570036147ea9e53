package tracking

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/opl224/fitgo/internal/shared/display"
	"github.com/opl224/fitgo/internal/shared/geo"
)

const (
	// Below this raw speed the runner is treated as stationary and no live
	// pace is shown.
	minPaceSpeedMps = 0.5
	// No fix for this long while active raises the searching indicator and
	// zeroes the live pace.
	staleFixAfterMs = 8000

	caloriesPerKm = 60
)

var (
	ErrSessionStarted = errors.New("session already started")
	ErrSessionDone    = errors.New("session already ended")
	ErrNotActive      = errors.New("session is not active")
	ErrNotPaused      = errors.New("session is not paused")
)

// Engine owns the mutable state of one tracking session. Fix callbacks,
// timer ticks and lifecycle commands are serialized through one mutex so
// each handler runs to completion before the next, whatever order the
// sources deliver them in.
type Engine struct {
	// immutable after construction
	id           string
	activityType string
	sink         EventSink
	now          func() time.Time

	mu             sync.Mutex
	phase          Phase
	done           bool
	startMs        int64
	distanceKm     float64
	elevationGainM float64
	elapsedSeconds int
	path           []TrackPoint
	lastAccepted   *TrackPoint
	paceSecPerKm   float64
	lastFixMs      int64
	location       *TrackPoint
	accuracyM      *float64
	searching      bool

	ticker     *time.Ticker
	tickerDone chan struct{}
}

type EngineOption func(*Engine)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func NewEngine(id, activityType string, sink EventSink, opts ...EngineOption) *Engine {
	e := &Engine{
		id:           id,
		activityType: activityType,
		sink:         sink,
		now:          time.Now,
		phase:        PhaseIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) ID() string { return e.id }

// Start transitions Idle -> Active and begins the 1 Hz timer. The session
// state is fresh by construction; an engine is never reused.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return ErrSessionDone
	}
	if e.phase != PhaseIdle {
		e.mu.Unlock()
		return ErrSessionStarted
	}
	nowMs := e.now().UnixMilli()
	e.phase = PhaseActive
	e.startMs = nowMs
	e.lastFixMs = nowMs

	e.ticker = time.NewTicker(time.Second)
	e.tickerDone = make(chan struct{})
	go func(ticker *time.Ticker, stop chan struct{}) {
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.tick()
			}
		}
	}(e.ticker, e.tickerDone)

	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emitState(snap)
	return nil
}

func (e *Engine) Pause() error {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return ErrSessionDone
	}
	if e.phase != PhaseActive {
		e.mu.Unlock()
		return ErrNotActive
	}
	e.phase = PhasePaused
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emitState(snap)
	return nil
}

func (e *Engine) Resume() error {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return ErrSessionDone
	}
	if e.phase != PhasePaused {
		e.mu.Unlock()
		return ErrNotPaused
	}
	e.phase = PhaseActive
	// A resume should not immediately trip the staleness check after a
	// long pause with the phone in a pocket.
	e.lastFixMs = e.now().UnixMilli()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emitState(snap)
	return nil
}

// Finish materializes the immutable session record and retires the engine.
// Only allowed from Paused so a final in-motion fix cannot race the record.
func (e *Engine) Finish() (SessionRecord, error) {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return SessionRecord{}, ErrSessionDone
	}
	if e.phase != PhasePaused {
		e.mu.Unlock()
		return SessionRecord{}, ErrNotPaused
	}

	avgPaceSec := 0.0
	if e.distanceKm > 0 {
		avgPaceSec = float64(e.elapsedSeconds) / e.distanceKm
	}
	record := SessionRecord{
		ID:        e.id,
		Type:      e.activityType,
		StartTime: e.startMs,
		Duration:  e.elapsedSeconds,
		Distance:  e.distanceKm,
		Path:      append([]TrackPoint(nil), e.path...),
		Calories:  int(math.Floor(e.distanceKm * caloriesPerKm)),
		AvgPace:   display.Pace(avgPaceSec, display.Metric),
	}

	e.stopLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emitState(snap)
	return record, nil
}

// Cancel discards the session from any non-terminal state.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return ErrSessionDone
	}
	e.stopLocked()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emitState(snap)
	return nil
}

// stopLocked stops the timer synchronously and clears the tracking state so
// no late callback can mutate a materialized session.
func (e *Engine) stopLocked() {
	if e.ticker != nil {
		e.ticker.Stop()
		close(e.tickerDone)
		e.ticker = nil
	}
	e.done = true
	e.phase = PhaseIdle
	e.distanceKm = 0
	e.elevationGainM = 0
	e.elapsedSeconds = 0
	e.path = nil
	e.lastAccepted = nil
	e.paceSecPerKm = 0
}

// HandleFix folds one raw fix into the session. Rejected fixes still update
// the live pace and location so the display follows the runner even while
// the path does not grow.
func (e *Engine) HandleFix(fix GeoFix) {
	e.mu.Lock()
	if e.done {
		e.mu.Unlock()
		return
	}

	nowMs := e.now().UnixMilli()
	e.lastFixMs = nowMs
	wasSearching := e.searching
	e.searching = false
	acc := fix.AccuracyM
	e.accuracyM = &acc

	if fix.SpeedMps > minPaceSpeedMps {
		e.paceSecPerKm = 1000 / fix.SpeedMps
	} else {
		e.paceSecPerKm = 0
	}

	ts := fix.TimestampMs
	if ts == 0 {
		ts = nowMs
	}
	point := TrackPoint{
		Latitude:    fix.Latitude,
		Longitude:   fix.Longitude,
		Altitude:    fix.Altitude,
		TimestampMs: ts,
	}
	e.location = &point

	if e.phase == PhaseActive && ShouldAccept(fix, e.lastAccepted) {
		if last := e.lastAccepted; last != nil {
			d := geo.HaversineKm(last.Latitude, last.Longitude, point.Latitude, point.Longitude)
			if point.Altitude != nil && last.Altitude != nil {
				if diff := *point.Altitude - *last.Altitude; diff > 0 {
					e.elevationGainM += diff
				}
			}
			e.distanceKm += d
		}
		e.path = append(e.path, point)
		e.lastAccepted = &point
	}

	snap := e.snapshotLocked()
	e.mu.Unlock()
	e.emitState(snap)
	if wasSearching {
		e.emitQuality(GPSQuality{Searching: false, AccuracyM: &acc})
	}
}

// tick is the 1 Hz driver for elapsed time and the staleness check.
func (e *Engine) tick() {
	e.mu.Lock()
	if e.done || e.phase != PhaseActive {
		e.mu.Unlock()
		return
	}
	e.elapsedSeconds++

	raisedSearching := false
	if e.now().UnixMilli()-e.lastFixMs > staleFixAfterMs {
		e.paceSecPerKm = 0
		if !e.searching {
			e.searching = true
			raisedSearching = true
		}
	}

	snap := e.snapshotLocked()
	acc := e.accuracyM
	e.mu.Unlock()
	e.emitState(snap)
	if raisedSearching {
		e.emitQuality(GPSQuality{Searching: true, AccuracyM: acc})
	}
}

// MarkSearching raises the searching indicator without a fix, used when the
// positioning source reports a non-fatal error.
func (e *Engine) MarkSearching() {
	e.mu.Lock()
	if e.done || e.searching {
		e.mu.Unlock()
		return
	}
	e.searching = true
	e.paceSecPerKm = 0
	acc := e.accuracyM
	e.mu.Unlock()
	e.emitQuality(GPSQuality{Searching: true, AccuracyM: acc})
}

// ReportPermissionError surfaces a permission problem as a standing
// condition. The session keeps running; it simply receives no fixes.
func (e *Engine) ReportPermissionError(reason string) {
	if e.sink != nil {
		e.sink.PermissionError(reason)
	}
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	snap := e.snapshotLocked()
	e.mu.Unlock()
	return snap
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:        e.id,
		Type:             e.activityType,
		Phase:            e.phase,
		DistanceKm:       e.distanceKm,
		ElevationGainM:   e.elevationGainM,
		ElapsedSeconds:   e.elapsedSeconds,
		PaceSecondsPerKm: e.paceSecPerKm,
		Path:             append([]TrackPoint(nil), e.path...),
		Location:         e.location,
		Searching:        e.searching,
		AccuracyM:        e.accuracyM,
	}
}

func (e *Engine) emitState(snap Snapshot) {
	if e.sink != nil {
		e.sink.StateChanged(snap)
	}
}

func (e *Engine) emitQuality(q GPSQuality) {
	if e.sink != nil {
		e.sink.GPSQualityChanged(q)
	}
}
