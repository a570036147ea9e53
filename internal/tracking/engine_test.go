package tracking

import (
	"math"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu          sync.Mutex
	states      []Snapshot
	quality     []GPSQuality
	permissions []string
}

func (s *recordingSink) StateChanged(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, snap)
}

func (s *recordingSink) GPSQualityChanged(q GPSQuality) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quality = append(s.quality, q)
}

func (s *recordingSink) PermissionError(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions = append(s.permissions, reason)
}

func (s *recordingSink) lastQuality(t *testing.T) GPSQuality {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.quality) == 0 {
		t.Fatalf("expected a gps quality event")
	}
	return s.quality[len(s.quality)-1]
}

type testClock struct {
	mu sync.Mutex
	ms int64
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.UnixMilli(c.ms)
}

func (c *testClock) advance(ms int64) {
	c.mu.Lock()
	c.ms += ms
	c.mu.Unlock()
}

func newTestEngine(t *testing.T) (*Engine, *recordingSink, *testClock) {
	t.Helper()
	sink := &recordingSink{}
	clock := &testClock{ms: 1_700_000_000_000}
	engine := NewEngine("session-1", "Outdoor Run", sink, WithClock(clock.now))
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = engine.Cancel() })
	return engine, sink, clock
}

func fixAt(lat, lon float64, accuracy float64, altitude *float64, speed float64) GeoFix {
	return GeoFix{Latitude: lat, Longitude: lon, AccuracyM: accuracy, Altitude: altitude, SpeedMps: speed}
}

func altM(v float64) *float64 { return &v }

func TestSeedFixContributesNoDistance(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	// Even a terrible first fix anchors the path.
	engine.HandleFix(fixAt(0, 0, 90, nil, 0))

	snap := engine.Snapshot()
	if len(snap.Path) != 1 {
		t.Fatalf("expected seeded path, got %d points", len(snap.Path))
	}
	if snap.DistanceKm != 0 {
		t.Fatalf("seed fix must not contribute distance, got %v", snap.DistanceKm)
	}
	if snap.ElevationGainM != 0 {
		t.Fatalf("seed fix must not contribute elevation, got %v", snap.ElevationGainM)
	}
}

func TestDistanceAndElevationAccumulate(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.HandleFix(fixAt(0, 0, 10, altM(0), 0))
	// 0.00002 degrees of latitude is ~2.22 m, above the jitter gate.
	engine.HandleFix(fixAt(0.00002, 0, 10, altM(5), 0))

	snap := engine.Snapshot()
	if len(snap.Path) != 2 {
		t.Fatalf("expected 2 points, got %d", len(snap.Path))
	}
	if snap.DistanceKm < 0.0021 || snap.DistanceKm > 0.0024 {
		t.Fatalf("expected ~0.00222 km, got %v", snap.DistanceKm)
	}
	if snap.ElevationGainM != 5 {
		t.Fatalf("expected 5 m gain, got %v", snap.ElevationGainM)
	}
}

func TestDescentNeverReducesGain(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.HandleFix(fixAt(0, 0, 10, altM(100), 0))
	engine.HandleFix(fixAt(0.00002, 0, 10, altM(105), 0))
	engine.HandleFix(fixAt(0.00004, 0, 10, altM(80), 0))
	engine.HandleFix(fixAt(0.00006, 0, 10, altM(83), 0))

	if gain := engine.Snapshot().ElevationGainM; gain != 8 {
		t.Fatalf("expected gain 5+3=8, got %v", gain)
	}
}

func TestDistanceMonotonic(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	fixes := []GeoFix{
		fixAt(0, 0, 10, nil, 1),
		fixAt(0.00002, 0, 10, nil, 2),
		fixAt(0.00002, 0, 5, nil, 0),   // stationary jitter, rejected
		fixAt(0.0001, 0, 80, nil, 3),   // too inaccurate, rejected
		fixAt(0.00004, 0, 12, nil, 2),  // accepted
		fixAt(0.000041, 0, 12, nil, 2), // ~0.1 m, rejected
	}
	prev := 0.0
	for _, fix := range fixes {
		engine.HandleFix(fix)
		d := engine.Snapshot().DistanceKm
		if d < prev {
			t.Fatalf("distance decreased: %v -> %v", prev, d)
		}
		prev = d
	}
	if len(engine.Snapshot().Path) != 3 {
		t.Fatalf("expected 3 accepted points, got %d", len(engine.Snapshot().Path))
	}
}

func TestAccuracyBoundary(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.HandleFix(fixAt(0, 0, 10, nil, 0))
	engine.HandleFix(fixAt(0.00002, 0, 35, nil, 0))
	if got := len(engine.Snapshot().Path); got != 1 {
		t.Fatalf("accuracy 35 must be rejected, path %d", got)
	}
	engine.HandleFix(fixAt(0.00002, 0, 34.999, nil, 0))
	if got := len(engine.Snapshot().Path); got != 2 {
		t.Fatalf("accuracy 34.999 must be accepted, path %d", got)
	}
}

func TestIdenticalFixAlwaysRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.HandleFix(fixAt(-6.2, 106.8, 10, nil, 0))
	for _, acc := range []float64{1, 5, 34, 90} {
		engine.HandleFix(fixAt(-6.2, 106.8, acc, nil, 0))
	}
	snap := engine.Snapshot()
	if len(snap.Path) != 1 || snap.DistanceKm != 0 {
		t.Fatalf("identical fixes must never extend the path: %d points, %v km", len(snap.Path), snap.DistanceKm)
	}
}

func TestRejectedFixStillDrivesLivePace(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.HandleFix(fixAt(0, 0, 10, nil, 0))
	// Stationary jitter with a (noisy) raw speed reading.
	engine.HandleFix(fixAt(0.000001, 0, 10, nil, 2.0))

	snap := engine.Snapshot()
	if len(snap.Path) != 1 {
		t.Fatalf("jitter fix must not extend path")
	}
	if snap.PaceSecondsPerKm != 500 {
		t.Fatalf("expected live pace 500 s/km, got %v", snap.PaceSecondsPerKm)
	}
	if snap.Location == nil || snap.Location.Latitude != 0.000001 {
		t.Fatalf("live location must follow the raw fix")
	}
}

func TestSlowSpeedShowsNoPace(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.HandleFix(fixAt(0, 0, 10, nil, 0.4))
	if pace := engine.Snapshot().PaceSecondsPerKm; pace != 0 {
		t.Fatalf("speed <= 0.5 m/s must show no pace, got %v", pace)
	}
}

func TestPauseFreezesAccumulation(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.HandleFix(fixAt(0, 0, 10, nil, 0))
	engine.tick()
	if err := engine.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}

	engine.HandleFix(fixAt(0.0001, 0, 10, nil, 3))
	engine.tick()

	snap := engine.Snapshot()
	if snap.ElapsedSeconds != 1 {
		t.Fatalf("elapsed must freeze while paused, got %d", snap.ElapsedSeconds)
	}
	if len(snap.Path) != 1 || snap.DistanceKm != 0 {
		t.Fatalf("distance must freeze while paused")
	}
	// The display still follows the raw fix while paused.
	if snap.PaceSecondsPerKm == 0 {
		t.Fatalf("live pace should still update while paused")
	}

	if err := engine.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	engine.tick()
	if got := engine.Snapshot().ElapsedSeconds; got != 2 {
		t.Fatalf("elapsed must resume, got %d", got)
	}
}

func TestFinishRequiresPause(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	if _, err := engine.Finish(); err != ErrNotPaused {
		t.Fatalf("expected ErrNotPaused, got %v", err)
	}
	if err := engine.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	record, err := engine.Finish()
	if err != nil {
		t.Fatalf("finish after pause: %v", err)
	}
	if record.ID != "session-1" || record.Type != "Outdoor Run" {
		t.Fatalf("unexpected record identity: %+v", record)
	}
	if engine.Snapshot().Phase != PhaseIdle {
		t.Fatalf("expected idle after finish")
	}
}

func TestFinishComputesAveragePace(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.HandleFix(fixAt(0, 0, 10, nil, 0))
	// ~1.11 km north.
	engine.HandleFix(fixAt(0.01, 0, 10, nil, 3))
	for i := 0; i < 400; i++ {
		engine.tick()
	}
	if err := engine.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	record, err := engine.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	if record.Duration != 400 {
		t.Fatalf("expected 400 s duration, got %d", record.Duration)
	}
	// 0.01 degrees of latitude is ~1.112 km; 400 s over it is ~359.7 s/km.
	if record.Distance < 1.111 || record.Distance > 1.113 {
		t.Fatalf("unexpected distance %v", record.Distance)
	}
	if record.AvgPace != "5'59\"" {
		t.Fatalf("expected avg pace 5'59\", got %s", record.AvgPace)
	}
	if record.Calories != int(math.Floor(record.Distance*60)) {
		t.Fatalf("unexpected calories %d for %v km", record.Calories, record.Distance)
	}
}

func TestFinishWithZeroDistance(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	if err := engine.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	record, err := engine.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if record.AvgPace != "--'--\"" {
		t.Fatalf("zero distance must display as no pace, got %q", record.AvgPace)
	}
	if record.Calories != 0 || record.Distance != 0 {
		t.Fatalf("unexpected totals: %+v", record)
	}
}

func TestStalenessRaisesSearchingAndZeroesPace(t *testing.T) {
	engine, sink, clock := newTestEngine(t)

	engine.HandleFix(fixAt(0, 0, 10, nil, 3))
	if engine.Snapshot().PaceSecondsPerKm == 0 {
		t.Fatalf("expected live pace before staleness")
	}

	clock.advance(9000)
	engine.tick()

	snap := engine.Snapshot()
	if !snap.Searching {
		t.Fatalf("expected searching indicator after 9 s without a fix")
	}
	if snap.PaceSecondsPerKm != 0 {
		t.Fatalf("expected pace reset on staleness, got %v", snap.PaceSecondsPerKm)
	}
	if q := sink.lastQuality(t); !q.Searching {
		t.Fatalf("expected searching quality event")
	}

	// A fresh fix clears the indicator and recomputes pace from its speed.
	engine.HandleFix(fixAt(0.00002, 0, 10, nil, 2.5))
	snap = engine.Snapshot()
	if snap.Searching {
		t.Fatalf("expected indicator cleared by new fix")
	}
	if snap.PaceSecondsPerKm != 400 {
		t.Fatalf("expected pace 400 s/km, got %v", snap.PaceSecondsPerKm)
	}
	if q := sink.lastQuality(t); q.Searching {
		t.Fatalf("expected clear quality event")
	}
}

func TestStalenessIsAdvisoryOnly(t *testing.T) {
	engine, _, clock := newTestEngine(t)

	engine.HandleFix(fixAt(0, 0, 10, nil, 3))
	clock.advance(9000)
	engine.tick()
	engine.tick()

	snap := engine.Snapshot()
	if snap.Phase != PhaseActive {
		t.Fatalf("staleness must not pause the session")
	}
	if snap.ElapsedSeconds != 2 {
		t.Fatalf("timer must keep running through staleness, got %d", snap.ElapsedSeconds)
	}
}

func TestLateFixAfterTeardownIsNoOp(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.HandleFix(fixAt(0, 0, 10, nil, 0))
	if err := engine.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := engine.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}

	engine.HandleFix(fixAt(0.01, 0, 10, nil, 3))
	engine.tick()

	snap := engine.Snapshot()
	if len(snap.Path) != 0 || snap.DistanceKm != 0 || snap.ElapsedSeconds != 0 {
		t.Fatalf("finished session must not mutate: %+v", snap)
	}
}

func TestCancelDiscardsState(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.HandleFix(fixAt(0, 0, 10, nil, 0))
	engine.HandleFix(fixAt(0.0001, 0, 10, nil, 2))
	if err := engine.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := engine.Cancel(); err != ErrSessionDone {
		t.Fatalf("expected ErrSessionDone on double cancel, got %v", err)
	}
	if _, err := engine.Finish(); err != ErrSessionDone {
		t.Fatalf("expected ErrSessionDone after cancel, got %v", err)
	}
}

func TestLifecycleRejections(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine("session-x", "Outdoor Run", sink)

	if err := engine.Pause(); err != ErrNotActive {
		t.Fatalf("pause before start: %v", err)
	}
	if err := engine.Resume(); err != ErrNotPaused {
		t.Fatalf("resume before start: %v", err)
	}
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := engine.Start(); err != ErrSessionStarted {
		t.Fatalf("double start: %v", err)
	}
	if err := engine.Resume(); err != ErrNotPaused {
		t.Fatalf("resume while active: %v", err)
	}
	_ = engine.Cancel()
}
