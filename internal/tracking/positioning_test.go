package tracking

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	status        PermissionStatus
	requestTo     PermissionStatus
	requested     bool
	watchCfg      WatchConfig
	watchErr      error
	onFix         func(GeoFix, error)
	cleared       []string
	clearWatchErr error
}

func (f *fakeProvider) CheckPermission(context.Context) (PermissionStatus, error) {
	return f.status, nil
}

func (f *fakeProvider) RequestPermission(context.Context) (PermissionStatus, error) {
	f.requested = true
	return f.requestTo, nil
}

func (f *fakeProvider) Watch(cfg WatchConfig, onFix func(GeoFix, error)) (string, error) {
	if f.watchErr != nil {
		return "", f.watchErr
	}
	f.watchCfg = cfg
	f.onFix = onFix
	return "watch-1", nil
}

func (f *fakeProvider) ClearWatch(id string) error {
	f.cleared = append(f.cleared, id)
	return f.clearWatchErr
}

func TestStartPositioningSubscribesHighAccuracy(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine("s1", "Outdoor Run", sink)
	provider := &fakeProvider{status: PermissionGranted}

	ps, err := StartPositioning(context.Background(), provider, engine)
	if err != nil {
		t.Fatalf("start positioning: %v", err)
	}
	if provider.requested {
		t.Fatalf("granted permission must not be re-requested")
	}
	if !provider.watchCfg.HighAccuracy || provider.watchCfg.TimeoutMs != 15000 || provider.watchCfg.MaxAgeMs != 0 {
		t.Fatalf("unexpected watch config: %+v", provider.watchCfg)
	}

	ps.Stop()
	if len(provider.cleared) != 1 || provider.cleared[0] != "watch-1" {
		t.Fatalf("expected subscription cleared")
	}
}

func TestStartPositioningRequestsWhenNotGranted(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine("s1", "Outdoor Run", sink)
	provider := &fakeProvider{status: PermissionUnknown, requestTo: PermissionGranted}

	if _, err := StartPositioning(context.Background(), provider, engine); err != nil {
		t.Fatalf("start positioning: %v", err)
	}
	if !provider.requested {
		t.Fatalf("expected permission request")
	}
	if len(sink.permissions) != 0 {
		t.Fatalf("granted request must not raise a permission error")
	}
}

func TestStartPositioningDenialIsNonFatal(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine("s1", "Outdoor Run", sink)
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = engine.Cancel() }()

	provider := &fakeProvider{status: PermissionDenied, requestTo: PermissionDenied}
	ps, err := StartPositioning(context.Background(), provider, engine)
	if err != nil {
		t.Fatalf("denial must not abort the session: %v", err)
	}
	if ps == nil {
		t.Fatalf("expected a subscription even when denied")
	}
	if len(sink.permissions) != 1 || sink.permissions[0] != "GPS permission denied" {
		t.Fatalf("expected permission error, got %v", sink.permissions)
	}
	if engine.Snapshot().Phase != PhaseActive {
		t.Fatalf("session must keep running without fixes")
	}
}

func TestWatchErrorClassification(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine("s1", "Outdoor Run", sink)
	if err := engine.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = engine.Cancel() }()

	provider := &fakeProvider{status: PermissionGranted}
	if _, err := StartPositioning(context.Background(), provider, engine); err != nil {
		t.Fatalf("start positioning: %v", err)
	}

	provider.onFix(GeoFix{}, errors.New("location timeout"))
	if !engine.Snapshot().Searching {
		t.Fatalf("generic watch error must raise searching")
	}
	if len(sink.permissions) != 0 {
		t.Fatalf("generic error must not look like a denial")
	}

	provider.onFix(GeoFix{}, errors.New("User DENIED geolocation"))
	if len(sink.permissions) != 1 {
		t.Fatalf("denied substring must raise the permission condition")
	}

	// The stream keeps delivering after errors.
	provider.onFix(fixAt(0, 0, 10, nil, 0), nil)
	if engine.Snapshot().Searching {
		t.Fatalf("a good fix must clear searching")
	}
	if len(engine.Snapshot().Path) != 1 {
		t.Fatalf("fix after errors must still be applied")
	}
}

func TestStopSwallowsClearError(t *testing.T) {
	sink := &recordingSink{}
	engine := NewEngine("s1", "Outdoor Run", sink)
	provider := &fakeProvider{status: PermissionGranted, clearWatchErr: errors.New("provider gone")}

	ps, err := StartPositioning(context.Background(), provider, engine)
	if err != nil {
		t.Fatalf("start positioning: %v", err)
	}
	ps.Stop() // must not panic or propagate
}
