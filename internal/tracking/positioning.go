package tracking

import (
	"context"
	"log"
	"strings"
)

type PermissionStatus string

const (
	PermissionGranted PermissionStatus = "granted"
	PermissionDenied  PermissionStatus = "denied"
	PermissionUnknown PermissionStatus = "unknown"
)

// WatchConfig mirrors the options handed to the positioning collaborator.
type WatchConfig struct {
	HighAccuracy bool
	TimeoutMs    int
	MaxAgeMs     int
}

// DefaultWatchConfig is the configuration used for live run tracking:
// high accuracy, 15 s fix timeout, and no cached fixes.
var DefaultWatchConfig = WatchConfig{HighAccuracy: true, TimeoutMs: 15000, MaxAgeMs: 0}

// Provider is the external continuous-positioning collaborator.
type Provider interface {
	CheckPermission(ctx context.Context) (PermissionStatus, error)
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	Watch(cfg WatchConfig, onFix func(GeoFix, error)) (string, error)
	ClearWatch(watchID string) error
}

const permissionDeniedReason = "GPS permission denied"

// PositioningSession bridges one Provider subscription to one engine.
type PositioningSession struct {
	provider Provider
	watchID  string
}

// StartPositioning runs the permission handshake and subscribes the engine
// to the provider. Permission denial is surfaced through the engine's sink
// and never aborts the session; tracking simply receives no fixes.
func StartPositioning(ctx context.Context, provider Provider, engine *Engine) (*PositioningSession, error) {
	status, err := provider.CheckPermission(ctx)
	if err != nil {
		status = PermissionUnknown
	}
	if status != PermissionGranted {
		status, err = provider.RequestPermission(ctx)
		if err == nil && status == PermissionDenied {
			engine.ReportPermissionError(permissionDeniedReason)
		}
		if err != nil {
			log.Printf("permission request failed: %v", err)
		}
	}

	watchID, err := provider.Watch(DefaultWatchConfig, func(fix GeoFix, watchErr error) {
		if watchErr != nil {
			engine.MarkSearching()
			if strings.Contains(strings.ToLower(watchErr.Error()), "denied") {
				engine.ReportPermissionError(permissionDeniedReason)
			}
			return
		}
		engine.HandleFix(fix)
	})
	if err != nil {
		return nil, err
	}
	return &PositioningSession{provider: provider, watchID: watchID}, nil
}

// Stop cancels the subscription. A provider that is already gone is not an
// error worth propagating at teardown.
func (p *PositioningSession) Stop() {
	if err := p.provider.ClearWatch(p.watchID); err != nil {
		log.Printf("clear watch %s: %v", p.watchID, err)
	}
}
