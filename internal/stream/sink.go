package stream

import "github.com/opl224/fitgo/internal/tracking"

// Sink adapts the hub to the tracking engine's event interface; one sink
// is created per session.
type Sink struct {
	hub       *Hub
	sessionID string
}

func NewSink(hub *Hub, sessionID string) *Sink {
	return &Sink{hub: hub, sessionID: sessionID}
}

func (s *Sink) StateChanged(snap tracking.Snapshot) {
	s.hub.Publish(s.sessionID, EventState, snap)
}

func (s *Sink) GPSQualityChanged(q tracking.GPSQuality) {
	s.hub.Publish(s.sessionID, EventGPSQuality, q)
}

func (s *Sink) PermissionError(reason string) {
	s.hub.Publish(s.sessionID, EventPermission, reason)
}
