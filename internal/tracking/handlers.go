package tracking

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
)

// RecordStore persists finished sessions; implemented by the history
// service.
type RecordStore interface {
	Save(ctx context.Context, record SessionRecord) error
}

// ZoneTagger assigns pace-zone ids to a finished path for map coloring.
type ZoneTagger interface {
	Tag(ctx context.Context, path []TrackPoint) ([]TrackPoint, error)
}

func RegisterRoutes(r fiber.Router, mgr *Manager, store RecordStore, tagger ZoneTagger) {
	r.Post("/sessions", func(c *fiber.Ctx) error {
		var req struct {
			Type string `json:"type"`
		}
		_ = c.BodyParser(&req)
		engine, err := mgr.StartSession(c.Context(), req.Type)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(engine.Snapshot())
	})

	r.Post("/sessions/:id/pause", func(c *fiber.Ctx) error {
		engine, err := mgr.Session(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err := engine.Pause(); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.JSON(engine.Snapshot())
	})

	r.Post("/sessions/:id/resume", func(c *fiber.Ctx) error {
		engine, err := mgr.Session(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err := engine.Resume(); err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.JSON(engine.Snapshot())
	})

	r.Post("/sessions/:id/finish", func(c *fiber.Ctx) error {
		record, err := mgr.Finish(c.Params("id"))
		if errors.Is(err, ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}

		if tagger != nil && len(record.Path) > 0 {
			if tagged, tagErr := tagger.Tag(c.Context(), record.Path); tagErr == nil {
				record.Path = tagged
			}
		}
		if store != nil {
			if err := store.Save(c.Context(), record); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, err.Error())
			}
		}
		return c.JSON(record)
	})

	r.Post("/sessions/:id/cancel", func(c *fiber.Ctx) error {
		err := mgr.Cancel(c.Params("id"))
		if errors.Is(err, ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}
		return c.JSON(fiber.Map{"status": "cancelled"})
	})

	// HTTP positioning source: the session receives raw fixes here when no
	// device-side provider is wired. Fixes without coordinates are dropped
	// before they ever reach the filter.
	r.Post("/sessions/:id/fixes", func(c *fiber.Ctx) error {
		var req struct {
			Latitude    *float64 `json:"latitude"`
			Longitude   *float64 `json:"longitude"`
			Altitude    *float64 `json:"altitude"`
			AccuracyM   float64  `json:"accuracy"`
			SpeedMps    float64  `json:"speed"`
			TimestampMs int64    `json:"timestamp"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Latitude == nil || req.Longitude == nil {
			return c.SendStatus(fiber.StatusAccepted)
		}
		err := mgr.Dispatch(c.Params("id"), GeoFix{
			Latitude:    *req.Latitude,
			Longitude:   *req.Longitude,
			Altitude:    req.Altitude,
			AccuracyM:   req.AccuracyM,
			SpeedMps:    req.SpeedMps,
			TimestampMs: req.TimestampMs,
		})
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	r.Get("/sessions/:id/snapshot", func(c *fiber.Ctx) error {
		engine, err := mgr.Session(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(engine.Snapshot())
	})
}
