package workout

import (
	"errors"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/opl224/fitgo/internal/tracking"
)

type Handler struct {
	service *Service
	store   tracking.RecordStore

	mu      sync.Mutex
	runners map[string]*Runner
}

func RegisterRoutes(router fiber.Router, service *Service, store tracking.RecordStore) {
	NewHandler(service, store).register(router)
}

func NewHandler(service *Service, store tracking.RecordStore) *Handler {
	return &Handler{
		service: service,
		store:   store,
		runners: make(map[string]*Runner),
	}
}

func (h *Handler) register(router fiber.Router) {
	router.Post("/presets", h.createPreset)
	router.Get("/presets", h.listPresets)
	router.Delete("/presets/:id", h.deletePreset)

	router.Post("/sessions", h.startSession)
	router.Get("/sessions/:id", h.getSession)
	router.Post("/sessions/:id/complete-set", h.completeSet)
	router.Post("/sessions/:id/pause", h.pauseSession)
	router.Post("/sessions/:id/resume", h.resumeSession)
	router.Post("/sessions/:id/finish", h.finishSession)
	router.Post("/sessions/:id/cancel", h.cancelSession)
}

type createPresetRequest struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	TargetPaceS float64 `json:"target_pace_s"`
}

func (h *Handler) createPreset(c *fiber.Ctx) error {
	var req createPresetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
	}
	preset, err := h.service.CreatePreset(c.Context(), req.Name, req.Type, req.TargetPaceS)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create preset"})
	}
	return c.Status(fiber.StatusCreated).JSON(preset)
}

func (h *Handler) listPresets(c *fiber.Ctx) error {
	presets, err := h.service.Presets(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list presets"})
	}
	return c.JSON(presets)
}

func (h *Handler) deletePreset(c *fiber.Ctx) error {
	err := h.service.DeletePreset(c.Context(), c.Params("id"))
	if errors.Is(err, ErrPresetNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "preset not found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete preset"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type startSessionRequest struct {
	Type      string     `json:"type"`
	Exercises []Exercise `json:"exercises"`
}

func (h *Handler) startSession(c *fiber.Ctx) error {
	var req startSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Type == "" {
		req.Type = "Workout"
	}
	runner, err := NewRunner(uuid.NewString(), req.Type, req.Exercises)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	runner.Start()

	h.mu.Lock()
	h.runners[runner.sessionID] = runner
	h.mu.Unlock()

	return c.Status(fiber.StatusCreated).JSON(runner.Snapshot())
}

func (h *Handler) runner(id string) (*Runner, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.runners[id]
	return r, ok
}

func (h *Handler) forget(id string) {
	h.mu.Lock()
	delete(h.runners, id)
	h.mu.Unlock()
}

func (h *Handler) getSession(c *fiber.Ctx) error {
	r, ok := h.runner(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	return c.JSON(r.Snapshot())
}

func (h *Handler) completeSet(c *fiber.Ctx) error {
	r, ok := h.runner(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	if err := r.CompleteSet(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(r.Snapshot())
}

func (h *Handler) pauseSession(c *fiber.Ctx) error {
	r, ok := h.runner(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	if err := r.Pause(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(r.Snapshot())
}

func (h *Handler) resumeSession(c *fiber.Ctx) error {
	r, ok := h.runner(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	if err := r.Resume(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(r.Snapshot())
}

func (h *Handler) finishSession(c *fiber.Ctx) error {
	id := c.Params("id")
	r, ok := h.runner(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	record, err := r.Finish()
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	h.forget(id)
	if h.store != nil {
		if err := h.store.Save(c.Context(), record); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save workout"})
		}
	}
	return c.JSON(record)
}

func (h *Handler) cancelSession(c *fiber.Ctx) error {
	id := c.Params("id")
	r, ok := h.runner(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
	}
	if err := r.Cancel(); err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	h.forget(id)
	return c.SendStatus(fiber.StatusNoContent)
}
