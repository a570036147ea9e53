package settings

import (
	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service *Service
}

func RegisterRoutes(router fiber.Router, service *Service) {
	NewHandler(service).register(router)
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) register(router fiber.Router) {
	router.Get("/", h.getSettings)
	router.Put("/", h.updateSettings)
}

func (h *Handler) getSettings(c *fiber.Ctx) error {
	current, err := h.service.Get(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load settings"})
	}
	return c.JSON(current)
}

func (h *Handler) updateSettings(c *fiber.Ctx) error {
	in := Defaults()
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.service.Save(c.Context(), in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(in)
}
