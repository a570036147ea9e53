package backup

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
	router.Get("/export", h.export)
	router.Post("/import", h.importDocument)
	router.Get("/exports", h.listExports)
}

func (h *Handler) export(c *fiber.Ctx) error {
	doc, err := h.service.Export(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to export"})
	}
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="fitgo-backup.json"`)
	return c.JSON(doc)
}

func (h *Handler) importDocument(c *fiber.Ctx) error {
	var doc Document
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid backup document"})
	}
	result, err := h.service.Import(c.Context(), doc)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(result)
}

func (h *Handler) listExports(c *fiber.Ctx) error {
	infos, err := h.service.Exports(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list exports"})
	}
	return c.JSON(infos)
}
