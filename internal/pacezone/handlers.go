package pacezone

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/", func(c *fiber.Ctx) error {
		var req Zone
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name == "" || req.MaxPaceS <= req.MinPaceS {
			return fiber.NewError(fiber.StatusBadRequest, "name and a valid pace band required")
		}
		zone, err := svc.CreateZone(c.Context(), req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(zone)
	})

	r.Get("/", func(c *fiber.Ctx) error {
		zones, err := svc.Zones(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(zones)
	})

	r.Put("/:id", func(c *fiber.Ctx) error {
		var req Zone
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		zone, err := svc.UpdateZone(c.Context(), c.Params("id"), req)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(zone)
	})

	r.Delete("/:id", func(c *fiber.Ctx) error {
		if err := svc.DeleteZone(c.Context(), c.Params("id")); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"status": "deleted"})
	})
}
