package server

import (
	"github.com/opl224/fitgo/internal/backup"
	"github.com/opl224/fitgo/internal/config"
	"github.com/opl224/fitgo/internal/history"
	"github.com/opl224/fitgo/internal/pacezone"
	"github.com/opl224/fitgo/internal/settings"
	"github.com/opl224/fitgo/internal/stream"
	"github.com/opl224/fitgo/internal/tracking"
	"github.com/opl224/fitgo/internal/workout"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Stream  *stream.Hub
	Manager *tracking.Manager
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: hub,
		Manager: tracking.NewManager(func(sessionID string) tracking.EventSink {
			return stream.NewSink(hub, sessionID)
		}, nil),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	historySvc := history.NewService(s.DB)
	zoneSvc := pacezone.NewService(s.DB)

	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Manager, historySvc, zoneSvc)
	history.RegisterRoutes(s.App.Group("/history"), historySvc)
	pacezone.RegisterRoutes(s.App.Group("/zones"), zoneSvc)
	workout.RegisterRoutes(s.App.Group("/workouts"), workout.NewService(s.DB), historySvc)

	settingsSvc := settings.NewService(s.Redis)
	settings.RegisterRoutes(s.App.Group("/settings"), settingsSvc)
	backup.RegisterRoutes(s.App.Group("/backup"), backup.NewService(s.DB, historySvc, settingsSvc))

	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
