// Package http serves the stores, search and toasts over a fiber API.
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vinizap/studydock/auth"
)

// NewApp builds the fiber app. A nil registry disables /metrics.
func NewApp(s *Server, secret string, reg *prometheus.Registry) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return errorJSON(c, code, err.Error())
		},
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(s.logRequests)
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept," + auth.TokenHeader,
	}))

	app.Get("/health", s.HandleHealth)
	if reg != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	}

	api := app.Group("/api", auth.Middleware(secret))

	api.Get("/folders", s.HandleFolders)
	api.Post("/folders", s.HandleCreateFolder)
	api.Delete("/folders/:id", s.HandleDeleteFolder)

	api.Get("/selection", s.HandleSelection)
	api.Put("/selection", s.HandleSelect)

	api.Get("/notes", s.HandleNotes)
	api.Post("/notes", s.HandleCreateNote)
	api.Get("/notes/:id", s.HandleGetNote)
	api.Put("/notes/:id", s.HandleUpdateNote)
	api.Delete("/notes/:id", s.HandleDeleteNote)

	api.Get("/search", s.HandleSearch)
	api.Get("/toasts", s.HandleToasts)

	return app
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("request")
	return err
}
