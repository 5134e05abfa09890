// Package httpapi is the public JSON API: report submission, nearby
// queries, and the admin moderation surface.
package httpapi

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/aidhaven/incident-aggregation/internal/service"
)

// headerAdminID identifies the acting moderator on admin routes. Upstream
// auth infrastructure is expected to have validated it.
const headerAdminID = "X-Admin-ID"

// Server wires the service layer to Fiber routes.
type Server struct {
	app       *fiber.App
	submitter *service.Submitter
	nearby    *service.NearbyEngine
	moderator *service.Moderator
	clusterer *service.Clusterer
	logger    *slog.Logger
}

// NewServer builds the Fiber app with middleware and all API routes.
func NewServer(corsOrigins string, submitter *service.Submitter, nearby *service.NearbyEngine, moderator *service.Moderator, clusterer *service.Clusterer, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		app:       app,
		submitter: submitter,
		nearby:    nearby,
		moderator: moderator,
		clusterer: clusterer,
		logger:    logger,
	}

	app.Use(recover.New())
	app.Use(fiberlog.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "*",
	}))

	api := app.Group("/api")
	api.Post("/reports", s.handleSubmit)
	api.Get("/nearby", s.handleNearby)

	admin := api.Group("/admin", s.requireAdmin)
	admin.Get("/clusters/reports", s.handleClusterMembers)
	admin.Post("/reports/hide-batch", s.handleHideBatch)
	admin.Post("/reports/:id/approve", s.handleApprove)
	admin.Post("/reports/:id/reject", s.handleReject)
	admin.Post("/reports/:id/edit", s.handleEdit)
	admin.Post("/reports/:id/hide", s.handleHide)
	admin.Delete("/reports/:id", s.handleDelete)

	return s
}

// Listen blocks serving the API until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("api server starting", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the underlying Fiber app for in-process request testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// requireAdmin rejects admin requests that carry no moderator identity.
func (s *Server) requireAdmin(c *fiber.Ctx) error {
	if c.Get(headerAdminID) == "" {
		return errorResp(c, fiber.StatusUnauthorized, "missing "+headerAdminID+" header")
	}
	return c.Next()
}
