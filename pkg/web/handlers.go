package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-roadsense/pkg/hub"
)

// handleStatus returns the latest frame report
func (s *Server) handleStatus(c *fiber.Ctx) error {
	r := s.Last()
	if r == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(r)
}

// handleConfig returns the pipeline configuration
func (s *Server) handleConfig(c *fiber.Ctx) error {
	if s.config == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "config not published",
		})
	}
	return c.JSON(s.config)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":         "ok",
		"status_clients": s.statusHub.ClientCount(),
		"camera_clients": s.cameraHub.ClientCount(),
	}
	if r := s.Last(); r != nil {
		resp["seq"] = r.Seq
		resp["action"] = r.State.Action
	}
	return c.JSON(resp)
}

// handleStatusWS streams reports; a new client first gets the latest one
func (s *Server) handleStatusWS(c *websocket.Conn) {
	hub.Serve(s.statusHub, c)
}

// handleCameraWS streams annotated JPEG frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.Serve(s.cameraHub, c)
}
