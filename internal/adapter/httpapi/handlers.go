package httpapi

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aidhaven/incident-aggregation/internal/domain"
	"github.com/aidhaven/incident-aggregation/internal/service"
	"github.com/aidhaven/incident-aggregation/internal/store"
)

func (s *Server) handleSubmit(c *fiber.Ctx) error {
	var in service.SubmitInput
	if err := c.BodyParser(&in); err != nil {
		return errorResp(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	result, err := s.submitter.SubmitReport(c.UserContext(), in)
	if err != nil {
		return s.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ok":       true,
		"reportId": result.ReportID,
		"cluster":  result.Cluster,
	})
}

func (s *Server) handleNearby(c *fiber.Ctx) error {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return errorResp(c, fiber.StatusBadRequest, "invalid lat")
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		return errorResp(c, fiber.StatusBadRequest, "invalid lng")
	}

	q := service.NearbyQuery{
		Lat:    lat,
		Lng:    lng,
		Window: domain.ParseWindow(c.Query("window")),
	}
	if raw := c.Query("radius_km"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			return errorResp(c, fiber.StatusBadRequest, "invalid radius_km")
		}
		q.RadiusKm = radius
	}
	if raw := c.Query("categories"); raw != "" {
		for _, cat := range strings.Split(raw, ",") {
			if cat = strings.TrimSpace(cat); cat != "" {
				q.Categories = append(q.Categories, cat)
			}
		}
	}

	// Degraded results still return 200 with an empty list. The viewer map
	// stays usable when the backend is flapping.
	result := s.nearby.QueryNearby(c.UserContext(), q)
	body := fiber.Map{
		"ok":     !result.Err,
		"events": result.Events,
	}
	if result.Err {
		body["error"] = "event lookup degraded"
	}
	return c.JSON(body)
}

func (s *Server) handleClusterMembers(c *fiber.Ctx) error {
	members, err := s.clusterer.Members(c.UserContext(), c.Query("type"), c.Query("address"))
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{
		"ok":      true,
		"count":   members.Count,
		"reports": members.Reports,
	})
}

func (s *Server) handleApprove(c *fiber.Ctx) error {
	var in service.ApproveInput
	if err := c.BodyParser(&in); err != nil {
		return errorResp(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if err := s.moderator.Approve(c.UserContext(), c.Params("id"), adminID(c), in); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleReject(c *fiber.Ctx) error {
	if err := s.moderator.Reject(c.UserContext(), c.Params("id"), adminID(c)); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleEdit(c *fiber.Ctx) error {
	var in service.EditInput
	if err := c.BodyParser(&in); err != nil {
		return errorResp(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if err := s.moderator.EditApproved(c.UserContext(), c.Params("id"), adminID(c), in); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) handleHide(c *fiber.Ctx) error {
	if err := s.moderator.HideFromAdmin(c.UserContext(), c.Params("id"), adminID(c)); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

type hideBatchRequest struct {
	ReportIDs []string `json:"reportIds"`
}

func (s *Server) handleHideBatch(c *fiber.Ctx) error {
	var req hideBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResp(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if len(req.ReportIDs) == 0 {
		return errorResp(c, fiber.StatusBadRequest, "reportIds is empty")
	}

	hidden, err := s.moderator.HideClusterFromAdmin(c.UserContext(), req.ReportIDs, adminID(c))
	if err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "hidden": hidden})
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	if err := s.moderator.DeletePermanently(c.UserContext(), c.Params("id"), adminID(c)); err != nil {
		return s.mapError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func adminID(c *fiber.Ctx) string {
	return c.Get(headerAdminID)
}

// mapError translates service and store errors to HTTP statuses.
func (s *Server) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return errorResp(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return errorResp(c, fiber.StatusNotFound, "report not found")
	case errors.Is(err, service.ErrEmbargo):
		return errorResp(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, store.ErrUnavailable):
		return errorResp(c, fiber.StatusServiceUnavailable, "storage backend unavailable")
	default:
		s.logger.Error("unhandled api error", "path", c.Path(), "error", err)
		return errorResp(c, fiber.StatusInternalServerError, "internal error")
	}
}

func errorResp(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"ok": false, "error": msg})
}
