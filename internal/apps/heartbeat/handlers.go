package heartbeat

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

type HeartbeatHandler struct {
	heartbeatService *HeartbeatService
}

func NewHeartbeatHandler(heartbeatService *HeartbeatService) *HeartbeatHandler {
	return &HeartbeatHandler{heartbeatService: heartbeatService}
}

func (h *HeartbeatHandler) ListReadings(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	readings, err := h.heartbeatService.List(c.Params("device_id"), c.Query("session_id"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to fetch heartbeat data"})
	}

	return c.JSON(fiber.Map{"heartbeat_data": readings})
}

func (h *HeartbeatHandler) CreateReading(c *fiber.Ctx) error {
	var req CreateReadingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	reading, err := h.heartbeatService.Record(c.Params("device_id"), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidBPM) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to record heartbeat"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "heartbeat": reading})
}

func (h *HeartbeatHandler) LatestReading(c *fiber.Ctx) error {
	reading, err := h.heartbeatService.Latest(c.Params("device_id"))
	if err != nil {
		if errors.Is(err, ErrNoReadings) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to fetch latest reading"})
	}

	return c.JSON(fiber.Map{"latest_reading": reading})
}

func (h *HeartbeatHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.heartbeatService.Stats(c.Params("device_id"), c.Query("period", "24h"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to compute stats"})
	}

	return c.JSON(fiber.Map{"stats": stats})
}

func (h *HeartbeatHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.heartbeatService.Sessions(c.Params("device_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to fetch sessions"})
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *HeartbeatHandler) GetTrends(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", "7"))

	trends, err := h.heartbeatService.Trends(c.Params("device_id"), days)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to compute trends"})
	}

	return c.JSON(fiber.Map{"trends": trends})
}

func (h *HeartbeatHandler) StartSession(c *fiber.Ctx) error {
	// Monitoring itself runs on the robot; the backend just issues a session ID
	// for readings to attach to.
	return c.JSON(fiber.Map{
		"success":    true,
		"session_id": NewSessionID(),
		"message":    "Heartbeat monitoring session started",
		"start_time": time.Now(),
	})
}

func (h *HeartbeatHandler) StopSession(c *fiber.Ctx) error {
	var req StopSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	stats, err := h.heartbeatService.SessionStats(c.Params("device_id"), req.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionIDMissing) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to compute session stats"})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"session_id": req.SessionID,
		"message":    "Heartbeat monitoring session stopped",
		"stats":      stats,
	})
}

func (h *HeartbeatHandler) DeleteReadings(c *fiber.Ctx) error {
	var before *time.Time
	if raw := c.Query("before_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid before_date, expected RFC3339"})
		}
		before = &parsed
	}

	deleted, err := h.heartbeatService.Purge(c.Params("device_id"), c.Query("session_id"), before)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to delete heartbeat readings"})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       fmt.Sprintf("Deleted %d heartbeat readings", deleted),
		"deleted_count": deleted,
	})
}
