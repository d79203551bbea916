package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/dto"
	"github.com/lacrlabs/lacr-backend/internal/services"
)

// ESP32Handler serves the device side of the provisioning workflow. None of
// these routes carry a bearer token: setup happens before any user exists
// for the device, and authenticate/heartbeat identify the device by
// robot_id (+ password for authenticate).
type ESP32Handler struct {
	robotService *services.RobotService
}

func NewESP32Handler(robotService *services.RobotService) *ESP32Handler {
	return &ESP32Handler{robotService: robotService}
}

// Setup registers a robot broadcasting in AP mode. The record starts
// unclaimed; owner assignment happens later via the claim call.
func (h *ESP32Handler) Setup(c *fiber.Ctx) error {
	var req dto.DeviceSetupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	robot, err := h.robotService.DeviceSetup(req.RobotID, req.Model, req.LocalIP, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			return badRequest(c, "robot_id, model, local_ip, and password are required")
		case errors.Is(err, services.ErrInvalidModel):
			return badRequest(c, "Model must be either LAC-R or GEM")
		case errors.Is(err, services.ErrRobotExists):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Robot ID already exists",
			})
		default:
			slog.Error("device setup failed", "error", err, "robot_id", req.RobotID)
			return internalError(c, "Failed to setup ESP32")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":        true,
		"message":        "ESP32 setup initiated successfully",
		"robot":          dto.NewRobotSummary(robot),
		"setup_complete": false,
	})
}

// Authenticate is the STA handshake: the device proves it knows the claimed
// password and flips to station mode.
func (h *ESP32Handler) Authenticate(c *fiber.Ctx) error {
	var req dto.DeviceAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	robot, err := h.robotService.Authenticate(req.RobotID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			return badRequest(c, "robot_id and password are required")
		case errors.Is(err, services.ErrRobotNotFound):
			return notFound(c, "Robot not found")
		case errors.Is(err, services.ErrRobotNotClaimed):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Robot not claimed by any user",
			})
		case errors.Is(err, services.ErrInvalidRobotPassword):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid password",
			})
		default:
			slog.Error("device authentication failed", "error", err, "robot_id", req.RobotID)
			return internalError(c, "Failed to authenticate ESP32")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "ESP32 authenticated successfully",
		"robot":   dto.NewRobotSummary(robot),
	})
}

func (h *ESP32Handler) Heartbeat(c *fiber.Ctx) error {
	var req dto.DeviceHeartbeatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	robot, err := h.robotService.Heartbeat(req.RobotID, req.Status, req.BatteryLevel, req.FirmwareVersion)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			return badRequest(c, "robot_id is required")
		case errors.Is(err, services.ErrRobotNotFound):
			return notFound(c, "Robot not found")
		default:
			slog.Error("heartbeat failed", "error", err, "robot_id", req.RobotID)
			return internalError(c, "Failed to process heartbeat")
		}
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Heartbeat acknowledged",
		"last_seen": robot.LastSeen,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Command validates the target robot and acknowledges with a queued command
// id. There is no push channel to devices; firmware polls for pending
// commands over its local link.
func (h *ESP32Handler) Command(c *fiber.Ctx) error {
	var req dto.DeviceCommandRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RobotID == "" || req.Command == "" {
		return badRequest(c, "robot_id and command are required")
	}

	if _, err := h.robotService.Get(req.RobotID); err != nil {
		return notFound(c, "Robot not found")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"message":    "Command " + req.Command + " queued for " + req.RobotID,
		"command_id": strconv.FormatInt(time.Now().UnixNano(), 10),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *ESP32Handler) Status(c *fiber.Ctx) error {
	robot, err := h.robotService.Get(c.Params("robot_id"))
	if err != nil {
		return notFound(c, "Robot not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"robot":   dto.NewRobotSummary(robot),
	})
}
