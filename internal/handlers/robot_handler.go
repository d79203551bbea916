package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/dto"
	"github.com/lacrlabs/lacr-backend/internal/middleware"
	"github.com/lacrlabs/lacr-backend/internal/models"
	"github.com/lacrlabs/lacr-backend/internal/services"
)

// RobotHandler serves the bearer-authenticated owner side of the
// provisioning workflow.
type RobotHandler struct {
	robotService *services.RobotService
}

func NewRobotHandler(robotService *services.RobotService) *RobotHandler {
	return &RobotHandler{robotService: robotService}
}

func (h *RobotHandler) Register(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.RegisterRobotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	robot, err := h.robotService.UserRegister(uid, req.RobotID, req.Model, req.LocalIP)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			return badRequest(c, "robot_id, model, and local_ip are required")
		case errors.Is(err, services.ErrInvalidModel):
			return badRequest(c, "Model must be either LAC-R or GEM")
		case errors.Is(err, services.ErrRobotExists):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Robot ID already exists",
			})
		default:
			return internalError(c, "Failed to register robot")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Robot registered successfully",
		"robot":   dto.NewRobotSummary(robot),
	})
}

// Claim attaches an unclaimed, self-registered robot to the caller. The
// setup password announced by the device in AP mode is the proof of access.
func (h *RobotHandler) Claim(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.ClaimRobotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	robot, err := h.robotService.Claim(uid, req.RobotID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			return badRequest(c, "robot_id and password are required")
		case errors.Is(err, services.ErrRobotNotFound):
			return notFound(c, "Robot not found")
		case errors.Is(err, services.ErrRobotAlreadyClaimed):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "Robot already claimed",
			})
		case errors.Is(err, services.ErrPasswordNotSet):
			return badRequest(c, "Robot password not set")
		case errors.Is(err, services.ErrInvalidRobotPassword):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid password",
			})
		default:
			return internalError(c, "Failed to claim robot")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Robot claimed successfully",
		"robot":   dto.NewRobotSummary(robot),
	})
}

func (h *RobotHandler) SetPassword(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.SetRobotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.robotService.SetPassword(uid, req.RobotID, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			return badRequest(c, "robot_id and new_password are required")
		case errors.Is(err, services.ErrRobotNotFound):
			return notFound(c, "Robot not found")
		default:
			return internalError(c, "Failed to set password")
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "Password updated successfully"})
}

func (h *RobotHandler) VerifyPassword(c *fiber.Ctx) error {
	return h.checkPassword(c, "Password verified successfully")
}

func (h *RobotHandler) ValidatePassword(c *fiber.Ctx) error {
	return h.checkPassword(c, "Password validated successfully")
}

func (h *RobotHandler) checkPassword(c *fiber.Ctx, okMessage string) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.RobotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	robot, err := h.robotService.VerifyPassword(uid, req.RobotID, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			return badRequest(c, "robot_id and password are required")
		case errors.Is(err, services.ErrRobotNotFound):
			return notFound(c, "Robot not found")
		case errors.Is(err, services.ErrPasswordNotSet):
			return badRequest(c, "Robot password not set")
		case errors.Is(err, services.ErrInvalidRobotPassword):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid password",
			})
		default:
			return internalError(c, "Failed to verify password")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": okMessage,
		"robot":   dto.NewRobotSummary(robot),
	})
}

// Dashboard lists the caller's robots; the first is the primary one the
// companion app pins to its home screen.
func (h *RobotHandler) Dashboard(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return unauthorized(c)
	}

	robots, err := h.robotService.ListByOwner(uid)
	if err != nil {
		return internalError(c, "Failed to fetch dashboard data")
	}
	if len(robots) == 0 {
		return c.JSON(fiber.Map{
			"success": true,
			"robot":   nil,
			"message": "No robots found for this user",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"robot":   dto.NewRobotSummary(&robots[0]),
		"robots":  dto.NewRobotSummaries(robots),
	})
}

func (h *RobotHandler) UpdateIP(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.UpdateIPRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	robot, err := h.robotService.UpdateIP(uid, req.RobotID, req.NewIP)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			return badRequest(c, "robot_id and new_ip are required")
		case errors.Is(err, services.ErrRobotNotFound):
			return notFound(c, "Robot not found")
		default:
			return internalError(c, "Failed to update IP")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "IP updated successfully",
		"robot": fiber.Map{
			"robot_id": robot.RobotID,
			"local_ip": robot.LocalIP,
		},
	})
}

func (h *RobotHandler) Delete(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.DeleteRobotRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.robotService.Delete(uid, req.RobotID); err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			return badRequest(c, "robot_id is required")
		case errors.Is(err, services.ErrRobotNotFound):
			// Not-owned robots read as not found on purpose.
			return notFound(c, "Robot not found")
		default:
			return internalError(c, "Failed to delete robot")
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "Robot deleted successfully"})
}

// GetStatusConfig reads the status display config for a robot whose model
// supports it (GEM units).
func (h *RobotHandler) GetStatusConfig(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return unauthorized(c)
	}

	cfg, err := h.robotService.StatusConfig(uid, c.Params("robot_id"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRobotNotFound):
			return notFound(c, "Robot not found")
		case errors.Is(err, services.ErrCapabilityMissing):
			return badRequest(c, "This endpoint is only for GEM model robots")
		default:
			return internalError(c, "Failed to get status configuration")
		}
	}

	return c.JSON(fiber.Map{"success": true, "gem_status_config": cfg})
}

func (h *RobotHandler) UpdateStatusConfig(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return unauthorized(c)
	}

	var patch models.StatusConfig
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cfg, err := h.robotService.UpdateStatusConfig(uid, c.Params("robot_id"), &patch)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRobotNotFound):
			return notFound(c, "Robot not found")
		case errors.Is(err, services.ErrCapabilityMissing):
			return badRequest(c, "This endpoint is only for GEM model robots")
		default:
			return internalError(c, "Failed to update status configuration")
		}
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"message":           "GEM status configuration updated successfully",
		"gem_status_config": cfg,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

func internalError(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}
