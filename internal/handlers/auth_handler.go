package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/dto"
	"github.com/lacrlabs/lacr-backend/internal/middleware"
	"github.com/lacrlabs/lacr-backend/internal/models"
	"github.com/lacrlabs/lacr-backend/internal/services"
)

type AuthHandler struct {
	identityService *services.IdentityService
	robotService    *services.RobotService
}

func NewAuthHandler(identityService *services.IdentityService, robotService *services.RobotService) *AuthHandler {
	return &AuthHandler{identityService: identityService, robotService: robotService}
}

// Verify returns the resolved profile plus the caller's robot list. The
// token itself was already verified (and the user resolved, merging by
// email if needed) by the auth middleware.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	user, err := middleware.GetUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	robots, err := h.robotService.ListByOwner(user.FirebaseUID)
	if err != nil {
		slog.Error("failed to list robots for verify", "error", err, "uid", user.FirebaseUID)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load user state",
		})
	}

	return c.JSON(dto.VerifyResponse{
		Success: true,
		User:    newUserResponse(user),
		Robots:  dto.NewRobotSummaries(robots),
	})
}

func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, err := middleware.GetUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	return c.JSON(fiber.Map{"success": true, "user": newUserResponse(user)})
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	user, err := h.identityService.UpdateProfile(uid, req.Name, req.PhotoURL)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update profile",
		})
	}

	return c.JSON(fiber.Map{"success": true, "user": newUserResponse(user)})
}

func (h *AuthHandler) SetDashboardLock(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.DashboardPinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.identityService.SetDashboardPin(uid, req.Pin); err != nil {
		if errors.Is(err, services.ErrMissingField) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "pin is required",
			})
		}
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to set dashboard lock",
		})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Dashboard lock updated"})
}

func (h *AuthHandler) ValidateDashboardLock(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.DashboardPinRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.identityService.ValidateDashboardPin(uid, req.Pin); err != nil {
		switch {
		case errors.Is(err, services.ErrMissingField):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "pin is required",
			})
		case errors.Is(err, services.ErrPinNotSet):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Dashboard PIN not set",
			})
		case errors.Is(err, services.ErrInvalidPin):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid PIN",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to validate dashboard lock",
			})
		}
	}

	return c.JSON(fiber.Map{"success": true, "message": "PIN validated"})
}

func (h *AuthHandler) ToggleDashboardLock(c *fiber.Ctx) error {
	uid, err := middleware.GetUID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.DashboardLockToggleRequest
	if err := c.BodyParser(&req); err != nil || req.Enabled == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "enabled is required",
		})
	}

	if err := h.identityService.ToggleDashboardLock(uid, *req.Enabled); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to toggle dashboard lock",
		})
	}

	return c.JSON(fiber.Map{"success": true, "dashboard_lock_enabled": *req.Enabled})
}

func newUserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		UID:                  user.FirebaseUID,
		Email:                user.Email,
		Name:                 user.Name,
		PhotoURL:             user.PhotoURL,
		DashboardLockEnabled: user.DashboardLockEnabled,
		HasRobot:             user.HasRobot,
		RobotID:              user.RobotID,
		CreatedAt:            user.CreatedAt,
		LastLogin:            user.LastLogin,
	}
}
