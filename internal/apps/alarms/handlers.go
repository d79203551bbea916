package alarms

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AlarmHandler struct {
	alarmService *AlarmService
}

func NewAlarmHandler(alarmService *AlarmService) *AlarmHandler {
	return &AlarmHandler{alarmService: alarmService}
}

func (h *AlarmHandler) ListAlarms(c *fiber.Ctx) error {
	alarms, err := h.alarmService.List(c.Params("device_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to fetch alarms"})
	}

	return c.JSON(fiber.Map{"alarms": alarms})
}

func (h *AlarmHandler) CreateAlarm(c *fiber.Ctx) error {
	var req CreateAlarmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	alarm, err := h.alarmService.Create(c.Params("device_id"), &req)
	if err != nil {
		if errors.Is(err, ErrLabelRequired) || errors.Is(err, ErrInvalidTime) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to create alarm"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "alarm": alarm})
}

func (h *AlarmHandler) UpdateAlarm(c *fiber.Ctx) error {
	alarmID, err := uuid.Parse(c.Params("alarm_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid alarm ID"})
	}

	var req UpdateAlarmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	alarm, err := h.alarmService.Update(c.Params("device_id"), alarmID, &req)
	if err != nil {
		if errors.Is(err, ErrAlarmNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		if errors.Is(err, ErrInvalidTime) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to update alarm"})
	}

	return c.JSON(fiber.Map{"success": true, "alarm": alarm})
}

func (h *AlarmHandler) DeleteAlarm(c *fiber.Ctx) error {
	alarmID, err := uuid.Parse(c.Params("alarm_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid alarm ID"})
	}

	if err := h.alarmService.Delete(c.Params("device_id"), alarmID); err != nil {
		if errors.Is(err, ErrAlarmNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to delete alarm"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Alarm deleted successfully"})
}

func (h *AlarmHandler) ToggleAlarm(c *fiber.Ctx) error {
	alarmID, err := uuid.Parse(c.Params("alarm_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid alarm ID"})
	}

	alarm, err := h.alarmService.Toggle(c.Params("device_id"), alarmID)
	if err != nil {
		if errors.Is(err, ErrAlarmNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to toggle alarm"})
	}

	return c.JSON(fiber.Map{"success": true, "alarm": alarm})
}

func (h *AlarmHandler) NextAlarm(c *fiber.Ctx) error {
	alarm, fireAt, err := h.alarmService.Next(c.Params("device_id"), time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to compute next alarm"})
	}

	resp := NextAlarmResponse{NextAlarm: alarm}
	if alarm != nil {
		millis := time.Until(fireAt).Milliseconds()
		resp.TimeUntil = &millis
	}
	return c.JSON(resp)
}
