package tasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type TaskHandler struct {
	taskService *TaskService
}

func NewTaskHandler(taskService *TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.taskService.List(c.Params("device_id"))
	return h.respondList(c, tasks, err)
}

func (h *TaskHandler) ListByPriority(c *fiber.Ctx) error {
	tasks, err := h.taskService.ListByPriority(c.Params("device_id"), c.Params("priority"))
	if errors.Is(err, ErrInvalidPriority) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
	}
	return h.respondList(c, tasks, err)
}

func (h *TaskHandler) ListCompleted(c *fiber.Ctx) error {
	tasks, err := h.taskService.ListCompleted(c.Params("device_id"))
	return h.respondList(c, tasks, err)
}

func (h *TaskHandler) ListPending(c *fiber.Ctx) error {
	tasks, err := h.taskService.ListPending(c.Params("device_id"))
	return h.respondList(c, tasks, err)
}

func (h *TaskHandler) ListOverdue(c *fiber.Ctx) error {
	tasks, err := h.taskService.ListOverdue(c.Params("device_id"), time.Now())
	return h.respondList(c, tasks, err)
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	task, err := h.taskService.Create(c.Params("device_id"), &req)
	if err != nil {
		if errors.Is(err, ErrTitleRequired) || errors.Is(err, ErrInvalidPriority) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to create task"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "task": task})
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("task_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid task ID"})
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	task, err := h.taskService.Update(c.Params("device_id"), taskID, &req)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		if errors.Is(err, ErrTitleRequired) || errors.Is(err, ErrInvalidPriority) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to update task"})
	}

	return c.JSON(fiber.Map{"success": true, "task": task})
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("task_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid task ID"})
	}

	task, err := h.taskService.Delete(c.Params("device_id"), taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to delete task"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Task deleted successfully", "task": task})
}

func (h *TaskHandler) ToggleTask(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("task_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid task ID"})
	}

	task, err := h.taskService.Toggle(c.Params("device_id"), taskID)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to toggle task"})
	}

	return c.JSON(fiber.Map{"success": true, "task": task})
}

func (h *TaskHandler) BulkUpdate(c *fiber.Ctx) error {
	var req BulkTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	updated, notFound, err := h.taskService.Bulk(c.Params("device_id"), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidBulk) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to apply bulk action"})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       fmt.Sprintf("Bulk %s completed", req.Action),
		"updated_tasks": updated,
		"not_found_ids": notFound,
	})
}

func (h *TaskHandler) respondList(c *fiber.Ctx, tasks []Task, err error) error {
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to fetch tasks"})
	}
	return c.JSON(fiber.Map{"tasks": tasks})
}
