package chat

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chatService *ChatService
}

func NewChatHandler(chatService *ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	sessionID, messages, err := h.chatService.Send(c.UserContext(), c.Params("device_id"), &req)
	if err != nil {
		if errors.Is(err, ErrMessageRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to process chat message"})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"session_id": sessionID,
		"messages":   messages,
		"response":   messages[len(messages)-1].Content,
	})
}

func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.chatService.Sessions(c.Params("device_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to fetch chat sessions"})
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	messages, err := h.chatService.History(c.Params("device_id"), c.Params("session_id"), limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to fetch chat history"})
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ChatHandler) Search(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	messages, err := h.chatService.Search(c.Params("device_id"), c.Query("query"), limit)
	if err != nil {
		if errors.Is(err, ErrQueryRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to search chat history"})
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ChatHandler) Recent(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	conversations, err := h.chatService.Recent(c.Params("device_id"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to fetch recent conversations"})
	}

	return c.JSON(fiber.Map{"conversations": conversations})
}

func (h *ChatHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.chatService.Stats(c.Params("device_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to compute chat stats"})
	}

	return c.JSON(fiber.Map{"stats": stats})
}

func (h *ChatHandler) ExportSession(c *fiber.Ctx) error {
	export, err := h.chatService.Export(c.Params("device_id"), c.Params("session_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to export chat session"})
	}

	return c.JSON(export)
}

func (h *ChatHandler) DeleteSession(c *fiber.Ctx) error {
	deleted, err := h.chatService.DeleteSession(c.Params("device_id"), c.Params("session_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to delete chat session"})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       fmt.Sprintf("Deleted %d messages from session", deleted),
		"deleted_count": deleted,
	})
}

func (h *ChatHandler) ClearHistory(c *fiber.Ctx) error {
	deleted, err := h.chatService.ClearHistory(c.Params("device_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: "Failed to clear chat history"})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       fmt.Sprintf("Deleted %d messages from chat history", deleted),
		"deleted_count": deleted,
	})
}
