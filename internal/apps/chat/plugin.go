package chat

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"github.com/lacrlabs/lacr-backend/internal/config"
	"gorm.io/gorm"
)

type ChatPlugin struct{}

func New() *ChatPlugin {
	return &ChatPlugin{}
}

func (p *ChatPlugin) ID() string { return "chat" }

func (p *ChatPlugin) Models() []interface{} {
	return []interface{}{
		&Message{},
	}
}

func (p *ChatPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config, _ *catalog.Registry) {
	chatService := NewChatService(db, NewResponder(cfg))
	chatHandler := NewChatHandler(chatService)

	router.Post("/gemini/:device_id/chat", chatHandler.SendMessage)
	router.Get("/gemini/:device_id/sessions", chatHandler.ListSessions)
	router.Get("/gemini/:device_id/session/:session_id/export", chatHandler.ExportSession)
	router.Get("/gemini/:device_id/session/:session_id", chatHandler.GetHistory)
	router.Delete("/gemini/:device_id/session/:session_id", chatHandler.DeleteSession)
	router.Get("/gemini/:device_id/search", chatHandler.Search)
	router.Get("/gemini/:device_id/recent", chatHandler.Recent)
	router.Get("/gemini/:device_id/stats", chatHandler.GetStats)
	router.Delete("/gemini/:device_id/history", chatHandler.ClearHistory)
}
