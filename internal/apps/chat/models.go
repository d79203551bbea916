package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a companion conversation, user or assistant.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID       string    `gorm:"index:idx_chat_device_session,priority:1;not null" json:"device_id"`
	SessionID      string    `gorm:"index:idx_chat_device_session,priority:2;not null" json:"session_id"`
	Role           string    `gorm:"not null" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	TokensUsed     int       `json:"tokens_used"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Model          string    `json:"model,omitempty"`
	Timestamp      time.Time `gorm:"index" json:"timestamp"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	return nil
}

type SendMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// SessionSummary rolls up one conversation.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	MessageCount int64     `json:"message_count"`
	FirstMessage time.Time `json:"first_message"`
	LastMessage  time.Time `json:"last_message"`
	TotalTokens  int64     `json:"total_tokens"`
}

type ChatStats struct {
	TotalMessages   int64   `json:"total_messages"`
	TotalTokens     int64   `json:"total_tokens"`
	AvgResponseTime float64 `json:"avg_response_time"`
	TotalSessions   int64   `json:"total_sessions"`
}

// SessionExport is the full transcript of one session.
type SessionExport struct {
	SessionID  string          `json:"session_id"`
	DeviceID   string          `json:"device_id"`
	ExportDate time.Time       `json:"export_date"`
	Messages   []ExportedEntry `json:"messages"`
}

type ExportedEntry struct {
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	TokensUsed int       `json:"tokens_used"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
