package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/lacrlabs/lacr-backend/internal/database"
	"gorm.io/gorm"
)

var (
	ErrMessageRequired = errors.New("message is required")
	ErrQueryRequired   = errors.New("search query is required")
)

// historyWindow caps how many prior turns are replayed to the model.
const historyWindow = 20

type ChatService struct {
	db        *gorm.DB
	responder Responder
	fallback  CannedResponder
}

func NewChatService(db *gorm.DB, responder Responder) *ChatService {
	return &ChatService{db: db, responder: responder}
}

// Send persists the user message, asks the responder for a reply with the
// session history as context, and persists the assistant message.
func (s *ChatService) Send(ctx context.Context, deviceID string, req *SendMessageRequest) (string, []Message, error) {
	if req.Message == "" {
		return "", nil, ErrMessageRequired
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session_%d", time.Now().UnixMilli())
	}

	var history []Message
	err := s.db.Scopes(database.ForDevice(deviceID)).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC").Limit(historyWindow).Find(&history).Error
	if err != nil {
		return "", nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	// Oldest first for the model.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	userMessage := Message{
		DeviceID:   deviceID,
		SessionID:  sessionID,
		Role:       RoleUser,
		Content:    req.Message,
		TokensUsed: estimateTokens(req.Message),
	}
	if err := s.db.Create(&userMessage).Error; err != nil {
		return "", nil, fmt.Errorf("failed to save user message: %w", err)
	}

	started := time.Now()
	model := s.responder.Model()
	reply, err := s.responder.Respond(ctx, history, req.Message)
	if err != nil {
		slog.Warn("Chat responder failed, using canned reply", "error", err, "device_id", deviceID)
		reply, _ = s.fallback.Respond(ctx, history, req.Message)
		model = s.fallback.Model()
	}
	elapsed := time.Since(started).Milliseconds()

	assistantMessage := Message{
		DeviceID:       deviceID,
		SessionID:      sessionID,
		Role:           RoleAssistant,
		Content:        reply,
		TokensUsed:     estimateTokens(reply),
		ResponseTimeMs: elapsed,
		Model:          model,
	}
	if err := s.db.Create(&assistantMessage).Error; err != nil {
		return "", nil, fmt.Errorf("failed to save assistant message: %w", err)
	}

	return sessionID, []Message{userMessage, assistantMessage}, nil
}

func (s *ChatService) Sessions(deviceID string) ([]SessionSummary, error) {
	var sessions []SessionSummary
	err := s.db.Model(&Message{}).
		Scopes(database.ForDevice(deviceID)).
		Select("session_id, COUNT(*) as message_count, MIN(timestamp) as first_message, MAX(timestamp) as last_message, COALESCE(SUM(tokens_used),0) as total_tokens").
		Group("session_id").
		Order("last_message DESC").
		Scan(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	return sessions, nil
}

func (s *ChatService) History(deviceID, sessionID string, limit, offset int) ([]Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var messages []Message
	err := s.db.Scopes(database.ForDevice(deviceID)).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").Limit(limit).Offset(offset).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return messages, nil
}

func (s *ChatService) Search(deviceID, query string, limit int) ([]Message, error) {
	if query == "" {
		return nil, ErrQueryRequired
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var messages []Message
	err := s.db.Scopes(database.ForDevice(deviceID)).
		Where("content LIKE ?", "%"+query+"%").
		Order("timestamp DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search chat history: %w", err)
	}
	return messages, nil
}

// Recent returns the latest message of the most recently active sessions.
func (s *ChatService) Recent(deviceID string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	sessions, err := s.Sessions(deviceID)
	if err != nil {
		return nil, err
	}
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}

	conversations := make([]Message, 0, len(sessions))
	for _, session := range sessions {
		var latest Message
		err := s.db.Scopes(database.ForDevice(deviceID)).
			Where("session_id = ?", session.SessionID).
			Order("timestamp DESC").First(&latest).Error
		if err != nil {
			continue
		}
		conversations = append(conversations, latest)
	}
	return conversations, nil
}

func (s *ChatService) Stats(deviceID string) (*ChatStats, error) {
	var row struct {
		TotalMessages   int64
		TotalTokens     int64
		AvgResponseTime float64
		TotalSessions   int64
	}
	err := s.db.Model(&Message{}).
		Scopes(database.ForDevice(deviceID)).
		Select("COUNT(*) as total_messages, COALESCE(SUM(tokens_used),0) as total_tokens, COALESCE(AVG(response_time_ms),0) as avg_response_time, COUNT(DISTINCT session_id) as total_sessions").
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute chat stats: %w", err)
	}

	return &ChatStats{
		TotalMessages:   row.TotalMessages,
		TotalTokens:     row.TotalTokens,
		AvgResponseTime: math.Round(row.AvgResponseTime),
		TotalSessions:   row.TotalSessions,
	}, nil
}

func (s *ChatService) Export(deviceID, sessionID string) (*SessionExport, error) {
	var messages []Message
	err := s.db.Scopes(database.ForDevice(deviceID)).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC").Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to export chat session: %w", err)
	}

	export := &SessionExport{
		SessionID:  sessionID,
		DeviceID:   deviceID,
		ExportDate: time.Now(),
		Messages:   make([]ExportedEntry, 0, len(messages)),
	}
	for _, msg := range messages {
		export.Messages = append(export.Messages, ExportedEntry{
			Type:       msg.Role,
			Message:    msg.Content,
			Timestamp:  msg.Timestamp,
			TokensUsed: msg.TokensUsed,
		})
	}
	return export, nil
}

func (s *ChatService) DeleteSession(deviceID, sessionID string) (int64, error) {
	result := s.db.Scopes(database.ForDevice(deviceID)).
		Where("session_id = ?", sessionID).Delete(&Message{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete chat session: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *ChatService) ClearHistory(deviceID string) (int64, error) {
	result := s.db.Scopes(database.ForDevice(deviceID)).Delete(&Message{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear chat history: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// estimateTokens approximates token usage at four characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}
