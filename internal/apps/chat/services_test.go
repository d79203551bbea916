package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// failingResponder always errors so the canned fallback path is exercised.
type failingResponder struct{}

func (failingResponder) Model() string { return "flaky-model" }

func (failingResponder) Respond(context.Context, []Message, string) (string, error) {
	return "", fmt.Errorf("model unavailable")
}

func newTestService(t *testing.T, responder Responder) (*ChatService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Message{}))
	return NewChatService(db, responder), db
}

func TestCannedResponderKeywords(t *testing.T) {
	responder := CannedResponder{}

	reply, err := responder.Respond(context.Background(), nil, "Hello there")
	require.NoError(t, err)
	assert.Contains(t, reply, "Hello")

	reply, err = responder.Respond(context.Background(), nil, "thank you so much")
	require.NoError(t, err)
	assert.Contains(t, reply, "welcome")

	reply, err = responder.Respond(context.Background(), nil, "goodbye!")
	require.NoError(t, err)
	assert.Contains(t, reply, "Goodbye")

	reply, err = responder.Respond(context.Background(), nil, "something unmatched")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
}

func TestSendPersistsBothTurns(t *testing.T) {
	service, db := newTestService(t, CannedResponder{})

	_, _, err := service.Send(context.Background(), "dev-1", &SendMessageRequest{})
	assert.ErrorIs(t, err, ErrMessageRequired)

	sessionID, messages, err := service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "hello robot"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sessionID, "session_"))
	require.Len(t, messages, 2)
	assert.Equal(t, RoleUser, messages[0].Role)
	assert.Equal(t, "hello robot", messages[0].Content)
	assert.Equal(t, RoleAssistant, messages[1].Role)
	assert.NotEmpty(t, messages[1].Content)
	assert.Equal(t, "canned", messages[1].Model)

	var count int64
	require.NoError(t, db.Model(&Message{}).Where("device_id = ?", "dev-1").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSendKeepsSession(t *testing.T) {
	service, _ := newTestService(t, CannedResponder{})

	sessionID, _, err := service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "first"})
	require.NoError(t, err)

	again, _, err := service.Send(context.Background(), "dev-1", &SendMessageRequest{
		Message:   "second",
		SessionID: sessionID,
	})
	require.NoError(t, err)
	assert.Equal(t, sessionID, again)

	history, err := service.History("dev-1", sessionID, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "first", history[0].Content)
	assert.Equal(t, "second", history[2].Content)
}

func TestSendFallsBackWhenResponderFails(t *testing.T) {
	service, _ := newTestService(t, failingResponder{})

	_, messages, err := service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "hello"})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.NotEmpty(t, messages[1].Content)
	// The stored model records which responder actually answered.
	assert.Equal(t, "canned", messages[1].Model)
}

func TestSessions(t *testing.T) {
	service, _ := newTestService(t, CannedResponder{})

	first, _, err := service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "older session"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, _, err := service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "newer session", SessionID: first + "_b"})
	require.NoError(t, err)

	sessions, err := service.Sessions("dev-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second, sessions[0].SessionID)
	assert.Equal(t, int64(2), sessions[0].MessageCount)
	assert.Greater(t, sessions[0].TotalTokens, int64(0))
}

func TestSearch(t *testing.T) {
	service, _ := newTestService(t, CannedResponder{})

	_, err := service.Search("dev-1", "", 0)
	assert.ErrorIs(t, err, ErrQueryRequired)

	_, _, err = service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "remind me about the dentist"})
	require.NoError(t, err)
	_, _, err = service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "what is the weather"})
	require.NoError(t, err)

	results, err := service.Search("dev-1", "dentist", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "dentist")

	results, err = service.Search("dev-2", "dentist", 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStats(t *testing.T) {
	service, _ := newTestService(t, CannedResponder{})

	stats, err := service.Stats("dev-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalMessages)

	sessionID, _, err := service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "hello"})
	require.NoError(t, err)
	_, _, err = service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "hello again", SessionID: sessionID})
	require.NoError(t, err)
	_, _, err = service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "new session"})
	require.NoError(t, err)

	stats, err = service.Stats("dev-1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.TotalMessages)
	assert.Equal(t, int64(2), stats.TotalSessions)
	assert.Greater(t, stats.TotalTokens, int64(0))
}

func TestExport(t *testing.T) {
	service, _ := newTestService(t, CannedResponder{})

	sessionID, _, err := service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "export me"})
	require.NoError(t, err)

	export, err := service.Export("dev-1", sessionID)
	require.NoError(t, err)
	assert.Equal(t, sessionID, export.SessionID)
	require.Len(t, export.Messages, 2)
	assert.Equal(t, RoleUser, export.Messages[0].Type)
	assert.Equal(t, "export me", export.Messages[0].Message)
}

func TestDeleteSessionAndClearHistory(t *testing.T) {
	service, _ := newTestService(t, CannedResponder{})

	sessionID, _, err := service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "one"})
	require.NoError(t, err)
	_, _, err = service.Send(context.Background(), "dev-1", &SendMessageRequest{Message: "two"})
	require.NoError(t, err)
	_, _, err = service.Send(context.Background(), "dev-2", &SendMessageRequest{Message: "other device"})
	require.NoError(t, err)

	deleted, err := service.DeleteSession("dev-1", sessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = service.ClearHistory("dev-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	stats, err := service.Stats("dev-2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalMessages)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens("hi"))
	assert.Equal(t, 3, estimateTokens("twelve chars"))
}
