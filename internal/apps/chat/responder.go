package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/lacrlabs/lacr-backend/internal/config"
)

const systemPrompt = "You are the voice of a small companion robot. " +
	"Reply warmly and briefly, in at most three sentences, " +
	"like a friend who lives on the user's desk."

// Responder produces the assistant half of a conversation.
type Responder interface {
	Respond(ctx context.Context, history []Message, message string) (string, error)
	Model() string
}

// GeminiResponder talks to the Gemini API, carrying the session history
// as conversation context.
type GeminiResponder struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiResponder(cfg *config.Config) (*GeminiResponder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiResponder{
		client:  client,
		model:   cfg.GeminiModel,
		timeout: cfg.GeminiTimeout,
	}, nil
}

func (r *GeminiResponder) Model() string { return r.model }

func (r *GeminiResponder) Respond(ctx context.Context, history []Message, message string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(systemPrompt, genai.RoleUser)}
	for _, msg := range history {
		var role genai.Role = genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(0.7)),
		MaxOutputTokens: 2048,
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	response, err := r.client.Models.GenerateContent(ctx, r.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("gemini returned empty response")
	}
	return text.String(), nil
}

// CannedResponder answers from a fixed repertoire. It backs the chat
// endpoint when no API key is configured and serves as the fallback when
// the live model fails.
type CannedResponder struct{}

var cannedResponses = []string{
	"That's an interesting point! Can you tell me more about that?",
	"I understand what you're saying. How does that make you feel?",
	"That's a great question. Let me think about that for a moment.",
	"I see your perspective. Have you considered looking at it from another angle?",
	"That's fascinating! What led you to that conclusion?",
	"I appreciate you sharing that with me. What's your next step?",
	"That's a complex topic. What aspect interests you most?",
	"I hear what you're saying. How can I help you with that?",
	"That's a thoughtful observation. What do you think might happen next?",
	"I understand. Is there anything specific you'd like to explore further?",
}

func (CannedResponder) Model() string { return "canned" }

func (CannedResponder) Respond(_ context.Context, _ []Message, message string) (string, error) {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "hello"), strings.Contains(lower, "hi"):
		return "Hello! How are you doing today? I'm here to chat and help with anything you need.", nil
	case strings.Contains(lower, "how are you"):
		return "I'm doing well, thank you for asking! I'm here and ready to have a great conversation with you.", nil
	case strings.Contains(lower, "thank"):
		return "You're very welcome! I'm glad I could help. Is there anything else you'd like to talk about?", nil
	case strings.Contains(lower, "bye"):
		return "Goodbye! It was great chatting with you. Feel free to come back anytime!", nil
	case strings.Contains(lower, "help"):
		return "I'm here to help! I can chat about almost anything - your thoughts, feelings, ideas, or just about life in general. What would you like to talk about?", nil
	}

	return cannedResponses[int(time.Now().UnixNano())%len(cannedResponses)], nil
}

// NewResponder picks the live model when configured, otherwise the canned one.
func NewResponder(cfg *config.Config) Responder {
	if cfg.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, chat responses will use canned replies")
		return CannedResponder{}
	}

	responder, err := NewGeminiResponder(cfg)
	if err != nil {
		slog.Error("Failed to initialize Gemini client, falling back to canned replies", "error", err)
		return CannedResponder{}
	}
	return responder
}
