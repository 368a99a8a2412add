package handler

import (
	"errors"
	"time"

	"kasa-pos/internal/chat"
	"kasa-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AssistantHandler struct {
	service service.AssistantService
}

func NewAssistantHandler(s service.AssistantService) *AssistantHandler {
	return &AssistantHandler{service: s}
}

type AskRequest struct {
	Question string `json:"question"`
}

// Message is one entry of the chat transcript.
type Message struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Error     bool   `json:"error,omitempty"`
}

// Ask forwards the question to the assistant webhook. Webhook failures come
// back as an assistant message flagged error=true with status 200.
// POST /api/v1/assistant
func (h *AssistantHandler) Ask(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	resp, err := h.service.Ask(c.UserContext(), currentSession(c), req.Question)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return fail(c, err)
		}
		return c.JSON(Message{
			Sender:    "assistant",
			Content:   assistantFailure(err),
			Timestamp: time.Now().Format(time.RFC3339),
			Error:     true,
		})
	}

	ts := resp.Timestamp
	if ts == "" {
		ts = time.Now().Format(time.RFC3339)
	}
	return c.JSON(Message{Sender: "assistant", Content: resp.Content, Timestamp: ts})
}

func assistantFailure(err error) string {
	if errors.Is(err, chat.ErrBadResponse) {
		return "The assistant sent a reply that could not be read. Please try again."
	}
	return "The assistant is not reachable right now. Please try again later."
}
