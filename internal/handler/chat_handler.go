package handler

import (
	"errors"

	"github.com/atmosferica/shop-assistant/internal/domain"
	"github.com/atmosferica/shop-assistant/internal/port"
	"github.com/atmosferica/shop-assistant/internal/service"
	"github.com/gofiber/fiber/v3"
)

// ChatHandler serves the widget chat endpoint.
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/chat", h.Chat)
}

// Chat answers one widget turn. Generation failures still return an
// apologetic response body so the widget never renders a bare error.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body struct {
		Message string               `json:"message"`
		History []domain.ChatMessage `json:"chatHistory"`
		Source  string               `json:"source"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message is required"})
	}

	resp, err := h.chatService.Chat(c.Context(), body.Message, body.History, body.Source)
	if err != nil {
		if errors.Is(err, port.ErrEmptyQuery) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message is required"})
		}
		payload := fiber.Map{"error": "chat generation failed"}
		if resp != nil {
			payload["response"] = resp.Response
			if resp.Translation != nil {
				payload["translationInfo"] = resp.Translation
			}
		}
		return c.Status(fiber.StatusInternalServerError).JSON(payload)
	}

	payload := fiber.Map{"response": resp.Response}
	if resp.Translation != nil {
		payload["translationInfo"] = resp.Translation
	}
	return c.JSON(payload)
}
