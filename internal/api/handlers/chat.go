package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/matiasleandrokruk/charla/internal/domain/chat"
)

// ChatService is the gateway service as the handler sees it.
type ChatService interface {
	Reply(ctx context.Context, msgs []chat.Message) (string, error)
}

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	chatService ChatService
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(chatService ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat decodes the message sequence, runs one gateway call and writes the
// reply. Validation problems are 400s; provider and runtime failures are
// 500s carrying the provider's message when one is available.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.chatService.Reply(r.Context(), req.Messages)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessages) || errors.Is(err, chat.ErrLastNotUser) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
