package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/chatbridge/internal/middleware"
	"github.com/hitoshi/chatbridge/internal/model"
)

// ChatServiceInterface はチャットハンドラーが必要とするサービスインターフェース。
type ChatServiceInterface interface {
	Chat(ctx context.Context, session *model.Session, messages []model.Message) ([]model.Message, error)
}

// ChatHandler はチャットのHTTPハンドラー。
type ChatHandler struct {
	service ChatServiceInterface
}

// NewChatHandler はChatHandlerを生成する。
func NewChatHandler(service ChatServiceInterface) *ChatHandler {
	return &ChatHandler{service: service}
}

type chatRequest struct {
	Messages []model.Message `json:"messages"`
}

type chatResponse struct {
	Messages []model.Message `json:"messages"`
}

// Chat は会話をエージェントに転送し、応答を返す。
// POST /chat (セッショントークン必須)
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, model.NewInvalidTokenError())
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	replies, err := h.service.Chat(r.Context(), session, req.Messages)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Messages: replies})
}
