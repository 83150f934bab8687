package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/chatbridge/internal/auth"
	"github.com/hitoshi/chatbridge/internal/middleware"
	"github.com/hitoshi/chatbridge/internal/model"
)

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	CreateSession(ctx context.Context, user *model.User, name string) (*auth.SessionResult, error)
	ListSessions(ctx context.Context, user *model.User) ([]*model.Session, error)
}

// SessionHandler はチャットセッション管理のHTTPハンドラー。
type SessionHandler struct {
	service SessionServiceInterface
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service SessionServiceInterface) *SessionHandler {
	return &SessionHandler{service: service}
}

type createSessionRequest struct {
	Name string `json:"name"`
}

type sessionResponse struct {
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSession は認証済みユーザーのセッションを作成する。
// ボディは省略可能。所有者はトークンのユーザーで固定される。
// POST /session
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, model.NewInvalidTokenError())
		return
	}

	var req createSessionRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	result, err := h.service.CreateSession(r.Context(), user, req.Name)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListSessions は認証済みユーザーのセッション一覧を返す。
// GET /sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, model.NewInvalidTokenError())
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), user)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	resp := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		resp[i] = sessionResponse{
			SessionID: s.ID,
			Name:      s.Name,
			CreatedAt: s.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
