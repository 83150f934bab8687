package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/chatbridge/internal/model"
)

// maxResponseBytes はエージェント応答ボディの読み取り上限。
const maxResponseBytes = 4 << 20

// respondRequest はエージェントへ送るリクエストボディ。
type respondRequest struct {
	Messages  []model.Message `json:"messages"`
	SessionID string          `json:"session_id"`
	UserID    int64           `json:"user_id"`
}

// respondResponse はエージェントから受け取るレスポンスボディ。
type respondResponse struct {
	Messages []model.Message `json:"messages"`
}

// HTTPClient はHTTP経由で外部エージェントを呼び出すクライアント。
type HTTPClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string
}

// NewHTTPClient はHTTPClientの新しいインスタンスを生成する。
// タイムアウトはhttpClient側で設定する。
func NewHTTPClient(httpClient *http.Client, logger *slog.Logger, endpoint string) *HTTPClient {
	return &HTTPClient{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
	}
}

// Respond は会話履歴をエージェントにPOSTし、応答の会話を返す。
// 200以外のステータスやJSONのパース失敗はエラーとして返す。
func (c *HTTPClient) Respond(ctx context.Context, messages []model.Message, sessionID string, userID int64) ([]model.Message, error) {
	body, err := json.Marshal(respondRequest{
		Messages:  messages,
		SessionID: sessionID,
		UserID:    userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "chatbridge/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("agent_call_failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("agent_returned_error_status",
			slog.String("session_id", sessionID),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, fmt.Errorf("agent returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read agent response: %w", err)
	}

	var result respondResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Error("agent_response_decode_failed",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to decode agent response: %w", err)
	}

	return result.Messages, nil
}

// compile-time interface check
var _ Agent = (*HTTPClient)(nil)
