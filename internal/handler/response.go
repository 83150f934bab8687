package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hitoshi/chatbridge/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限サイズ。
// 3000文字のメッセージを数十件含む会話が収まる大きさにする。
const maxRequestBodyBytes = 1 << 20

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをJSONとしてデコードする。
// 解釈できないボディは400のAPIErrorとして返す。
// allowEmptyがtrueの場合、空のボディはゼロ値のまま成功とする。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	case errors.Is(err, io.EOF):
		return model.NewInvalidRequestError("Request body is required")
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return model.NewInvalidRequestError(fmt.Sprintf("Request body must not exceed %d bytes", maxErr.Limit))
	}
	return model.NewInvalidRequestError("Request body must be valid JSON")
}
