// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/classtime/internal/middleware"
	"github.com/hitoshi/classtime/internal/model"
)

// writePayload は統一エンベロープをJSONで書き込む。
// Payload.Tokenは`json:"-"`によりボディには決して含まれない。
func writePayload(w http.ResponseWriter, statusCode int, payload *model.Payload) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode payload", slog.String("error", err.Error()))
	}
}

// statusForCode はエラーコードをHTTPステータスコードに対応付ける。
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeProviderFailure:
		return http.StatusBadGateway
	case model.ErrCodeIneligible:
		return http.StatusForbidden
	case model.ErrCodeConflict:
		return http.StatusConflict
	case model.ErrCodeInvalidToken:
		return http.StatusUnauthorized
	case model.ErrCodeAccountNotFound:
		return http.StatusNotFound
	default:
		// NO_EXTERNAL_ID、REGISTRATION_INCOMPLETE、および未分類のエラー
		return http.StatusInternalServerError
	}
}

// writeError はerrを統一エラーフォーマットに変換して書き込む。
// APIErrorでないエラーは詳細をログにのみ残し、一般的な500を返す。
func writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	code := model.ErrorCode(err)
	if code == "" {
		slog.Error("unclassified error reached response boundary",
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	// ErrorCodeが非空ならAPIErrorの取り出しは必ず成功する。
	apiErr = extractAPIError(err)
	status := statusForCode(code)
	if status >= 500 {
		slog.Error("request failed", slog.String("code", code), slog.String("error", err.Error()))
	}
	middleware.WriteErrorResponse(w, status, apiErr)
}

func extractAPIError(err error) *model.APIError {
	for err != nil {
		if apiErr, ok := err.(*model.APIError); ok {
			return apiErr
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
