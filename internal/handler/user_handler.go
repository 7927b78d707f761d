package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/hitoshi/classtime/internal/middleware"
	"github.com/hitoshi/classtime/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// AccountByID は内部IDでアカウントを返す。見つからない場合はACCOUNT_NOT_FOUND。
	AccountByID(ctx context.Context, id int64) (*model.Account, error)
	// ListAccounts は指定ロールの全アカウントを返す。
	ListAccounts(ctx context.Context, role model.Role) ([]*model.Account, error)
}

// UserHandler はアカウント参照系のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// FromToken はトークンに紐付くアカウントを返す。
// GET /user/fromtoken（要 X-App-Token ヘッダー）
// トークン検証はミドルウェアで行われ、アカウントはコンテキストから取得する。
func (h *UserHandler) FromToken(w http.ResponseWriter, r *http.Request) {
	acc, err := middleware.AccountFromContext(r.Context())
	if err != nil {
		writeError(w, model.NewInvalidTokenError())
		return
	}

	writePayload(w, http.StatusOK, model.NewPayload("OK", acc))
}

// FromID は内部IDでアカウントを返す。管理・デバッグ用途。
// GET /user/fromid?id=123
func (h *UserHandler) FromID(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, model.NewInvalidRequestError("id must be a positive integer"))
		return
	}

	acc, err := h.service.AccountByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writePayload(w, http.StatusOK, model.NewPayload("OK", acc))
}

// ListStudents は全生徒アカウントを返す。デバッグ用途。
// GET /debug/students
func (h *UserHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, model.RoleStudent)
}

// ListInstructors は全教員アカウントを返す。デバッグ用途。
// GET /debug/instructors
func (h *UserHandler) ListInstructors(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, model.RoleInstructor)
}

func (h *UserHandler) listByRole(w http.ResponseWriter, r *http.Request, role model.Role) {
	accounts, err := h.service.ListAccounts(r.Context(), role)
	if err != nil {
		writeError(w, err)
		return
	}

	writePayload(w, http.StatusOK, model.NewPayload("OK", accounts))
}
