// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/classtime/internal/model"
)

// AppTokenHeader はセッショントークンを運搬するリクエストヘッダー名。
const AppTokenHeader = "X-App-Token"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// accountContextKey はリクエストコンテキストに認証済みアカウントを格納するためのキー。
var accountContextKey = contextKey("account")

// accountHolderKey はロギングミドルウェアが設置するaccountHolderのキー。
var accountHolderKey = contextKey("accountHolder")

// accountHolder はリクエスト処理中に認証されたアカウントを外側のミドルウェアへ
// 伝えるための入れ物。コンテキストの値は内側から外側へ伝播しないため、
// ロギングミドルウェアがディスパッチ前に設置し、トークン認証が書き込む。
type accountHolder struct {
	account *model.Account
}

// TokenAuthenticator はトークンの検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Account, error)
}

// NewTokenAuthMiddleware はX-App-Tokenヘッダーからトークンを読み取り、
// 検証するミドルウェアを返す。検証時にトークンのlastusedが更新される。
// 認証済みアカウントをリクエストコンテキストに注入する。
// 無効トークンは401 Unauthorized（未認証であり、サーバーエラーではない）。
func NewTokenAuthMiddleware(authenticator TokenAuthenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(AppTokenHeader)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
				return
			}

			acc, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if model.ErrorCode(err) == model.ErrCodeInvalidToken {
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewInvalidTokenError())
					return
				}
				slog.Error("failed to authenticate token",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithAccount(r.Context(), acc)))
		})
	}
}

// AccountFromContext はリクエストコンテキストから認証済みアカウントを取得する。
// トークン認証ミドルウェアを通過したリクエストでのみ有効。
func AccountFromContext(ctx context.Context) (*model.Account, error) {
	acc, ok := ctx.Value(accountContextKey).(*model.Account)
	if !ok || acc == nil {
		return nil, fmt.Errorf("account not found in context")
	}
	return acc, nil
}

// ContextWithAccount はコンテキストにアカウントを注入する。
// ロギングミドルウェアのaccountHolderがコンテキストに設置されている場合は
// そちらにも書き込み、リクエストログのaccount_idとして記録されるようにする。
func ContextWithAccount(ctx context.Context, acc *model.Account) context.Context {
	if holder, ok := ctx.Value(accountHolderKey).(*accountHolder); ok {
		holder.account = acc
	}
	return context.WithValue(ctx, accountContextKey, acc)
}
