package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/classtime/internal/model"
)

// tokenCookieName はセッショントークンを運搬するCookieの名前。
const tokenCookieName = "token"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// BeginLogin は同意画面URLを返す。originが非空ならstateを生成して紐付ける。
	BeginLogin(origin string) string
	// ConsumeState はstateをリダイレクト元originに解決する（単一使用）。
	ConsumeState(state string) (origin string, ok bool)
	// HandleCallback は認可コードを交換し、ログインまたは登録してトークンを返す。
	HandleCallback(ctx context.Context, code string) (*model.Account, string, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	WebappBase        string // stateなしコールバックのリダイレクト先
	CookieDomain      string
	CookieSecure      bool
	TokenCookieMaxAge int // トークンCookieの有効期間（秒）
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	if config.TokenCookieMaxAge <= 0 {
		config.TokenCookieMaxAge = 3600
	}
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Start はOAuthフローを開始し、同意画面へリダイレクトする。
// GET /oauthlogin/start?origin=https://app.example.net
// originが指定された場合はstate値を生成し、コールバック後のリダイレクト先として
// 関連付ける。originが不正な形式の場合は400を返す。
func (h *AuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	origin := r.URL.Query().Get("origin")
	if origin != "" && !validOrigin(origin) {
		writeError(w, model.NewInvalidRequestError("origin must be an absolute http(s) URL"))
		return
	}

	consentURL := h.service.BeginLogin(origin)
	http.Redirect(w, r, consentURL, http.StatusTemporaryRedirect)
}

// Catch はOAuthコールバックを処理する。
// GET /oauthlogin/catch?code=xxx&state=yyy
// 成功時は {origin}/?t={token} にリダイレクトし、トークンCookieを設定する。
// originはstateから解決し、stateなしの場合は設定のWebappBaseを使う。
func (h *AuthHandler) Catch(w http.ResponseWriter, r *http.Request) {
	// 1. 認可コードの確認。stateは単一使用なので、コード欠落のリクエストで
	// stateを消費してしまうと再試行が通らなくなる。安価な検査を先に行う。
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, model.NewInvalidRequestError("authorization code is required"))
		return
	}

	// 2. stateの解決（提示された場合のみ）。未知・期限切れ・再利用は拒否する。
	origin := h.config.WebappBase
	if state := r.URL.Query().Get("state"); state != "" {
		resolved, ok := h.service.ConsumeState(state)
		if !ok {
			slog.Warn("oauth state unknown or expired")
			writeError(w, model.NewInvalidRequestError("unknown or expired state"))
			return
		}
		origin = resolved
	}

	// 3. 交換・解決・ログインまたは登録
	_, token, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}

	// 4. トークンはボディに載せず、Cookieとリダイレクトのクエリでのみ運搬する。
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.TokenCookieMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	redirect := strings.TrimSuffix(origin, "/") + "/?t=" + url.QueryEscape(token)
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}

// validOrigin はoriginが絶対http(s) URLであることを検証する。
func validOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
