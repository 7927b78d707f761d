package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/classtime/internal/metrics"
	"github.com/hitoshi/classtime/internal/middleware"
	"github.com/hitoshi/classtime/internal/model"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	HealthChecker     HealthChecker
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// メトリクス
	StatusRecorder middleware.HTTPStatusRecorder
	Gatherer       prometheus.Gatherer

	// 認証
	AuthService   AuthServiceInterface
	Authenticator middleware.TokenAuthenticator
	AuthConfig    AuthHandlerConfig

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(経路別)
//
// OAuthフロー（/oauthlogin/*）は専用の厳しめのレート制限を受ける。
// /user/fromtoken はトークン認証ミドルウェアを通過する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.StatusRecorder))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	userHandler := NewUserHandler(deps.UserService)

	// ステータスチェック
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		writePayload(w, http.StatusOK, model.NewPayload("OK", nil))
	})

	// ヘルスチェック（DB疎通）
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			writePayload(w, http.StatusServiceUnavailable, model.NewPayload("unavailable", nil))
			return
		}
		writePayload(w, http.StatusOK, model.NewPayload("OK", nil))
	})

	// Prometheusスクレイプ
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// OAuthフロー（専用レート制限）
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.OAuthMiddleware())

		r.Route("/oauthlogin", func(r chi.Router) {
			r.Get("/start", authHandler.Start)
			r.Get("/catch", authHandler.Catch)
		})
	})

	// アカウント参照（API全般レート制限）
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/user", func(r chi.Router) {
			r.With(middleware.NewTokenAuthMiddleware(deps.Authenticator)).
				Get("/fromtoken", userHandler.FromToken)
			r.Get("/fromid", userHandler.FromID)
		})

		// デバッグ用の一覧
		r.Route("/debug", func(r chi.Router) {
			r.Get("/students", userHandler.ListStudents)
			r.Get("/instructors", userHandler.ListInstructors)
		})
	})

	// その他は404
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
			Code:     "NOT_FOUND",
			Message:  "指定されたパスは存在しません: " + req.URL.Path,
			Category: "validation",
			Action:   "リクエストパスを確認してください。",
		})
	})

	return r
}
