package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/scoretracker/internal/middleware"
)

// Pinger はヘルスチェックで使用するDB疎通確認のインターフェース。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionValidator  middleware.SessionValidator
	UserLoader        middleware.UserLoader
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// ヘルスチェック時にDB疎通を確認する（nilの場合はプロセス生存のみ）
	DB Pinger

	// メトリクス（nilの場合は/metricsを公開しない）
	MetricsMiddleware func(next http.Handler) http.Handler
	MetricsHandler    http.Handler

	// サービス
	AuthService  AuthServiceInterface
	AuthConfig   AuthHandlerConfig
	ScoreService ScoreServiceInterface
	UserService  UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → SecurityHeaders → Logging → Metrics → Recovery
//	→（認証ルート）AuthRateLimit
//	→（セッションルート）Session → GeneralRateLimit
//	→（Adminルート）さらにRequireAdmin
//
// 認証ルート（/auth/register, /auth/login, /auth/logout, /auth/me）は
// セッションミドルウェアの外に配置する。ログアウトは無効なセッションでも
// 成功させる必要があるため。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.MetricsMiddleware != nil {
		r.Use(deps.MetricsMiddleware)
	}
	r.Use(middleware.NewRecoveryMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	scoreHandler := NewScoreHandler(deps.ScoreService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// 認証ルート。登録とログインにはIP単位のレート制限を適用する
	r.Route("/auth", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/register", authHandler.Register)
			r.With(deps.RateLimiter.AuthMiddleware()).Post("/login", authHandler.Login)
		} else {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		}
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionValidator, deps.UserLoader))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// スコア管理
		r.Route("/scores", func(r chi.Router) {
			r.Get("/", scoreHandler.ListOwn)
			r.Post("/", scoreHandler.Create)
			r.Delete("/{id}", scoreHandler.Delete)

			// GET /scores/user/{userId} - Adminによる任意ユーザーのスコア閲覧
			r.With(middleware.RequireAdmin).Get("/user/{userId}", scoreHandler.ListForUser)
		})

		// ユーザー管理（Admin専用）
		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/", userHandler.List)
			r.Delete("/{id}", userHandler.Delete)
		})
	})

	return r
}

// newHealthHandler はロードバランサーとコンテナヘルスチェック用のハンドラーを返す。
// GET /health
// dbが指定されている場合はDB疎通も確認し、失敗時は503を返す。
func newHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
				return
			}
		}

		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
