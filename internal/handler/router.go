package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/foodjournal/internal/metrics"
	"github.com/hitoshi/foodjournal/internal/middleware"
)

// HealthChecker は/healthが依存先の疎通確認に使うインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	SessionCookie     *middleware.SessionCookie
	CORSAllowedOrigin string
	CSRF              middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter

	// 運用
	HealthChecker  HealthChecker
	Metrics        metrics.MetricsCollector
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ノート・ダッシュボード
	NoteService      NoteServiceInterface
	DashboardService DashboardServiceInterface

	// ユーザー
	UserService UserServiceInterface

	// MCPツール（nilの場合は/mcpを公開しない）
	MCPHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Metrics → Logging → SecurityHeaders → CORS
//	  /api/*: Session → RateLimit(General) → CSRF [→ RateLimit(NoteWrite)]
//	  /mcp:   Session → RateLimit(General)
//
// /auth/*、/health、/metricsはセッション不要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.Metrics != nil {
		r.Use(metrics.StatusMiddleware(deps.Metrics))
	}
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger, "/health", "/metrics"))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.SessionCookie, deps.AuthConfig)
	noteHandler := NewNoteHandler(deps.NoteService)
	dashboardHandler := NewDashboardHandler(deps.DashboardService)
	userHandler := NewUserHandler(deps.UserService, deps.SessionCookie)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF).ServeHTTP)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionCookie, deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		if deps.MCPHandler != nil {
			r.Handle("/mcp", deps.MCPHandler)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewCSRFMiddleware(deps.CSRF))
			writeLimit := deps.RateLimiter.NoteWriteMiddleware()

			r.Get("/api/dashboard", dashboardHandler.GetDashboard)

			r.Route("/api/notes", func(r chi.Router) {
				r.Get("/", noteHandler.ListNotes)
				r.With(writeLimit).Post("/", noteHandler.CreateNote)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", noteHandler.GetNote)
					r.With(writeLimit).Put("/", noteHandler.UpdateNote)
					r.With(writeLimit).Delete("/", noteHandler.DeleteNote)
					r.With(writeLimit).Put("/tags", noteHandler.ReplaceTags)
				})
			})

			r.Delete("/api/users/me", userHandler.Withdraw)
		})
	})

	return r
}

// healthHandler はプロセスとDBの疎通を確認するハンドラーを返す。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
