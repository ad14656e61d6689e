package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/foodjournal/internal/auth"
	"github.com/hitoshi/foodjournal/internal/client"
	"github.com/hitoshi/foodjournal/internal/config"
	"github.com/hitoshi/foodjournal/internal/dashboard"
	"github.com/hitoshi/foodjournal/internal/database"
	"github.com/hitoshi/foodjournal/internal/handler"
	"github.com/hitoshi/foodjournal/internal/identity"
	"github.com/hitoshi/foodjournal/internal/logger"
	"github.com/hitoshi/foodjournal/internal/metrics"
	"github.com/hitoshi/foodjournal/internal/middleware"
	"github.com/hitoshi/foodjournal/internal/note"
	"github.com/hitoshi/foodjournal/internal/repository"
	"github.com/hitoshi/foodjournal/internal/security"
	"github.com/hitoshi/foodjournal/internal/toolserver"
	"github.com/hitoshi/foodjournal/internal/tui"
	"github.com/hitoshi/foodjournal/internal/user"
	"github.com/hitoshi/foodjournal/internal/worker/cleanup"
)

// Version はビルド時に -ldflags で上書きされる。
var Version = "dev"

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// healthcheck と tui はサーバー設定を必要としないため、フル初期化をスキップする
	switch cmd {
	case CommandHealthcheck:
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	case CommandTUI:
		return runTUI(ctx, config.LoadClient())
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("version", Version),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("notes_backend", cfg.NotesBackend),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// openDatabase はPostgreSQLに接続して疎通を確認する。
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Ping(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// openNoteRepository はNOTES_BACKENDに応じたノートリポジトリを返す。
// 返されるclose関数は終了時に呼ぶこと。
func openNoteRepository(ctx context.Context, cfg *config.Config, db *sql.DB) (repository.NoteRepository, func(), error) {
	if cfg.NotesBackend != config.NotesBackendMongo {
		return repository.NewPostgresNoteRepo(db), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	mdb, err := database.ConnectMongo(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewMongoNoteRepo(mdb)
	if err := repo.EnsureIndexes(connectCtx); err != nil {
		_ = mdb.Client().Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
	}

	slog.Info("mongo notes backend connected", slog.String("database", cfg.MongoDatabase))
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mdb.Client().Disconnect(ctx); err != nil {
			slog.Error("failed to disconnect mongo", slog.String("error", err.Error()))
		}
	}
	return repo, closeFn, nil
}

// rateLimiterConfig は設定値（req/min）からレートリミッターの設定を組み立てる。
func rateLimiterConfig(cfg *config.Config) middleware.RateLimiterConfig {
	rl := middleware.DefaultRateLimiterConfig()
	if cfg.RateLimitGeneral > 0 {
		rl.GeneralRate = middleware.PerMinute(cfg.RateLimitGeneral)
		rl.GeneralBurst = cfg.RateLimitGeneral
	}
	if cfg.RateLimitNoteWrite > 0 {
		rl.NoteWriteRate = middleware.PerMinute(cfg.RateLimitNoteWrite)
		rl.NoteWriteBurst = cfg.RateLimitNoteWrite
	}
	return rl
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	noteRepo, closeNotes, err := openNoteRepository(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeNotes()

	// 3. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	renderer := note.NewRenderer(security.NewContentSanitizer())
	noteService := note.NewService(noteRepo, renderer, collector)
	dashboardService := dashboard.NewService(noteRepo, collector, dashboard.ServiceConfig{
		RecentLimit:  cfg.DashboardRecentLimit,
		Location:     cfg.DashboardLocation,
		FetchTimeout: cfg.NotesFetchTimeout,
	})

	oauthProvider := auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	authService := auth.NewService(
		oauthProvider, userRepo, sessionRepo,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	userService := user.NewService(userRepo, sessionRepo, noteRepo)

	// 5. HTTP層の部品
	cookies := middleware.NewSessionCookie(cfg.SessionSecret, middleware.SessionCookieConfig{
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
		MaxAge: cfg.SessionMaxAge,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimiterConfig(cfg))
	defer rateLimiter.Stop()

	mcpHandler := toolserver.NewHTTPHandler(toolserver.NewServer(dashboardService, noteService, Version))

	// 6. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		SessionFinder:     sessionRepo,
		SessionCookie:     cookies,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		RateLimiter: rateLimiter,

		HealthChecker:  db,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:      cfg.BaseURL,
			CookieSecure: cfg.CookieSecure,
		},

		NoteService:      handler.NewNoteServiceAdapter(noteService),
		DashboardService: dashboardService,
		UserService:      handler.NewUserServiceAdapter(userService),

		MCPHandler: mcpHandler,
	}

	router := handler.NewRouter(deps)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションの削除をSESSION_CLEANUP_INTERVALごとに実行する。
func runWorker(ctx context.Context, cfg *config.Config) error {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	job := cleanup.NewSessionCleanupJob(db, slog.Default())

	slog.Info("worker starting",
		slog.Duration("session_cleanup_interval", cfg.SessionCleanupInterval),
	)

	job.Start(ctx, cfg.SessionCleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runTUI は端末クライアントを起動する。
// 標準出力は画面描画に使うため、ログはTUI_LOG_FILEに出力する。
func runTUI(ctx context.Context, cfg *config.ClientConfig) error {
	f, err := os.OpenFile(cfg.TUILogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	log := logger.SetupDefault(f, logger.ParseLevel(os.Getenv("LOG_LEVEL")))
	log.Info("starting terminal client",
		slog.String("version", Version),
		slog.String("api_base_url", cfg.APIBaseURL),
		slog.Bool("has_session", cfg.SessionToken != ""),
	)

	apiClient := client.New(&http.Client{Timeout: 15 * time.Second}, cfg.APIBaseURL, cfg.SessionToken, log)
	watcher := client.NewSessionWatcher(apiClient, cfg.AuthPollInterval, log)

	observer := identity.NewObserver(watcher)
	defer observer.Close()

	return tui.Run(ctx, tui.Options{
		API:      apiClient,
		Identity: observer,
		Logger:   log,
	})
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	httpClient := &http.Client{Timeout: 5 * time.Second}

	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
