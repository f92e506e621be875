// Package app は設定の読み込み、依存関係のワイヤリング、サブコマンドの実行を担う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/grocerstock/internal/auth"
	"github.com/hitoshi/grocerstock/internal/barcode"
	"github.com/hitoshi/grocerstock/internal/catalog"
	"github.com/hitoshi/grocerstock/internal/config"
	"github.com/hitoshi/grocerstock/internal/database"
	"github.com/hitoshi/grocerstock/internal/handler"
	"github.com/hitoshi/grocerstock/internal/inventory"
	"github.com/hitoshi/grocerstock/internal/logger"
	"github.com/hitoshi/grocerstock/internal/metrics"
	"github.com/hitoshi/grocerstock/internal/middleware"
	"github.com/hitoshi/grocerstock/internal/product"
	"github.com/hitoshi/grocerstock/internal/repository"
	"github.com/hitoshi/grocerstock/internal/security"
	"github.com/hitoshi/grocerstock/internal/user"
)

const defaultHealthcheckPort = "5000"

// Init はアプリケーションの初期化を行う。
// 設定を読み込み、LOG_LEVEL・LOG_FORMATに従ってグローバルロガーをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にもログを使えるようにする
	logger.SetupDefault(w, logger.Options{Format: logger.FormatJSON})

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.UsesDefaultJWTSecret() {
		slog.Warn("JWT_SECRET_KEY is not set; using the built-in development key")
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = defaultHealthcheckPort
		}
		return runHealthcheck(healthcheckURL(port))
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db, 5*time.Second); err != nil {
		return err
	}
	slog.Info("database connection established")

	if cfg.AutoMigrate {
		if err := runMigrate(cfg); err != nil {
			return err
		}
	}

	router, rateLimiter := buildRouter(cfg, db, slog.Default())
	defer rateLimiter.Stop()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-stop:
	}

	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildRouter はリポジトリ、サービス、ミドルウェアを組み立ててルーターを返す。
// 返されたRateLimiterは呼び出し側で停止すること。
func buildRouter(cfg *config.Config, db *sql.DB, log *slog.Logger) (http.Handler, *middleware.RateLimiter) {
	// 1. リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	productRepo := repository.NewPostgresProductRepo(db)
	inventoryRepo := repository.NewPostgresInventoryRepo(db)
	barcodeRepo := repository.NewPostgresBarcodeRepo(db)

	// 2. メトリクス
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	// 3. 外部カタログ（SSRF対策済みクライアント経由）
	catalogClient := catalog.NewClient(
		security.NewSafeClient(cfg.CatalogTimeout),
		log,
		cfg.OpenFoodFactsAPIURL,
	)

	// 4. ドメインサービス
	tokens := auth.NewTokenManager(cfg.JWTSecretKey, cfg.JWTAccessTokenExpires)
	authService := auth.NewService(userRepo, tokens)
	userService := user.NewService(userRepo)
	productService := product.NewService(productRepo, catalogClient, collector)
	inventoryService := inventory.NewService(inventoryRepo, productRepo, collector)
	barcodeService := barcode.NewService(barcodeRepo, collector)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfigPerMinute(
		cfg.RateLimitGeneral, cfg.RateLimitBarcodeGen, cfg.RateLimitPublic,
	))

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		TokenValidator:    tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		StatusRecorder:    collector,
		MetricsHandler:    metrics.Handler(reg),

		AuthService:    authService,
		ProfileService: userService,

		ProductService:   productService,
		InventoryService: inventoryService,
		BarcodeService:   barcodeService,

		DB: db,
	})

	return router, rateLimiter
}

// runMigrate はデータベースマイグレーションを実行する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

func healthcheckURL(port string) string {
	return fmt.Sprintf("http://localhost:%s/api/health", port)
}

// runHealthcheck はdistroless環境でのDockerヘルスチェック用サブコマンド。
// ヘルスエンドポイントが200を返さなければエラーを返す。
func runHealthcheck(target string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
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
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
