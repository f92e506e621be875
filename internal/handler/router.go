package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/grocerstock/internal/database"
	"github.com/hitoshi/grocerstock/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenValidator    middleware.TokenValidator
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	StatusRecorder    middleware.StatusRecorder // nilの場合はステータスを記録しない
	MetricsHandler    http.Handler              // nilの場合は/metricsを公開しない

	// アカウント
	AuthService    AuthServiceInterface
	ProfileService ProfileServiceInterface

	ProductService   ProductServiceInterface
	InventoryService InventoryServiceInterface
	BarcodeService   BarcodeServiceInterface

	// ヘルスチェック
	DB database.Pinger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Logging → Metrics → Recovery → CORS → SecurityHeaders
//
// Bearer認証が必要なルートには Auth → RateLimit(General) を追加する。
// 認証不要のルートにはクライアントIP単位のRateLimit(Public)を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	authHandler := NewAuthHandler(deps.AuthService, deps.ProfileService)
	productHandler := NewProductHandler(deps.ProductService)
	inventoryHandler := NewInventoryHandler(deps.InventoryService)
	barcodeHandler := NewBarcodeHandler(deps.BarcodeService)
	healthHandler := NewHealthHandler(deps.DB)

	public := deps.RateLimiter.PublicMiddleware()
	bearer := chi.Chain(
		middleware.NewAuthMiddleware(deps.TokenValidator),
		deps.RateLimiter.GeneralMiddleware(),
	)

	// --- 運用 ---
	r.With(public).Get("/health", healthHandler.Health)
	r.With(public).Get("/api/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- アカウント ---
	r.Route("/api/auth", func(r chi.Router) {
		r.With(public).Post("/register", authHandler.Register)
		r.With(public).Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(bearer...)
			r.Get("/profile", authHandler.GetProfile)
			r.Put("/profile", authHandler.UpdateProfile)
			r.Post("/change-password", authHandler.ChangePassword)
		})
	})

	// --- 商品カタログ ---
	r.Route("/api/products", func(r chi.Router) {
		r.Use(bearer...)
		r.Get("/search", productHandler.Search)
		r.Get("/categories", productHandler.Categories)
		r.Post("/categorize", productHandler.Categorize)
		r.Post("/", productHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", productHandler.Get)
			r.Put("/", productHandler.Update)
			r.Delete("/", productHandler.Delete)
		})
	})

	// --- 在庫 ---
	r.Route("/api/inventory", func(r chi.Router) {
		r.Use(bearer...)
		r.Get("/", inventoryHandler.List)
		r.Post("/", inventoryHandler.Add)
		r.Get("/expiring", inventoryHandler.Expiring)
		r.Get("/suggestions", inventoryHandler.Suggestions)

		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", inventoryHandler.Update)
			r.Delete("/", inventoryHandler.Delete)
		})
	})

	// --- バーコード ---
	r.Route("/api/barcode", func(r chi.Router) {
		// 画像は認証なしで参照できる
		r.Group(func(r chi.Router) {
			r.Use(public)
			r.Get("/{code}/image", barcodeHandler.Image)
			r.Get("/{code}/download", barcodeHandler.Download)
		})

		r.Group(func(r chi.Router) {
			r.Use(bearer...)
			// 生成専用のレート制限を追加
			r.With(deps.RateLimiter.BarcodeGenerationMiddleware()).Post("/generate", barcodeHandler.Generate)
			r.Get("/my-barcodes", barcodeHandler.MyBarcodes)
			r.Get("/validate/{code}", barcodeHandler.Validate)
			r.Get("/{code}", barcodeHandler.Get)
			r.Delete("/{code}", barcodeHandler.Delete)
		})
	})

	return r
}
