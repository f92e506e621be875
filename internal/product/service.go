// Package product は商品マスタの検索・登録と外部カタログからの取り込みを提供する。
package product

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/grocerstock/internal/barcode"
	"github.com/hitoshi/grocerstock/internal/catalog"
	"github.com/hitoshi/grocerstock/internal/metrics"
	"github.com/hitoshi/grocerstock/internal/model"
	"github.com/hitoshi/grocerstock/internal/repository"
	"github.com/hitoshi/grocerstock/internal/security"
)

// SearchLimit はテキスト検索の最大件数。
const SearchLimit = 20

// CatalogLookup は外部商品カタログの検索インターフェース。
// 見つからない場合は(nil, nil)を返す。
type CatalogLookup interface {
	LookupBarcode(ctx context.Context, barcode string) (*catalog.Product, error)
}

// BarcodeSearchResult はバーコード検索の結果。
type BarcodeSearchResult struct {
	Found   bool
	Source  model.ProductSource
	Product *model.Product
}

// CreateInput は商品登録の入力。
type CreateInput struct {
	Name            string
	Barcode         string
	Brand           string
	Category        string
	ImageURL        *string
	QuantityLabel   string
	NutritionalInfo map[string]any
}

// Service は商品マスタのサービス層。
type Service struct {
	productRepo repository.ProductRepository
	catalog     CatalogLookup
	sanitizer   *security.TextSanitizer
	metrics     metrics.MetricsCollector
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(productRepo repository.ProductRepository, catalogClient CatalogLookup, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		productRepo: productRepo,
		catalog:     catalogClient,
		sanitizer:   security.NewTextSanitizer(),
		metrics:     collector,
		now:         time.Now,
	}
}

// SearchByBarcode はローカルの商品マスタを検索し、見つからなければ外部カタログに1回だけ問い合わせる。
// 外部カタログで見つかった商品は取得元をopen_food_factsとしてローカルに保存してから返す。
// 外部カタログにも無い場合はFound=falseを返す。通信失敗はCATALOG_UNAVAILABLEになる。
func (s *Service) SearchByBarcode(ctx context.Context, code string) (*BarcodeSearchResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, model.NewInvalidRequestError("barcodeまたはqueryのいずれかを指定してください。")
	}

	local, err := s.productRepo.FindByBarcode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("商品の検索に失敗しました: %w", err)
	}
	if local != nil {
		s.metrics.RecordCatalogLookup(metrics.LookupLocalHit)
		return &BarcodeSearchResult{Found: true, Source: model.ProductSourceLocal, Product: local}, nil
	}

	start := time.Now()
	remote, err := s.catalog.LookupBarcode(ctx, code)
	s.metrics.RecordCatalogLatency(time.Since(start))
	if err != nil {
		s.metrics.RecordCatalogLookup(metrics.LookupError)
		slog.Warn("外部商品カタログの検索に失敗しました",
			slog.String("barcode", code),
			slog.String("error", err.Error()),
		)
		return nil, model.NewCatalogUnavailableError("通信に失敗しました")
	}
	if remote == nil {
		s.metrics.RecordCatalogLookup(metrics.LookupMiss)
		return &BarcodeSearchResult{Found: false}, nil
	}

	saved, err := s.productRepo.CreateIfAbsent(ctx, s.fromCatalog(code, remote))
	if err != nil {
		return nil, fmt.Errorf("外部カタログの商品の保存に失敗しました: %w", err)
	}
	s.metrics.RecordCatalogLookup(metrics.LookupRemoteHit)

	slog.Info("外部カタログから商品を取り込みました",
		slog.String("barcode", code),
		slog.String("product_id", saved.ID),
	)

	return &BarcodeSearchResult{Found: true, Source: model.ProductSourceOpenFoodFacts, Product: saved}, nil
}

// fromCatalog は外部カタログの商品を保存用の商品に変換する。
// ローカル優先検索で再利用できるよう、バーコードは検索に使った値で保存する。
func (s *Service) fromCatalog(code string, p *catalog.Product) *model.Product {
	now := s.now().UTC()

	var imageURL *string
	if p.ImageURL != nil {
		if err := security.ValidateURL(*p.ImageURL); err == nil {
			imageURL = p.ImageURL
		} else {
			slog.Debug("外部カタログの画像URLを破棄しました",
				slog.String("barcode", code),
				slog.String("error", err.Error()),
			)
		}
	}

	return &model.Product{
		ID:              uuid.NewString(),
		Barcode:         code,
		Name:            s.sanitizer.Clean(p.Name),
		Brand:           s.sanitizer.Clean(p.Brand),
		Category:        s.sanitizer.Clean(p.Category),
		ImageURL:        imageURL,
		QuantityLabel:   s.sanitizer.Clean(p.Quantity),
		NutritionalInfo: p.Nutriments,
		Source:          model.ProductSourceOpenFoodFacts,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// SearchByQuery は商品名・ブランド・カテゴリの部分一致でローカルのみを検索する。
func (s *Service) SearchByQuery(ctx context.Context, query string) ([]*model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.NewInvalidRequestError("barcodeまたはqueryのいずれかを指定してください。")
	}

	products, err := s.productRepo.Search(ctx, query, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("商品の検索に失敗しました: %w", err)
	}
	if products == nil {
		products = []*model.Product{}
	}
	return products, nil
}

// Create は商品を登録する。バーコード未指定の場合は商品名・ブランド・時刻から導出する。
// 同じバーコードの商品が既にある場合は既存商品を添えた競合エラーを返す。
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (*model.Product, error) {
	name := s.sanitizer.Clean(input.Name)
	if name == "" {
		return nil, model.NewInvalidRequestError("nameは必須です。")
	}
	brand := s.sanitizer.Clean(input.Brand)
	category := s.sanitizer.Clean(input.Category)
	if category == "" {
		category = model.UncategorizedCategory
	}
	imageURL, err := normalizeImageURL(input.ImageURL)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	code := strings.TrimSpace(input.Barcode)
	if code == "" {
		code = barcode.Fingerprint(now, name, brand)
	}

	existing, err := s.productRepo.FindByBarcode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("商品の検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewProductAlreadyExistsError(existing)
	}

	nutrition := input.NutritionalInfo
	if nutrition == nil {
		nutrition = map[string]any{}
	}
	creator := userID
	product := &model.Product{
		ID:              uuid.NewString(),
		Barcode:         code,
		Name:            name,
		Brand:           brand,
		Category:        category,
		ImageURL:        imageURL,
		QuantityLabel:   s.sanitizer.Clean(input.QuantityLabel),
		NutritionalInfo: nutrition,
		Source:          model.ProductSourceLocal,
		CreatedBy:       &creator,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if repository.IsDuplicateOn(err, repository.ConstraintProductBarcode) {
			// 確認後に別リクエストが登録した場合
			if existing, findErr := s.productRepo.FindByBarcode(ctx, code); findErr == nil && existing != nil {
				return nil, model.NewProductAlreadyExistsError(existing)
			}
			return nil, model.NewProductAlreadyExistsError(nil)
		}
		return nil, fmt.Errorf("商品の登録に失敗しました: %w", err)
	}

	slog.Info("商品を登録しました",
		slog.String("user_id", userID),
		slog.String("product_id", product.ID),
		slog.String("barcode", code),
	)

	return product, nil
}

// Get は商品を取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewInvalidIDError(id)
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	return product, nil
}

// Update は商品の許可フィールドを更新する。
func (s *Service) Update(ctx context.Context, id string, update model.ProductUpdate) (*model.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewInvalidIDError(id)
	}
	if update.IsEmpty() {
		return nil, model.NewInvalidRequestError("更新内容が指定されていません。")
	}

	update.Name = s.sanitizer.CleanPtr(update.Name)
	if update.Name != nil && *update.Name == "" {
		return nil, model.NewInvalidRequestError("nameを空にすることはできません。")
	}
	update.Brand = s.sanitizer.CleanPtr(update.Brand)
	update.Category = s.sanitizer.CleanPtr(update.Category)
	if update.Category != nil && *update.Category == "" {
		uncategorized := model.UncategorizedCategory
		update.Category = &uncategorized
	}
	update.QuantityLabel = s.sanitizer.CleanPtr(update.QuantityLabel)
	if update.ImageURL != nil {
		imageURL, err := normalizeImageURL(update.ImageURL)
		if err != nil {
			return nil, err
		}
		if imageURL == nil {
			cleared := ""
			imageURL = &cleared
		}
		update.ImageURL = imageURL
	}

	product, err := s.productRepo.Update(ctx, id, update, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("商品の更新に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	return product, nil
}

// Delete は商品を削除する。参照している在庫アイテムは削除しない。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return model.NewInvalidIDError(id)
	}

	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("商品の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewProductNotFoundError(id)
	}

	slog.Info("商品を削除しました", slog.String("product_id", id))
	return nil
}

// Categories はカテゴリ一覧を返す。
func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.productRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("カテゴリの取得に失敗しました: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

// normalizeImageURL は画像URLを検証する。空文字はnilとして扱う。
func normalizeImageURL(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	u := strings.TrimSpace(*raw)
	if u == "" {
		return nil, nil
	}
	if err := security.ValidateURL(u); err != nil {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("image_urlが正しくありません: %v", err))
	}
	return &u, nil
}
