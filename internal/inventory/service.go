package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/grocerstock/internal/metrics"
	"github.com/hitoshi/grocerstock/internal/model"
	"github.com/hitoshi/grocerstock/internal/repository"
	"github.com/hitoshi/grocerstock/internal/security"
)

// DefaultExpiringDays は期限間近一覧の既定の日数。
const DefaultExpiringDays = 7

// StatusAll は状態フィルタを無効にする指定値。
const StatusAll = "all"

// ListParams は在庫一覧のクエリパラメータ。空文字は既定値を意味する。
type ListParams struct {
	Status    string
	Category  string
	SortBy    string
	SortOrder string
}

// ListResult は在庫一覧と集計結果。
type ListResult struct {
	Items   []model.InventoryItemWithProduct
	Summary Summary
}

// AddInput は在庫追加の入力。
type AddInput struct {
	ProductID  string
	Quantity   float64
	ExpiryDate *string
	Location   *string
	Notes      *string
}

// UpdateInput は在庫更新の入力。nilのフィールドは変更しない。
// ClearExpiryがtrueの場合は期限を削除する。
type UpdateInput struct {
	Quantity    *float64
	ExpiryDate  *string
	ClearExpiry bool
	Location    *string
	Notes       *string
	Status      *string
}

// ExpiringResult は期限間近一覧の結果。
type ExpiringResult struct {
	Items         []model.InventoryItemWithProduct
	ThresholdDays int
}

// Service は在庫管理のサービス層。
type Service struct {
	inventoryRepo repository.InventoryRepository
	productRepo   repository.ProductRepository
	sanitizer     *security.TextSanitizer
	metrics       metrics.MetricsCollector
	now           func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(
	inventoryRepo repository.InventoryRepository,
	productRepo repository.ProductRepository,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		inventoryRepo: inventoryRepo,
		productRepo:   productRepo,
		sanitizer:     security.NewTextSanitizer(),
		metrics:       collector,
		now:           time.Now,
	}
}

// List はユーザーの在庫一覧を取得し、表示用の状態と集計を付与する。
// 状態フィルタの既定はactive。"all"を指定すると全状態を返す。
func (s *Service) List(ctx context.Context, userID string, params ListParams) (*ListResult, error) {
	filter, err := buildFilter(params)
	if err != nil {
		return nil, err
	}

	items, err := s.inventoryRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("在庫一覧の取得に失敗しました: %w", err)
	}
	if items == nil {
		items = []model.InventoryItemWithProduct{}
	}

	// 状態導出と集計で同じ時刻を使う
	now := s.now()
	Annotate(items, now)

	return &ListResult{
		Items:   items,
		Summary: Summarize(items, now),
	}, nil
}

func buildFilter(params ListParams) (model.InventoryFilter, error) {
	filter := model.InventoryFilter{
		Category:  strings.TrimSpace(params.Category),
		SortBy:    repository.DefaultInventorySort,
		Ascending: true,
	}

	switch status := strings.TrimSpace(params.Status); status {
	case "":
		active := model.InventoryStatusActive
		filter.Status = &active
	case StatusAll:
	default:
		st := model.InventoryStatus(status)
		if !st.IsValid() {
			return filter, model.NewInvalidRequestError(fmt.Sprintf("statusの値が正しくありません: %s", status))
		}
		filter.Status = &st
	}

	if sortBy := strings.TrimSpace(params.SortBy); sortBy != "" {
		if !repository.IsValidInventorySort(sortBy) {
			return filter, model.NewInvalidRequestError(fmt.Sprintf("sort_byの値が正しくありません: %s", sortBy))
		}
		filter.SortBy = sortBy
	}

	switch strings.ToLower(strings.TrimSpace(params.SortOrder)) {
	case "", "asc":
	case "desc":
		filter.Ascending = false
	default:
		return filter, model.NewInvalidRequestError("sort_orderはascまたはdescを指定してください。")
	}

	return filter, nil
}

// Add は在庫を追加する。同一商品のactiveアイテムが既にある場合は数量を加算してマージする。
func (s *Service) Add(ctx context.Context, userID string, input AddInput) (*model.InventoryItemWithProduct, error) {
	if input.ProductID == "" {
		return nil, model.NewInvalidRequestError("product_idは必須です。")
	}
	if _, err := uuid.Parse(input.ProductID); err != nil {
		return nil, model.NewInvalidIDError(input.ProductID)
	}
	if input.Quantity <= 0 {
		return nil, model.NewInvalidRequestError("quantityは0より大きい値を指定してください。")
	}

	var expiry *time.Time
	if input.ExpiryDate != nil && strings.TrimSpace(*input.ExpiryDate) != "" {
		t, err := ParseExpiryDate(*input.ExpiryDate)
		if err != nil {
			return nil, err
		}
		expiry = &t
	}

	product, err := s.productRepo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("商品の取得に失敗しました: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(input.ProductID)
	}

	location := s.sanitizer.CleanPtr(input.Location)
	if location != nil && *location == "" {
		location = nil
	}

	id, merged, err := s.inventoryRepo.AddOrMerge(ctx, model.NewInventoryItem{
		UserID:     userID,
		ProductID:  input.ProductID,
		Quantity:   input.Quantity,
		ExpiryDate: expiry,
		Location:   location,
		Notes:      s.sanitizer.CleanPtr(input.Notes),
	}, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("在庫の追加に失敗しました: %w", err)
	}
	s.metrics.RecordInventoryAdd(merged)

	slog.Info("在庫を追加しました",
		slog.String("user_id", userID),
		slog.String("inventory_item_id", id),
		slog.String("product_id", input.ProductID),
		slog.Float64("quantity", input.Quantity),
		slog.Bool("merged", merged),
	)

	return s.findOwned(ctx, userID, id)
}

// Update は在庫アイテムの許可フィールドを更新する。他ユーザーのアイテムは見つからない扱いになる。
func (s *Service) Update(ctx context.Context, userID, itemID string, input UpdateInput) (*model.InventoryItemWithProduct, error) {
	if _, err := uuid.Parse(itemID); err != nil {
		return nil, model.NewInvalidIDError(itemID)
	}

	update := model.InventoryUpdate{
		Quantity:    input.Quantity,
		ClearExpiry: input.ClearExpiry,
		Location:    s.sanitizer.CleanPtr(input.Location),
		Notes:       s.sanitizer.CleanPtr(input.Notes),
	}
	if update.Quantity != nil && *update.Quantity < 0 {
		return nil, model.NewInvalidRequestError("quantityに負の値は指定できません。")
	}
	if input.ExpiryDate != nil && !input.ClearExpiry {
		if strings.TrimSpace(*input.ExpiryDate) == "" {
			update.ClearExpiry = true
		} else {
			t, err := ParseExpiryDate(*input.ExpiryDate)
			if err != nil {
				return nil, err
			}
			update.ExpiryDate = &t
		}
	}
	if input.Status != nil {
		st := model.InventoryStatus(strings.TrimSpace(*input.Status))
		if !st.IsValid() {
			return nil, model.NewInvalidRequestError(fmt.Sprintf("statusの値が正しくありません: %s", *input.Status))
		}
		update.Status = &st
	}
	if update.IsEmpty() {
		return nil, model.NewInvalidRequestError("更新内容が指定されていません。")
	}

	found, err := s.inventoryRepo.Update(ctx, userID, itemID, update)
	if err != nil {
		if repository.IsDuplicateOn(err, repository.ConstraintActiveInventory) {
			return nil, model.NewActiveItemExistsError()
		}
		return nil, fmt.Errorf("在庫の更新に失敗しました: %w", err)
	}
	if !found {
		return nil, model.NewInventoryItemNotFoundError(itemID)
	}

	return s.findOwned(ctx, userID, itemID)
}

// Delete は在庫アイテムを削除する。
func (s *Service) Delete(ctx context.Context, userID, itemID string) error {
	if _, err := uuid.Parse(itemID); err != nil {
		return model.NewInvalidIDError(itemID)
	}

	deleted, err := s.inventoryRepo.Delete(ctx, userID, itemID)
	if err != nil {
		return fmt.Errorf("在庫の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewInventoryItemNotFoundError(itemID)
	}

	slog.Info("在庫を削除しました",
		slog.String("user_id", userID),
		slog.String("inventory_item_id", itemID),
	)
	return nil
}

// Expiring は現在からdays日以内に期限を迎えるactiveアイテムを期限の昇順で返す。
func (s *Service) Expiring(ctx context.Context, userID string, days int) (*ExpiringResult, error) {
	if days < 0 {
		return nil, model.NewInvalidRequestError("daysには0以上の整数を指定してください。")
	}

	now := s.now().UTC()
	items, err := s.inventoryRepo.ListExpiring(ctx, userID, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("期限間近の在庫の取得に失敗しました: %w", err)
	}
	if items == nil {
		items = []model.InventoryItemWithProduct{}
	}
	for i := range items {
		if items[i].ExpiryDate != nil {
			d := DaysRemaining(*items[i].ExpiryDate, now)
			items[i].DaysRemaining = &d
		}
	}

	return &ExpiringResult{Items: items, ThresholdDays: days}, nil
}

func (s *Service) findOwned(ctx context.Context, userID, itemID string) (*model.InventoryItemWithProduct, error) {
	item, err := s.inventoryRepo.FindWithProduct(ctx, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("在庫の取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewInventoryItemNotFoundError(itemID)
	}
	return item, nil
}
