package barcode

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

// GenerateInput はカスタムバーコード生成の入力。
type GenerateInput struct {
	ProductName string
	Category    string
	Weight      string
}

// Service はカスタムバーコードの生成と管理のサービス層。
type Service struct {
	repo      repository.BarcodeRepository
	sanitizer *security.TextSanitizer
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// collectorがnilの場合はメトリクスを記録しない。
func NewService(repo repository.BarcodeRepository, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		repo:      repo,
		sanitizer: security.NewTextSanitizer(),
		metrics:   collector,
		now:       time.Now,
	}
}

// Generate は商品名・カテゴリ・重量からコードを導出し、ユーザーの生成済みバーコードとして保存する。
// 既存コードとの衝突は1回だけ確認し、衝突時は新しいタイムスタンプで再生成する。
// 再生成したコードも衝突した場合は一意インデックスで拒否され、BARCODE_CONFLICTになる。
func (s *Service) Generate(ctx context.Context, userID string, input GenerateInput) (*model.GeneratedBarcode, error) {
	name := s.sanitizer.Clean(input.ProductName)
	if name == "" {
		return nil, model.NewInvalidRequestError("product_nameは必須です。")
	}
	category := s.sanitizer.Clean(input.Category)
	weight := s.sanitizer.Clean(input.Weight)

	code := Fingerprint(s.now(), name, category, weight)

	exists, err := s.repo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("バーコードの重複確認に失敗しました: %w", err)
	}
	if exists {
		regenerated := Fingerprint(s.now(), name, category, weight)
		slog.Warn("生成したバーコードが衝突したため再生成しました",
			slog.String("user_id", userID),
			slog.String("code", code),
			slog.String("regenerated", regenerated),
		)
		code = regenerated
	}

	barcode := &model.GeneratedBarcode{
		ID:          uuid.NewString(),
		UserID:      userID,
		Code:        code,
		ProductName: name,
		Category:    category,
		Weight:      weight,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, barcode); err != nil {
		if repository.IsDuplicateOn(err, repository.ConstraintGeneratedBarcode) {
			return nil, model.NewBarcodeConflictError()
		}
		return nil, fmt.Errorf("バーコードの保存に失敗しました: %w", err)
	}
	s.metrics.RecordBarcodeGenerated()

	slog.Info("バーコードを生成しました",
		slog.String("user_id", userID),
		slog.String("code", code),
	)

	return barcode, nil
}

// ListByUser はユーザーの生成済みバーコードを新しい順で返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.GeneratedBarcode, error) {
	barcodes, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("バーコード一覧の取得に失敗しました: %w", err)
	}
	if barcodes == nil {
		barcodes = []*model.GeneratedBarcode{}
	}
	return barcodes, nil
}

// Get はユーザーの生成済みバーコードを取得する。
func (s *Service) Get(ctx context.Context, userID, code string) (*model.GeneratedBarcode, error) {
	code = strings.TrimSpace(code)
	barcode, err := s.repo.FindByUserAndCode(ctx, userID, code)
	if err != nil {
		return nil, fmt.Errorf("バーコードの取得に失敗しました: %w", err)
	}
	if barcode == nil {
		return nil, model.NewBarcodeNotFoundError(code)
	}
	return barcode, nil
}

// Delete はユーザーの生成済みバーコードを削除する。
func (s *Service) Delete(ctx context.Context, userID, code string) error {
	code = strings.TrimSpace(code)
	deleted, err := s.repo.DeleteByUserAndCode(ctx, userID, code)
	if err != nil {
		return fmt.Errorf("バーコードの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewBarcodeNotFoundError(code)
	}

	slog.Info("バーコードを削除しました",
		slog.String("user_id", userID),
		slog.String("code", code),
	)
	return nil
}
