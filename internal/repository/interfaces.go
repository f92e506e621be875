// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/grocerstock/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスまたはユーザー名が重複する場合は*DuplicateErrorを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateLastLogin は最終ログイン日時を更新する。
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// UpdateProfile はユーザー名とプリファレンスを部分更新する。nilのフィールドは変更しない。
	// ユーザーが存在しない場合はnilを返す。
	UpdateProfile(ctx context.Context, id string, username *string, preferences map[string]any) (*model.User, error)

	// UpdatePasswordHash はパスワードハッシュを置き換える。
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
}

// ProductRepository は商品マスタの永続化インターフェース。
type ProductRepository interface {
	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// FindByBarcode はバーコード完全一致で商品を検索する。見つからない場合はnilを返す。
	FindByBarcode(ctx context.Context, barcode string) (*model.Product, error)

	// Search は商品名・ブランド・カテゴリの大文字小文字を区別しない部分一致で検索する。
	Search(ctx context.Context, query string, limit int) ([]*model.Product, error)

	// Create は商品を作成する。バーコードが重複する場合は*DuplicateErrorを返す。
	Create(ctx context.Context, product *model.Product) error

	// CreateIfAbsent はバーコードが未登録の場合のみ商品を作成し、
	// そのバーコードで保存されている商品を返す。
	CreateIfAbsent(ctx context.Context, product *model.Product) (*model.Product, error)

	// Update は許可フィールドを部分更新しupdated_atを進める。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, update model.ProductUpdate, now time.Time) (*model.Product, error)

	// Delete は商品を削除する。削除した場合はtrueを返す。
	// 参照している在庫アイテムは削除しない。
	Delete(ctx context.Context, id string) (bool, error)

	// ListCategories はカテゴリ参照データを名前順で返す。
	ListCategories(ctx context.Context) ([]model.Category, error)
}

// InventoryRepository は在庫アイテムの永続化インターフェース。
// すべての操作は所有ユーザーでスコープされる。
type InventoryRepository interface {
	// List はユーザーの在庫を商品とINNER JOINして取得する。
	// 商品が削除された在庫は結果に含まれない。
	List(ctx context.Context, userID string, filter model.InventoryFilter) ([]model.InventoryItemWithProduct, error)

	// FindWithProduct は在庫アイテムを商品情報付きで取得する。見つからない場合はnilを返す。
	FindWithProduct(ctx context.Context, userID, id string) (*model.InventoryItemWithProduct, error)

	// AddOrMerge は在庫を追加する。同一ユーザー・同一商品のactiveアイテムが存在する場合は
	// 数量を加算し、指定された期限・保管場所・メモで置き換える。
	// 既存アイテムにマージした場合はmergedがtrueになる。
	AddOrMerge(ctx context.Context, item model.NewInventoryItem, now time.Time) (id string, merged bool, err error)

	// Update は許可フィールドを部分更新する。見つからない場合はfalseを返す。
	Update(ctx context.Context, userID, id string, update model.InventoryUpdate) (bool, error)

	// Delete は在庫アイテムを削除する。削除した場合はtrueを返す。
	Delete(ctx context.Context, userID, id string) (bool, error)

	// ListExpiring はfrom以上to以下に期限を迎えるactiveアイテムを期限の昇順で返す。
	ListExpiring(ctx context.Context, userID string, from, to time.Time) ([]model.InventoryItemWithProduct, error)
}

// BarcodeRepository は生成済みカスタムバーコードの永続化インターフェース。
type BarcodeRepository interface {
	// ExistsByCode はコードが既に使用されているかを返す。
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Create は生成済みバーコードを保存する。コードが重複する場合は*DuplicateErrorを返す。
	Create(ctx context.Context, barcode *model.GeneratedBarcode) error

	// ListByUserID はユーザーの生成済みバーコードを新しい順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.GeneratedBarcode, error)

	// FindByUserAndCode はユーザーの生成済みバーコードを取得する。見つからない場合はnilを返す。
	FindByUserAndCode(ctx context.Context, userID, code string) (*model.GeneratedBarcode, error)

	// DeleteByUserAndCode はユーザーの生成済みバーコードを削除する。削除した場合はtrueを返す。
	DeleteByUserAndCode(ctx context.Context, userID, code string) (bool, error)
}
