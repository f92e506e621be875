package model

import "time"

// ProductSource は商品レコードの取得元を表す。
type ProductSource string

const (
	// ProductSourceLocal はユーザーが手動登録した商品。
	ProductSourceLocal ProductSource = "local"
	// ProductSourceOpenFoodFacts は外部カタログ（Open Food Facts）から取り込んだ商品。
	ProductSourceOpenFoodFacts ProductSource = "open_food_facts"
)

// UncategorizedCategory はカテゴリ未設定の商品に割り当てる表示名。
const UncategorizedCategory = "Uncategorized"

// Product は商品マスタを表す。
// Barcodeは存在する場合のみ一意。
type Product struct {
	ID              string
	Barcode         string
	Name            string
	Brand           string
	Category        string
	ImageURL        *string
	QuantityLabel   string // "500 g" などの自由記述
	NutritionalInfo map[string]any
	Source          ProductSource
	CreatedBy       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ProductUpdate は商品更新の許可フィールド。nilのフィールドは変更しない。
type ProductUpdate struct {
	Name            *string
	Brand           *string
	Category        *string
	QuantityLabel   *string
	NutritionalInfo map[string]any
	ImageURL        *string // 空文字は画像URLを削除する
}

// IsEmpty は更新対象フィールドが1つも指定されていないかを返す。
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Brand == nil && u.Category == nil &&
		u.QuantityLabel == nil && u.NutritionalInfo == nil && u.ImageURL == nil
}

// Category は商品カテゴリの参照データ。
type Category struct {
	Name        string
	Description string
}
