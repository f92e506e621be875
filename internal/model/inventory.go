package model

import "time"

// InventoryStatus は在庫アイテムの状態を表す。
type InventoryStatus string

const (
	// InventoryStatusActive は有効な在庫。同一ユーザー・同一商品につき最大1件。
	InventoryStatusActive InventoryStatus = "active"
	// InventoryStatusExpired は賞味期限切れ。一覧取得時に導出される。
	InventoryStatusExpired InventoryStatus = "expired"
	// InventoryStatusExpiringSoon は期限まで3日以内。一覧取得時に導出される。
	InventoryStatusExpiringSoon InventoryStatus = "expiring_soon"
)

// DefaultLocation は保管場所未指定時の既定値。
const DefaultLocation = "pantry"

// IsValid は定義済みの状態かを返す。
func (s InventoryStatus) IsValid() bool {
	switch s {
	case InventoryStatusActive, InventoryStatusExpired, InventoryStatusExpiringSoon:
		return true
	}
	return false
}

// InventoryItem はユーザーの在庫アイテムを表す。
type InventoryItem struct {
	ID         string
	UserID     string
	ProductID  string
	Quantity   float64
	ExpiryDate *time.Time
	AddedDate  time.Time
	Location   string
	Notes      string
	Status     InventoryStatus
}

// ProductSummary は在庫一覧で結合される商品情報の部分集合。
type ProductSummary struct {
	ID       string
	Name     string
	Brand    string
	Category string
	ImageURL *string
	Barcode  string
}

// InventoryItemWithProduct は在庫アイテムと商品情報を結合したモデル。
// productsテーブルとINNER JOINして取得される。
type InventoryItemWithProduct struct {
	InventoryItem
	Product ProductSummary

	// DaysRemaining は期限までの残り日数。期限未設定の場合はnil。
	// 永続化されず、一覧取得時にのみ計算される。
	DaysRemaining *int
}

// InventoryFilter は在庫一覧のフィルタと並び順。
type InventoryFilter struct {
	Status    *InventoryStatus // nilの場合は全状態
	Category  string
	SortBy    string
	Ascending bool
}

// NewInventoryItem は在庫追加リクエストの内容。
// LocationとNotesはnilの場合、新規作成時は既定値、マージ時は既存値を維持する。
type NewInventoryItem struct {
	UserID     string
	ProductID  string
	Quantity   float64
	ExpiryDate *time.Time
	Location   *string
	Notes      *string
}

// InventoryUpdate は在庫更新の許可フィールド。
// ClearExpiryがtrueの場合は期限を削除する。
type InventoryUpdate struct {
	Quantity    *float64
	ExpiryDate  *time.Time
	ClearExpiry bool
	Location    *string
	Notes       *string
	Status      *InventoryStatus
}

// IsEmpty は更新対象フィールドが1つも指定されていないかを返す。
func (u InventoryUpdate) IsEmpty() bool {
	return u.Quantity == nil && u.ExpiryDate == nil && !u.ClearExpiry &&
		u.Location == nil && u.Notes == nil && u.Status == nil
}
