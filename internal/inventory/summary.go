// Package inventory は在庫一覧の状態導出・集計と在庫操作のドメインロジックを提供する。
package inventory

import (
	"time"

	"github.com/hitoshi/grocerstock/internal/model"
)

// ExpiringSoonDays は「期限間近」とみなす残り日数の上限。
const ExpiringSoonDays = 3

// Summary は在庫一覧の集計結果。
type Summary struct {
	TotalItems    int            `json:"total_items"`
	TotalQuantity float64        `json:"total_quantity"`
	Categories    map[string]int `json:"categories"`
	StatusCounts  map[string]int `json:"status_counts"`
	ExpiringSoon  int            `json:"expiring_soon"`
}

// DaysRemaining は期限日と現在日のUTC日付の差を日数で返す。時刻部分は切り捨てる。
func DaysRemaining(expiry, now time.Time) int {
	return int(utcDate(expiry).Sub(utcDate(now)).Hours() / 24)
}

func utcDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DeriveStatus は残り日数から表示用の状態を返す。
// 期限切れでも期限間近でもない場合は保存されている状態をそのまま返す。
func DeriveStatus(stored model.InventoryStatus, daysRemaining int) model.InventoryStatus {
	switch {
	case daysRemaining < 0:
		return model.InventoryStatusExpired
	case daysRemaining <= ExpiringSoonDays:
		return model.InventoryStatusExpiringSoon
	default:
		return stored
	}
}

// Annotate は期限のあるアイテムに残り日数と導出した状態を設定する。
// 導出した状態は表示用であり、保存はしない。
func Annotate(items []model.InventoryItemWithProduct, now time.Time) {
	for i := range items {
		if items[i].ExpiryDate == nil {
			continue
		}
		days := DaysRemaining(*items[i].ExpiryDate, now)
		items[i].DaysRemaining = &days
		items[i].Status = DeriveStatus(items[i].Status, days)
	}
}

// Summarize は在庫一覧の件数・数量合計・カテゴリ別件数・状態別件数・期限間近件数を集計する。
// 数量は単位を考慮せずそのまま合計する。
// 期限間近件数はAnnotateの結果に依存せず、同じnowから再計算する。
func Summarize(items []model.InventoryItemWithProduct, now time.Time) Summary {
	s := Summary{
		TotalItems:   len(items),
		Categories:   make(map[string]int),
		StatusCounts: make(map[string]int),
	}

	for _, item := range items {
		s.TotalQuantity += item.Quantity

		category := item.Product.Category
		if category == "" {
			category = model.UncategorizedCategory
		}
		s.Categories[category]++

		status := item.Status
		if status == "" {
			status = model.InventoryStatusActive
		}
		s.StatusCounts[string(status)]++

		if item.ExpiryDate != nil {
			if days := DaysRemaining(*item.ExpiryDate, now); days >= 0 && days <= ExpiringSoonDays {
				s.ExpiringSoon++
			}
		}
	}

	return s
}
