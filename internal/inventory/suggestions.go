package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/hitoshi/grocerstock/internal/model"
	"github.com/hitoshi/grocerstock/internal/repository"
)

// LowStockQuantity 以下の数量を在庫僅少とみなす。
const LowStockQuantity = 2

// maxRecipeIngredients は献立提案に使う期限間近の食材数の上限。
const maxRecipeIngredients = 3

// AlertLevel は期限通知の重要度。
type AlertLevel string

const (
	AlertCritical AlertLevel = "critical"
	AlertWarning  AlertLevel = "warning"
	AlertInfo     AlertLevel = "info"
)

// AlertLevelFor は残り日数から通知の重要度を返す。
// 1日以下はcritical、期限間近の範囲内はwarning、それ以外はinfo。
func AlertLevelFor(daysRemaining int) AlertLevel {
	switch {
	case daysRemaining <= 1:
		return AlertCritical
	case daysRemaining <= ExpiringSoonDays:
		return AlertWarning
	default:
		return AlertInfo
	}
}

// ExpiringSuggestion は消費を促すアイテム。
type ExpiringSuggestion struct {
	Product       string
	ExpiryDate    time.Time
	DaysRemaining int
}

// LowStockSuggestion は補充を促すアイテム。
type LowStockSuggestion struct {
	Product         string
	CurrentQuantity float64
	Suggestion      string
}

// RecipeSuggestion は期限間近の食材を使う献立案。
type RecipeSuggestion struct {
	Name        string
	Description string
	Ingredients []string
}

// Suggestions は在庫から導いた提案一式。
type Suggestions struct {
	ExpiringSoon []ExpiringSuggestion
	LowStock     []LowStockSuggestion
	Recipes      []RecipeSuggestion
}

// BuildSuggestions は在庫アイテムから提案を組み立てる。
// 期限間近は残り0日以上ExpiringSoonDays日以下、在庫僅少は数量LowStockQuantity以下。
// itemsの並び順は維持する。
func BuildSuggestions(items []model.InventoryItemWithProduct, now time.Time) Suggestions {
	out := Suggestions{
		ExpiringSoon: []ExpiringSuggestion{},
		LowStock:     []LowStockSuggestion{},
	}

	for _, item := range items {
		if item.ExpiryDate != nil {
			days := DaysRemaining(*item.ExpiryDate, now)
			if days >= 0 && days <= ExpiringSoonDays {
				out.ExpiringSoon = append(out.ExpiringSoon, ExpiringSuggestion{
					Product:       item.Product.Name,
					ExpiryDate:    *item.ExpiryDate,
					DaysRemaining: days,
				})
			}
		}
		if item.Quantity <= LowStockQuantity {
			out.LowStock = append(out.LowStock, LowStockSuggestion{
				Product:         item.Product.Name,
				CurrentQuantity: item.Quantity,
				Suggestion:      "そろそろ補充を検討してください。",
			})
		}
	}

	ingredients := make([]string, 0, maxRecipeIngredients)
	for _, s := range out.ExpiringSoon {
		if len(ingredients) == maxRecipeIngredients {
			break
		}
		ingredients = append(ingredients, s.Product)
	}
	out.Recipes = []RecipeSuggestion{{
		Name:        "Quick Pantry Meal",
		Description: "期限が近い食材を使い切る簡単な一品",
		Ingredients: ingredients,
	}}

	return out
}

// Suggestions はユーザーのactiveな在庫から提案を返す。期限の早い順に評価する。
func (s *Service) Suggestions(ctx context.Context, userID string) (*Suggestions, error) {
	active := model.InventoryStatusActive
	items, err := s.inventoryRepo.List(ctx, userID, model.InventoryFilter{
		Status:    &active,
		SortBy:    repository.DefaultInventorySort,
		Ascending: true,
	})
	if err != nil {
		return nil, fmt.Errorf("在庫の取得に失敗しました: %w", err)
	}

	result := BuildSuggestions(items, s.now())
	return &result, nil
}
