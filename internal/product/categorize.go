package product

import "strings"

// FallbackCategory はどのキーワードにも一致しない場合のカテゴリ。
const FallbackCategory = "Pantry & Dry Goods"

// 推定の確度
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// categoryKeywords は評価順に並べたカテゴリとキーワードの対応。
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Fruits & Vegetables", []string{"apple", "banana", "vegetable"}},
	{"Dairy & Eggs", []string{"milk", "cheese", "egg"}},
	{"Meat & Seafood", []string{"meat", "chicken", "fish"}},
	{"Bakery & Bread", []string{"bread", "cake", "pastry"}},
}

// Categorize は商品名のキーワードからカテゴリを推定する。
// 大文字小文字は区別しない。一致しなければFallbackCategoryと低い確度を返す。
func Categorize(name string) (category, confidence string) {
	lower := strings.ToLower(name)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.category, ConfidenceHigh
			}
		}
	}
	return FallbackCategory, ConfidenceLow
}
