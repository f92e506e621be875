package handler

import (
	"net/url"
	"time"

	"github.com/hitoshi/grocerstock/internal/inventory"
	"github.com/hitoshi/grocerstock/internal/model"
)

// userResponse はユーザー情報のJSONレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Username    string         `json:"username"`
	Preferences map[string]any `json:"preferences"`
	CreatedAt   *string        `json:"created_at,omitempty"`
	LastLogin   *string        `json:"last_login,omitempty"`
}

func toUserResponse(u *model.User) userResponse {
	prefs := u.Preferences
	if prefs == nil {
		prefs = map[string]any{}
	}
	resp := userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Preferences: prefs,
	}
	if !u.CreatedAt.IsZero() {
		createdAt := formatTime(u.CreatedAt)
		resp.CreatedAt = &createdAt
	}
	if u.LastLogin != nil {
		lastLogin := formatTime(*u.LastLogin)
		resp.LastLogin = &lastLogin
	}
	return resp
}

// productResponse は商品のJSONレスポンス。
type productResponse struct {
	ID              string         `json:"id"`
	Barcode         string         `json:"barcode"`
	Name            string         `json:"name"`
	Brand           string         `json:"brand"`
	Category        string         `json:"category"`
	ImageURL        *string        `json:"image_url"`
	Quantity        string         `json:"quantity"`
	NutritionalInfo map[string]any `json:"nutritional_info"`
	Source          string         `json:"source"`
	CreatedBy       *string        `json:"created_by,omitempty"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

func toProductResponse(p *model.Product) productResponse {
	info := p.NutritionalInfo
	if info == nil {
		info = map[string]any{}
	}
	return productResponse{
		ID:              p.ID,
		Barcode:         p.Barcode,
		Name:            p.Name,
		Brand:           p.Brand,
		Category:        p.Category,
		ImageURL:        p.ImageURL,
		Quantity:        p.QuantityLabel,
		NutritionalInfo: info,
		Source:          string(p.Source),
		CreatedBy:       p.CreatedBy,
		CreatedAt:       formatTime(p.CreatedAt),
		UpdatedAt:       formatTime(p.UpdatedAt),
	}
}

func toProductResponses(products []*model.Product) []productResponse {
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	return resp
}

// productSummaryResponse は在庫アイテムに結合された商品情報。
type productSummaryResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Category string  `json:"category"`
	ImageURL *string `json:"image_url"`
	Barcode  string  `json:"barcode"`
}

// inventoryItemResponse は在庫アイテムのJSONレスポンス。
type inventoryItemResponse struct {
	ID            string                 `json:"id"`
	ProductID     string                 `json:"product_id"`
	Quantity      float64                `json:"quantity"`
	ExpiryDate    *string                `json:"expiry_date"`
	AddedDate     string                 `json:"added_date"`
	Location      string                 `json:"location"`
	Notes         string                 `json:"notes"`
	Status        string                 `json:"status"`
	Product       productSummaryResponse `json:"product"`
	DaysRemaining *int                   `json:"days_remaining,omitempty"`
}

func toInventoryItemResponse(item *model.InventoryItemWithProduct) inventoryItemResponse {
	resp := inventoryItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		AddedDate: formatTime(item.AddedDate),
		Location:  item.Location,
		Notes:     item.Notes,
		Status:    string(item.Status),
		Product: productSummaryResponse{
			ID:       item.Product.ID,
			Name:     item.Product.Name,
			Brand:    item.Product.Brand,
			Category: item.Product.Category,
			ImageURL: item.Product.ImageURL,
			Barcode:  item.Product.Barcode,
		},
		DaysRemaining: item.DaysRemaining,
	}
	if item.ExpiryDate != nil {
		expiry := formatTime(*item.ExpiryDate)
		resp.ExpiryDate = &expiry
	}
	return resp
}

func toInventoryItemResponses(items []model.InventoryItemWithProduct) []inventoryItemResponse {
	resp := make([]inventoryItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toInventoryItemResponse(&items[i]))
	}
	return resp
}

type expiringSuggestionResponse struct {
	Product       string `json:"product"`
	ExpiryDate    string `json:"expiry_date"`
	DaysRemaining int    `json:"days_remaining"`
}

type lowStockSuggestionResponse struct {
	Product         string  `json:"product"`
	CurrentQuantity float64 `json:"current_quantity"`
	Suggestion      string  `json:"suggestion"`
}

type recipeSuggestionResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
}

type suggestionsResponse struct {
	ExpiringSoon      []expiringSuggestionResponse `json:"expiring_soon"`
	LowStock          []lowStockSuggestionResponse `json:"low_stock"`
	RecipeSuggestions []recipeSuggestionResponse   `json:"recipe_suggestions"`
}

type suggestionsEnvelope struct {
	Success     bool                `json:"success"`
	Suggestions suggestionsResponse `json:"suggestions"`
}

func toSuggestionsResponse(s *inventory.Suggestions) suggestionsResponse {
	resp := suggestionsResponse{
		ExpiringSoon:      make([]expiringSuggestionResponse, 0, len(s.ExpiringSoon)),
		LowStock:          make([]lowStockSuggestionResponse, 0, len(s.LowStock)),
		RecipeSuggestions: make([]recipeSuggestionResponse, 0, len(s.Recipes)),
	}
	for _, e := range s.ExpiringSoon {
		resp.ExpiringSoon = append(resp.ExpiringSoon, expiringSuggestionResponse{
			Product:       e.Product,
			ExpiryDate:    formatTime(e.ExpiryDate),
			DaysRemaining: e.DaysRemaining,
		})
	}
	for _, l := range s.LowStock {
		resp.LowStock = append(resp.LowStock, lowStockSuggestionResponse{
			Product:         l.Product,
			CurrentQuantity: l.CurrentQuantity,
			Suggestion:      l.Suggestion,
		})
	}
	for _, rec := range s.Recipes {
		ingredients := rec.Ingredients
		if ingredients == nil {
			ingredients = []string{}
		}
		resp.RecipeSuggestions = append(resp.RecipeSuggestions, recipeSuggestionResponse{
			Name:        rec.Name,
			Description: rec.Description,
			Ingredients: ingredients,
		})
	}
	return resp
}

// barcodeResponse は生成済みバーコードのJSONレスポンス。
type barcodeResponse struct {
	ID            string `json:"id"`
	CustomBarcode string `json:"custom_barcode"`
	ProductName   string `json:"product_name"`
	Category      string `json:"category"`
	Weight        string `json:"weight"`
	CreatedAt     string `json:"created_at"`
	ImageURL      string `json:"image_url,omitempty"`
	DownloadURL   string `json:"download_url,omitempty"`
}

func toBarcodeResponse(b *model.GeneratedBarcode, withLinks bool) barcodeResponse {
	resp := barcodeResponse{
		ID:            b.ID,
		CustomBarcode: b.Code,
		ProductName:   b.ProductName,
		Category:      b.Category,
		Weight:        b.Weight,
		CreatedAt:     formatTime(b.CreatedAt),
	}
	if withLinks {
		resp.ImageURL = barcodeImageURL(b.Code)
		resp.DownloadURL = barcodeDownloadURL(b.Code)
	}
	return resp
}

func barcodeImageURL(code string) string {
	return "/api/barcode/" + url.PathEscape(code) + "/image"
}

func barcodeDownloadURL(code string) string {
	return "/api/barcode/" + url.PathEscape(code) + "/download"
}

// messageResponse はメッセージのみのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// formatTime はUTCのRFC 3339形式に変換する。
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
