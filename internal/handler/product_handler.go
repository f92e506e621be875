package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/grocerstock/internal/model"
	"github.com/hitoshi/grocerstock/internal/product"
)

// ProductServiceInterface は商品ハンドラーが必要とするサービスインターフェース。
type ProductServiceInterface interface {
	SearchByBarcode(ctx context.Context, code string) (*product.BarcodeSearchResult, error)
	SearchByQuery(ctx context.Context, query string) ([]*model.Product, error)
	Create(ctx context.Context, userID string, input product.CreateInput) (*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	Update(ctx context.Context, id string, update model.ProductUpdate) (*model.Product, error)
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]model.Category, error)
}

// ProductHandler は商品カタログのHTTPハンドラー。
type ProductHandler struct {
	service ProductServiceInterface
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(service ProductServiceInterface) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

type createProductRequest struct {
	Name            string         `json:"name" validate:"max=255"`
	Barcode         string         `json:"barcode" validate:"max=64"`
	Brand           string         `json:"brand" validate:"max=255"`
	Category        string         `json:"category" validate:"max=100"`
	ImageURL        *string        `json:"image_url" validate:"omitempty,max=2048"`
	Quantity        string         `json:"quantity" validate:"max=100"`
	NutritionalInfo map[string]any `json:"nutritional_info"`
}

// updateProductRequest は更新可能なフィールドのみを受け付ける。
type updateProductRequest struct {
	Name            *string        `json:"name" validate:"omitempty,max=255"`
	Brand           *string        `json:"brand" validate:"omitempty,max=255"`
	Category        *string        `json:"category" validate:"omitempty,max=100"`
	Quantity        *string        `json:"quantity" validate:"omitempty,max=100"`
	NutritionalInfo map[string]any `json:"nutritional_info"`
	ImageURL        *string        `json:"image_url" validate:"omitempty,max=2048"`
}

type barcodeSearchResponse struct {
	Found   bool             `json:"found"`
	Source  string           `json:"source,omitempty"`
	Product *productResponse `json:"product,omitempty"`
	Message string           `json:"message,omitempty"`
}

type querySearchResponse struct {
	Found    bool              `json:"found"`
	Products []productResponse `json:"products"`
	Count    int               `json:"count"`
}

type productEnvelope struct {
	Message string          `json:"message,omitempty"`
	Product productResponse `json:"product"`
}

type categorizeRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type categorizeResponse struct {
	Success    bool   `json:"success"`
	Category   string `json:"category"`
	Confidence string `json:"confidence"`
}

type categoryResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Search はバーコードまたはキーワードで商品を検索する。
// GET /api/products/search?barcode=xxx または ?query=xxx
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	barcode := strings.TrimSpace(r.URL.Query().Get("barcode"))
	query := strings.TrimSpace(r.URL.Query().Get("query"))

	switch {
	case barcode != "":
		h.searchByBarcode(w, r, barcode)
	case query != "":
		h.searchByQuery(w, r, query)
	default:
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("barcodeまたはqueryパラメータを指定してください。"))
	}
}

func (h *ProductHandler) searchByBarcode(w http.ResponseWriter, r *http.Request, barcode string) {
	result, err := h.service.SearchByBarcode(r.Context(), barcode)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if !result.Found || result.Product == nil {
		writeJSON(w, http.StatusOK, barcodeSearchResponse{
			Found:   false,
			Message: "商品が見つかりませんでした。",
		})
		return
	}

	resp := toProductResponse(result.Product)
	writeJSON(w, http.StatusOK, barcodeSearchResponse{
		Found:   true,
		Source:  string(result.Source),
		Product: &resp,
	})
}

func (h *ProductHandler) searchByQuery(w http.ResponseWriter, r *http.Request, query string) {
	products, err := h.service.SearchByQuery(r.Context(), query)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, querySearchResponse{
		Found:    len(products) > 0,
		Products: toProductResponses(products),
		Count:    len(products),
	})
}

// Create は商品を手動登録する。
// POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createProductRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	p, err := h.service.Create(r.Context(), userID, product.CreateInput{
		Name:            req.Name,
		Barcode:         req.Barcode,
		Brand:           req.Brand,
		Category:        req.Category,
		ImageURL:        req.ImageURL,
		QuantityLabel:   req.Quantity,
		NutritionalInfo: req.NutritionalInfo,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, productEnvelope{
		Message: "商品を登録しました。",
		Product: toProductResponse(p),
	})
}

// Get は商品を1件返す。
// GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productEnvelope{Product: toProductResponse(p)})
}

// Update は商品情報を部分更新する。
// PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), model.ProductUpdate{
		Name:            req.Name,
		Brand:           req.Brand,
		Category:        req.Category,
		QuantityLabel:   req.Quantity,
		NutritionalInfo: req.NutritionalInfo,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productEnvelope{
		Message: "商品を更新しました。",
		Product: toProductResponse(p),
	})
}

// Delete は商品を削除する。参照している在庫アイテムは削除しない。
// DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "商品を削除しました。"})
}

// Categories はカテゴリ一覧を返す。
// GET /api/products/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, categoryResponse{Name: c.Name, Description: c.Description})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": resp})
}

// Categorize は商品名からカテゴリを推定する。保存はしない。
// POST /api/products/categorize
func (h *ProductHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("nameは必須です。"))
		return
	}

	category, confidence := product.Categorize(req.Name)
	writeJSON(w, http.StatusOK, categorizeResponse{
		Success:    true,
		Category:   category,
		Confidence: confidence,
	})
}
