package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/grocerstock/internal/inventory"
	"github.com/hitoshi/grocerstock/internal/model"
)

// InventoryServiceInterface は在庫ハンドラーが必要とするサービスインターフェース。
type InventoryServiceInterface interface {
	List(ctx context.Context, userID string, params inventory.ListParams) (*inventory.ListResult, error)
	Add(ctx context.Context, userID string, input inventory.AddInput) (*model.InventoryItemWithProduct, error)
	Update(ctx context.Context, userID, itemID string, input inventory.UpdateInput) (*model.InventoryItemWithProduct, error)
	Delete(ctx context.Context, userID, itemID string) error
	Expiring(ctx context.Context, userID string, days int) (*inventory.ExpiringResult, error)
	Suggestions(ctx context.Context, userID string) (*inventory.Suggestions, error)
}

// InventoryHandler は在庫管理のHTTPハンドラー。
type InventoryHandler struct {
	service InventoryServiceInterface
}

// NewInventoryHandler はInventoryHandlerを生成する。
func NewInventoryHandler(service InventoryServiceInterface) *InventoryHandler {
	return &InventoryHandler{
		service: service,
	}
}

type addInventoryRequest struct {
	ProductID  string   `json:"product_id" validate:"required"`
	Quantity   *float64 `json:"quantity" validate:"required"`
	ExpiryDate *string  `json:"expiry_date"`
	Location   *string  `json:"location" validate:"omitempty,max=100"`
	Notes      *string  `json:"notes" validate:"omitempty,max=1000"`
}

// updateInventoryRequest のexpiry_dateはnullで削除できるようRawMessageで受ける。
type updateInventoryRequest struct {
	Quantity   *float64        `json:"quantity"`
	ExpiryDate json.RawMessage `json:"expiry_date"`
	Location   *string         `json:"location" validate:"omitempty,max=100"`
	Notes      *string         `json:"notes" validate:"omitempty,max=1000"`
	Status     *string         `json:"status"`
}

type inventoryListResponse struct {
	Inventory []inventoryItemResponse `json:"inventory"`
	Count     int                     `json:"count"`
	Summary   inventory.Summary       `json:"summary"`
}

type inventoryItemEnvelope struct {
	Message       string                `json:"message"`
	InventoryItem inventoryItemResponse `json:"inventory_item"`
}

// expiringItemResponse は期限間近一覧の要素。通知の重要度を含む。
type expiringItemResponse struct {
	inventoryItemResponse
	AlertLevel inventory.AlertLevel `json:"alert_level"`
}

type expiringResponse struct {
	ExpiringItems []expiringItemResponse `json:"expiring_items"`
	Count         int                     `json:"count"`
	ThresholdDays int                     `json:"threshold_days"`
}

// List は在庫一覧と集計を返す。
// GET /api/inventory?status=&category=&sort_by=&sort_order=
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	result, err := h.service.List(r.Context(), userID, inventory.ListParams{
		Status:    q.Get("status"),
		Category:  q.Get("category"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, inventoryListResponse{
		Inventory: toInventoryItemResponses(result.Items),
		Count:     len(result.Items),
		Summary:   result.Summary,
	})
}

// Add は在庫を追加する。同一商品のactiveアイテムがあれば数量を加算する。
// POST /api/inventory
func (h *InventoryHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req addInventoryRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	item, err := h.service.Add(r.Context(), userID, inventory.AddInput{
		ProductID:  req.ProductID,
		Quantity:   *req.Quantity,
		ExpiryDate: req.ExpiryDate,
		Location:   req.Location,
		Notes:      req.Notes,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, inventoryItemEnvelope{
		Message:       "在庫に追加しました。",
		InventoryItem: toInventoryItemResponse(item),
	})
}

// Update は在庫アイテムを部分更新する。
// PUT /api/inventory/{id}
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateInventoryRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	input := inventory.UpdateInput{
		Quantity: req.Quantity,
		Location: req.Location,
		Notes:    req.Notes,
		Status:   req.Status,
	}
	if len(req.ExpiryDate) > 0 {
		if bytes.Equal(bytes.TrimSpace(req.ExpiryDate), []byte("null")) {
			input.ClearExpiry = true
		} else {
			var expiry string
			if err := json.Unmarshal(req.ExpiryDate, &expiry); err != nil {
				writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidExpiryDateError())
				return
			}
			input.ExpiryDate = &expiry
		}
	}

	item, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, inventoryItemEnvelope{
		Message:       "在庫を更新しました。",
		InventoryItem: toInventoryItemResponse(item),
	})
}

// Delete は在庫アイテムを削除する。
// DELETE /api/inventory/{id}
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "在庫を削除しました。"})
}

// Expiring は期限間近のactiveアイテムを返す。
// GET /api/inventory/expiring?days=7
func (h *InventoryHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	days := inventory.DefaultExpiringDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("daysには0以上の整数を指定してください。"))
			return
		}
		days = parsed
	}

	result, err := h.service.Expiring(r.Context(), userID, days)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, expiringResponse{
		ExpiringItems: toExpiringItemResponses(result.Items),
		Count:         len(result.Items),
		ThresholdDays: result.ThresholdDays,
	})
}

func toExpiringItemResponses(items []model.InventoryItemWithProduct) []expiringItemResponse {
	resp := make([]expiringItemResponse, 0, len(items))
	for i := range items {
		item := expiringItemResponse{inventoryItemResponse: toInventoryItemResponse(&items[i])}
		if items[i].DaysRemaining != nil {
			item.AlertLevel = inventory.AlertLevelFor(*items[i].DaysRemaining)
		}
		resp = append(resp, item)
	}
	return resp
}

// Suggestions は在庫から消費・補充・献立の提案を返す。
// GET /api/inventory/suggestions
func (h *InventoryHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	result, err := h.service.Suggestions(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, suggestionsEnvelope{
		Success:     true,
		Suggestions: toSuggestionsResponse(result),
	})
}
