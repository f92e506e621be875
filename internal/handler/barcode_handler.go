package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/grocerstock/internal/barcode"
	"github.com/hitoshi/grocerstock/internal/model"
)

// BarcodeServiceInterface はバーコードハンドラーが必要とするサービスインターフェース。
type BarcodeServiceInterface interface {
	Generate(ctx context.Context, userID string, input barcode.GenerateInput) (*model.GeneratedBarcode, error)
	ListByUser(ctx context.Context, userID string) ([]*model.GeneratedBarcode, error)
	Get(ctx context.Context, userID, code string) (*model.GeneratedBarcode, error)
	Delete(ctx context.Context, userID, code string) error
}

// BarcodeHandler はカスタムバーコードのHTTPハンドラー。
type BarcodeHandler struct {
	service BarcodeServiceInterface
}

// NewBarcodeHandler はBarcodeHandlerを生成する。
func NewBarcodeHandler(service BarcodeServiceInterface) *BarcodeHandler {
	return &BarcodeHandler{
		service: service,
	}
}

type generateBarcodeRequest struct {
	ProductName string `json:"product_name" validate:"required,max=255"`
	Category    string `json:"category" validate:"max=100"`
	Weight      string `json:"weight" validate:"max=50"`
}

type generateBarcodeResponse struct {
	Success     bool            `json:"success"`
	BarcodeData barcodeResponse `json:"barcode_data"`
	ImageURL    string          `json:"image_url"`
}

type barcodeListResponse struct {
	Barcodes []barcodeResponse `json:"barcodes"`
	Count    int               `json:"count"`
}

type validateBarcodeResponse struct {
	Valid   bool   `json:"valid"`
	Format  string `json:"format,omitempty"`
	Message string `json:"message"`
}

// Generate はカスタムバーコードを生成して保存する。
// POST /api/barcode/generate
func (h *BarcodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req generateBarcodeRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	generated, err := h.service.Generate(r.Context(), userID, barcode.GenerateInput{
		ProductName: req.ProductName,
		Category:    req.Category,
		Weight:      req.Weight,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, generateBarcodeResponse{
		Success:     true,
		BarcodeData: toBarcodeResponse(generated, false),
		ImageURL:    barcodeImageURL(generated.Code),
	})
}

// Image はバーコード画像をインライン表示用に返す。認証不要。
// GET /api/barcode/{code}/image
func (h *BarcodeHandler) Image(w http.ResponseWriter, r *http.Request) {
	h.writePNG(w, r, "inline")
}

// Download はバーコード画像を添付ファイルとして返す。認証不要。
// GET /api/barcode/{code}/download
func (h *BarcodeHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.writePNG(w, r, "attachment")
}

func (h *BarcodeHandler) writePNG(w http.ResponseWriter, r *http.Request, disposition string) {
	code := chi.URLParam(r, "code")

	img, err := barcode.RenderPNG(code)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, barcode.DownloadFilename(code)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		slog.Warn("failed to write barcode image",
			slog.String("code", code),
			slog.String("error", err.Error()),
		)
	}
}

// MyBarcodes はユーザーが生成したバーコードを新しい順で返す。
// GET /api/barcode/my-barcodes
func (h *BarcodeHandler) MyBarcodes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	barcodes, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]barcodeResponse, 0, len(barcodes))
	for _, b := range barcodes {
		resp = append(resp, toBarcodeResponse(b, true))
	}
	writeJSON(w, http.StatusOK, barcodeListResponse{
		Barcodes: resp,
		Count:    len(resp),
	})
}

// Get はユーザーが生成したバーコードを1件返す。
// GET /api/barcode/{code}
func (h *BarcodeHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "code"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]barcodeResponse{"barcode": toBarcodeResponse(b, true)})
}

// Delete はユーザーが生成したバーコードを削除する。
// DELETE /api/barcode/{code}
func (h *BarcodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "code")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "バーコードを削除しました。"})
}

// Validate はコード文字列の形式を判定する。
// GET /api/barcode/validate/{code}
func (h *BarcodeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	result := barcode.Validate(chi.URLParam(r, "code"))

	writeJSON(w, http.StatusOK, validateBarcodeResponse{
		Valid:   result.Valid,
		Format:  result.Format,
		Message: result.Message,
	})
}
