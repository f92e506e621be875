// Package catalog は外部商品カタログ（Open Food Facts）の呼び出しを提供する。
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL はOpen Food Facts v0 APIのベースURL。
	DefaultBaseURL = "https://world.openfoodfacts.org/api/v0"
	// maxResponseBytes はレスポンスボディの読み取り上限。
	maxResponseBytes = 2 << 20

	unknownProduct = "Unknown Product"
	unknownBrand   = "Unknown Brand"
	uncategorized  = "Uncategorized"
)

// Product は外部カタログから取得して正規化した商品情報。
type Product struct {
	Barcode    string
	Name       string
	Brand      string
	Category   string
	ImageURL   *string
	Quantity   string
	Nutriments map[string]any
}

// offResponse はOpen Food Facts v0 商品エンドポイントのレスポンス。
type offResponse struct {
	Status  int         `json:"status"`
	Code    string      `json:"code"`
	Product *offProduct `json:"product"`
}

type offProduct struct {
	Code        string         `json:"code"`
	ProductName *string        `json:"product_name"`
	Brands      *string        `json:"brands"`
	Categories  *string        `json:"categories"`
	ImageURL    *string        `json:"image_url"`
	Quantity    string         `json:"quantity"`
	Nutriments  map[string]any `json:"nutriments"`
}

// Client はOpen Food Facts APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はDefaultBaseURLを使用する。
// タイムアウトはhttpClient側で設定しておくこと。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   strings.TrimRight(baseURL, "/"),
	}
}

// LookupBarcode はバーコードで外部カタログの商品を検索する。
// 商品が見つからない場合や200以外のステータスの場合は(nil, nil)を返す。
// 通信失敗やレスポンスの解析失敗はエラーを返す。
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (*Product, error) {
	reqURL := fmt.Sprintf("%s/product/%s.json", c.endpoint, url.PathEscape(barcode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "GrocerStock/1.0 (inventory backend)")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("外部商品カタログの呼び出しに失敗しました",
			slog.String("error", err.Error()),
			slog.String("barcode", barcode),
		)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("外部商品カタログがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("barcode", barcode),
		)
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	var result offResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("外部商品カタログのレスポンスのパースに失敗しました",
			slog.String("error", err.Error()),
			slog.String("barcode", barcode),
		)
		return nil, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	if result.Status != 1 || result.Product == nil {
		return nil, nil
	}

	return normalize(result.Product, barcode), nil
}

// normalize は外部カタログの商品を内部表現に変換する。
// 欠落フィールドには既定値を補う。
func normalize(p *offProduct, requested string) *Product {
	barcode := strings.TrimSpace(p.Code)
	if barcode == "" {
		barcode = requested
	}
	nutriments := p.Nutriments
	if nutriments == nil {
		nutriments = map[string]any{}
	}
	var imageURL *string
	if p.ImageURL != nil && strings.TrimSpace(*p.ImageURL) != "" {
		u := strings.TrimSpace(*p.ImageURL)
		imageURL = &u
	}

	return &Product{
		Barcode:    barcode,
		Name:       valueOr(p.ProductName, unknownProduct),
		Brand:      valueOr(p.Brands, unknownBrand),
		Category:   valueOr(p.Categories, uncategorized),
		ImageURL:   imageURL,
		Quantity:   strings.TrimSpace(p.Quantity),
		Nutriments: nutriments,
	}
}

// valueOr はフィールドが欠落している場合に既定値を返す。
func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return strings.TrimSpace(*s)
}
