package barcode

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/hitoshi/grocerstock/internal/model"
)

const (
	moduleWidth = 2   // 1モジュールあたりのピクセル幅
	barHeight   = 100 // バーの高さ（ピクセル）
	quietZone   = 20  // 左右の余白（ピクセル）
	marginY     = 10  // 上下の余白（ピクセル）
)

// MaxRenderLength は画像化できるコードの最大文字数。
const MaxRenderLength = 80

// RenderPNG はコードをCode 128でエンコードしたPNG画像を返す。
// 画像は保存せず、リクエストごとに同じ入力から同じ画像を生成する。
// エンコードできない値（空文字・非ASCII文字など）とMaxRenderLengthを超える値はINVALID_BARCODEエラーになる。
func RenderPNG(code string) ([]byte, error) {
	if strings.TrimSpace(code) == "" {
		return nil, model.NewInvalidBarcodeError("コードが空です")
	}
	if len(code) > MaxRenderLength {
		return nil, model.NewInvalidBarcodeError(fmt.Sprintf("コードは%d文字以内で指定してください", MaxRenderLength))
	}

	bc, err := code128.Encode(code)
	if err != nil {
		return nil, model.NewInvalidBarcodeError(err.Error())
	}

	width := bc.Bounds().Dx() * moduleWidth
	scaled, err := barcode.Scale(bc, width, barHeight)
	if err != nil {
		return nil, fmt.Errorf("バーコードの拡大に失敗しました: %w", err)
	}

	canvas := image.NewGray(image.Rect(0, 0, width+2*quietZone, barHeight+2*marginY))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, scaled.Bounds().Add(image.Pt(quietZone, marginY)), scaled, scaled.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("PNGのエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

// DownloadFilename はダウンロード時のファイル名を返す。
func DownloadFilename(code string) string {
	return fmt.Sprintf("barcode_%s.png", code)
}
