package model

import "time"

// GeneratedBarcode はユーザーが生成したカスタムバーコードを表す。
// 画像は保存せず、Codeから都度レンダリングする。
type GeneratedBarcode struct {
	ID          string
	UserID      string
	Code        string
	ProductName string
	Category    string
	Weight      string
	CreatedAt   time.Time
}
