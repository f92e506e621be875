// Package barcode はカスタムバーコードの生成・描画・形式判定を提供する。
package barcode

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// FingerprintLength はフィンガープリントの16進文字数。
const FingerprintLength = 12

// Fingerprint は各要素とタイムスタンプを連結したハッシュの先頭12文字を返す。
// 一意性は保証しないため、呼び出し側で衝突を確認する。
func Fingerprint(salt time.Time, parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
	}
	b.WriteString(strconv.FormatInt(salt.UnixNano(), 10))

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:FingerprintLength]
}
