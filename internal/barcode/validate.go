package barcode

// 形式名
const (
	FormatUPC     = "UPC"
	FormatEAN13   = "EAN-13"
	FormatCode128 = "Code 128"
)

// maxCode128Length は汎用コードとして受け付ける最大文字数。
const maxCode128Length = 20

// ValidationResult はバーコード形式判定の結果。
type ValidationResult struct {
	Valid   bool
	Format  string
	Message string
}

// Validate は文字列の形式からバーコード種別を判定する。
// 12桁の数字はUPC、13桁の数字はEAN-13、20文字以下の英数字とハイフンはCode 128とみなす。
func Validate(code string) ValidationResult {
	if n := len(code); (n == 12 || n == 13) && isDigits(code) {
		format := FormatUPC
		if n == 13 {
			format = FormatEAN13
		}
		return ValidationResult{Valid: true, Format: format, Message: "Valid UPC/EAN barcode"}
	}

	if code != "" && len(code) <= maxCode128Length && isCode128Charset(code) {
		return ValidationResult{Valid: true, Format: FormatCode128, Message: "Valid Code 128 barcode"}
	}

	return ValidationResult{Valid: false, Message: "Invalid barcode format"}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isCode128Charset(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-':
		default:
			return false
		}
	}
	return true
}
