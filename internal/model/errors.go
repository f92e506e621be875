// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, auth, conflict, not_found, upstream, system
	Action   string // ユーザー向け対処方法

	// Details はレスポンスに同梱する追加情報（重複時の既存商品など）。
	Details any
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryAuth       = "auth"
	CategoryConflict   = "conflict"
	CategoryNotFound   = "not_found"
	CategoryUpstream   = "upstream"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeInvalidID              = "INVALID_ID"
	ErrCodeInvalidExpiryDate      = "INVALID_EXPIRY_DATE"
	ErrCodeInvalidBarcode         = "INVALID_BARCODE"
	ErrCodeWeakPassword           = "WEAK_PASSWORD"
	ErrCodeInvalidEmail           = "INVALID_EMAIL"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	ErrCodeIncorrectPassword      = "INCORRECT_PASSWORD"
	ErrCodeEmailAlreadyRegistered = "EMAIL_ALREADY_REGISTERED"
	ErrCodeUsernameTaken          = "USERNAME_TAKEN"
	ErrCodeProductAlreadyExists   = "PRODUCT_ALREADY_EXISTS"
	ErrCodeBarcodeConflict        = "BARCODE_CONFLICT"
	ErrCodeActiveItemExists       = "ACTIVE_ITEM_EXISTS"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeProductNotFound        = "PRODUCT_NOT_FOUND"
	ErrCodeInventoryItemNotFound  = "INVENTORY_ITEM_NOT_FOUND"
	ErrCodeBarcodeNotFound        = "BARCODE_NOT_FOUND"
	ErrCodeCatalogUnavailable     = "CATALOG_UNAVAILABLE"
	ErrCodeRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal               = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエスト内容の検証エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: CategoryValidation,
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewInvalidIDError はID形式が不正な場合のエラーを生成する。
func NewInvalidIDError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("IDの形式が正しくありません: %s", id),
		Category: CategoryValidation,
		Action:   "正しいIDを指定してください。",
	}
}

// NewInvalidExpiryDateError は賞味期限の形式エラーを生成する。
func NewInvalidExpiryDateError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidExpiryDate,
		Message:  "賞味期限の形式が正しくありません。",
		Category: CategoryValidation,
		Action:   "ISO 8601形式（例: 2024-05-01 または 2024-05-01T00:00:00Z）で指定してください。",
	}
}

// NewInvalidBarcodeError はバーコード値がレンダリングできない場合のエラーを生成する。
func NewInvalidBarcodeError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBarcode,
		Message:  fmt.Sprintf("バーコードを生成できません: %s", reason),
		Category: CategoryValidation,
		Action:   "英数字とハイフンのみのコードを指定してください。",
	}
}

// NewWeakPasswordError はパスワード長不足のエラーを生成する。
func NewWeakPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeWeakPassword,
		Message:  "パスワードは8文字以上である必要があります。",
		Category: CategoryValidation,
		Action:   "8文字以上のパスワードを指定してください。",
	}
}

// NewInvalidEmailError はメールアドレス形式エラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "メールアドレスの形式が正しくありません。",
		Category: CategoryValidation,
		Action:   "正しいメールアドレスを入力してください。",
	}
}

// NewUnauthorizedError は認証トークンが無い・無効な場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: CategoryAuth,
		Action:   "ログインしてください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレスの存在有無は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: CategoryAuth,
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewIncorrectPasswordError はパスワード変更時の現在パスワード不一致エラーを生成する。
func NewIncorrectPasswordError() *APIError {
	return &APIError{
		Code:     ErrCodeIncorrectPassword,
		Message:  "現在のパスワードが正しくありません。",
		Category: CategoryAuth,
		Action:   "現在のパスワードを確認してください。",
	}
}

// NewEmailAlreadyRegisteredError はメールアドレス重複エラーを生成する。
func NewEmailAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyRegistered,
		Message:  "このメールアドレスは既に登録されています。",
		Category: CategoryConflict,
		Action:   "ログインするか、別のメールアドレスを使用してください。",
	}
}

// NewUsernameTakenError はユーザー名重複エラーを生成する。
func NewUsernameTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  "このユーザー名は既に使用されています。",
		Category: CategoryConflict,
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewProductAlreadyExistsError は同一バーコードの商品が既に存在する場合のエラーを生成する。
// existingには既存商品を渡し、レスポンスに同梱する。
func NewProductAlreadyExistsError(existing any) *APIError {
	return &APIError{
		Code:     ErrCodeProductAlreadyExists,
		Message:  "このバーコードの商品は既に登録されています。",
		Category: CategoryConflict,
		Action:   "既存の商品を使用してください。",
		Details:  existing,
	}
}

// NewBarcodeConflictError は生成したコードが再生成後も衝突した場合のエラーを生成する。
func NewBarcodeConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeBarcodeConflict,
		Message:  "バーコードの生成中に衝突が発生しました。",
		Category: CategoryConflict,
		Action:   "もう一度生成してください。",
	}
}

// NewActiveItemExistsError は同一商品のactiveな在庫アイテムが既に存在する場合のエラーを生成する。
func NewActiveItemExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeActiveItemExists,
		Message:  "この商品の有効な在庫アイテムが既に存在します。",
		Category: CategoryConflict,
		Action:   "既存の在庫アイテムの数量を更新してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: CategoryNotFound,
		Action:   "ログインし直してください。",
	}
}

// NewProductNotFoundError は商品が見つからない場合のエラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %s", productID),
		Category: CategoryNotFound,
		Action:   "商品IDを確認してください。",
	}
}

// NewInventoryItemNotFoundError は在庫アイテムが見つからない場合のエラーを生成する。
func NewInventoryItemNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeInventoryItemNotFound,
		Message:  fmt.Sprintf("指定された在庫アイテムが見つかりません: %s", itemID),
		Category: CategoryNotFound,
		Action:   "在庫アイテムIDを確認してください。",
	}
}

// NewBarcodeNotFoundError は生成済みバーコードが見つからない場合のエラーを生成する。
func NewBarcodeNotFoundError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeBarcodeNotFound,
		Message:  fmt.Sprintf("指定されたバーコードが見つかりません: %s", code),
		Category: CategoryNotFound,
		Action:   "バーコードを確認してください。",
	}
}

// NewCatalogUnavailableError は外部商品カタログの呼び出し失敗エラーを生成する。
func NewCatalogUnavailableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeCatalogUnavailable,
		Message:  fmt.Sprintf("外部商品カタログへの問い合わせに失敗しました: %s", reason),
		Category: CategoryUpstream,
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "リクエストが多すぎます。",
		Category: CategorySystem,
		Action:   "Retry-Afterヘッダーの秒数だけ待ってから再度お試しください。",
	}
}
