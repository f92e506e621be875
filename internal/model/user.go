package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	LastLogin    *time.Time
	Preferences  map[string]any
}

// DefaultPreferences は新規登録ユーザーに設定される初期プリファレンスを返す。
func DefaultPreferences() map[string]any {
	return map[string]any{
		"theme":         "light",
		"notifications": true,
	}
}
