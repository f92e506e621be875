package inventory

import (
	"strings"
	"time"

	"github.com/hitoshi/grocerstock/internal/model"
)

// タイムゾーン無しの値はUTCとして解釈する。
var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// ParseExpiryDate はISO 8601形式の日付または日時を解釈する。
func ParseExpiryDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, model.NewInvalidExpiryDateError()
}
