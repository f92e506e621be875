package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestTranslateError(t *testing.T) {
	t.Run("一意制約違反はDuplicateErrorに変換される", func(t *testing.T) {
		cause := &pq.Error{Code: "23505", Constraint: ConstraintUserEmail}
		err := translateError(fmt.Errorf("exec: %w", cause), "failed to insert user")

		if !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
		if !IsDuplicateOn(err, ConstraintUserEmail) {
			t.Errorf("expected duplicate on %s, got %v", ConstraintUserEmail, err)
		}
		if IsDuplicateOn(err, ConstraintUserUsername) {
			t.Error("username constraint must not match email violation")
		}
	})

	t.Run("その他のエラーはメッセージ付きでラップされる", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := translateError(cause, "failed to insert user")

		if errors.Is(err, ErrDuplicate) {
			t.Fatal("non-unique error must not be ErrDuplicate")
		}
		if !errors.Is(err, cause) {
			t.Errorf("expected wrapped cause, got %v", err)
		}
	})

	t.Run("一意制約以外のpqエラーはラップされる", func(t *testing.T) {
		cause := &pq.Error{Code: "23503"}
		err := translateError(cause, "failed to insert")
		if errors.Is(err, ErrDuplicate) {
			t.Fatal("foreign key violation must not be ErrDuplicate")
		}
	})
}

func TestLikePattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"milk", "%milk%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\`, `%c:\\%`},
	}
	for _, tt := range tests {
		if got := likePattern(tt.in); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJSONBHelpers(t *testing.T) {
	b, err := marshalJSONB(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "{}" {
		t.Errorf("nil map should encode as {}, got %s", b)
	}

	m, err := unmarshalJSONB([]byte(`{"theme":"dark","notifications":false}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m["theme"] != "dark" || m["notifications"] != false {
		t.Errorf("unexpected decoded map: %v", m)
	}

	empty, err := unmarshalJSONB(nil)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("empty input should decode to empty map, got %v, %v", empty, err)
	}
}

func TestIsValidInventorySort(t *testing.T) {
	for _, key := range []string{"expiry_date", "added_date", "quantity", "name", "location"} {
		if !IsValidInventorySort(key) {
			t.Errorf("%q should be a valid sort key", key)
		}
	}
	for _, key := range []string{"", "status", "expiry_date; DROP TABLE users"} {
		if IsValidInventorySort(key) {
			t.Errorf("%q should be rejected", key)
		}
	}
}
