package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ユニークインデックス名。DuplicateError.Constraintと比較して重複箇所を判別する。
const (
	ConstraintUserEmail        = "idx_users_email"
	ConstraintUserUsername     = "idx_users_username"
	ConstraintProductBarcode   = "idx_products_barcode"
	ConstraintGeneratedBarcode = "idx_generated_barcodes_code"
	ConstraintActiveInventory  = "idx_inventory_items_active_user_product"
)

// ErrDuplicate は一意制約違反を表すセンチネルエラー。
var ErrDuplicate = errors.New("duplicate key")

// DuplicateError は一意制約違反の詳細を保持する。errors.Is(err, ErrDuplicate)が成立する。
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate key violates unique constraint %q", e.Constraint)
}

// Is はErrDuplicateとの比較を可能にする。
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// uniqueViolationCode はPostgreSQLの一意制約違反コード。
const uniqueViolationCode = "23505"

// translateError はドライバのエラーをリポジトリのエラーに変換する。
// 一意制約違反は*DuplicateErrorに、それ以外はmsgでラップする。
func translateError(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return &DuplicateError{Constraint: pqErr.Constraint}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// IsDuplicateOn はerrが指定インデックスの一意制約違反かを返す。
func IsDuplicateOn(err error, constraint string) bool {
	var dup *DuplicateError
	return errors.As(err, &dup) && dup.Constraint == constraint
}
