package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/grocerstock/internal/model"
)

// PostgresBarcodeRepo はPostgreSQLを使用した生成済みバーコードリポジトリ。
type PostgresBarcodeRepo struct {
	db *sql.DB
}

// NewPostgresBarcodeRepo はPostgresBarcodeRepoを生成する。
func NewPostgresBarcodeRepo(db *sql.DB) *PostgresBarcodeRepo {
	return &PostgresBarcodeRepo{db: db}
}

const barcodeColumns = `id, user_id, custom_barcode, product_name, category, weight, created_at`

func scanBarcode(row rowScanner) (*model.GeneratedBarcode, error) {
	b := &model.GeneratedBarcode{}
	if err := row.Scan(&b.ID, &b.UserID, &b.Code, &b.ProductName, &b.Category, &b.Weight, &b.CreatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

// ExistsByCode はコードが既に使用されているかを返す。
func (r *PostgresBarcodeRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM generated_barcodes WHERE custom_barcode = $1)`,
		code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check barcode existence: %w", err)
	}
	return exists, nil
}

// Create は生成済みバーコードを保存する。
func (r *PostgresBarcodeRepo) Create(ctx context.Context, b *model.GeneratedBarcode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO generated_barcodes (`+barcodeColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.UserID, b.Code, b.ProductName, b.Category, b.Weight, b.CreatedAt,
	)
	if err != nil {
		return translateError(err, "failed to insert generated barcode")
	}
	return nil
}

// ListByUserID はユーザーの生成済みバーコードを新しい順で返す。
func (r *PostgresBarcodeRepo) ListByUserID(ctx context.Context, userID string) ([]*model.GeneratedBarcode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+barcodeColumns+` FROM generated_barcodes
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list generated barcodes: %w", err)
	}
	defer rows.Close()

	barcodes := []*model.GeneratedBarcode{}
	for rows.Next() {
		b, err := scanBarcode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generated barcode row: %w", err)
		}
		barcodes = append(barcodes, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generated barcode rows: %w", err)
	}
	return barcodes, nil
}

// FindByUserAndCode はユーザーの生成済みバーコードを取得する。見つからない場合はnilを返す。
func (r *PostgresBarcodeRepo) FindByUserAndCode(ctx context.Context, userID, code string) (*model.GeneratedBarcode, error) {
	b, err := scanBarcode(r.db.QueryRowContext(ctx,
		`SELECT `+barcodeColumns+` FROM generated_barcodes WHERE user_id = $1 AND custom_barcode = $2`,
		userID, code,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find generated barcode: %w", err)
	}
	return b, nil
}

// DeleteByUserAndCode はユーザーの生成済みバーコードを削除する。
func (r *PostgresBarcodeRepo) DeleteByUserAndCode(ctx context.Context, userID, code string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM generated_barcodes WHERE user_id = $1 AND custom_barcode = $2`,
		userID, code,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete generated barcode: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ BarcodeRepository = (*PostgresBarcodeRepo)(nil)
