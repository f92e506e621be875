package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/grocerstock/internal/model"
)

// PostgresInventoryRepo はPostgreSQLを使用した在庫リポジトリ。
type PostgresInventoryRepo struct {
	db *sql.DB
}

// NewPostgresInventoryRepo はPostgresInventoryRepoを生成する。
func NewPostgresInventoryRepo(db *sql.DB) *PostgresInventoryRepo {
	return &PostgresInventoryRepo{db: db}
}

// inventorySortColumns はsort_byパラメータとORDER BY句のカラムの対応。
// ここに無い値はSQLに埋め込まない。
var inventorySortColumns = map[string]string{
	"expiry_date": "i.expiry_date",
	"added_date":  "i.added_date",
	"quantity":    "i.quantity",
	"name":        "p.name",
	"location":    "i.location",
}

// DefaultInventorySort は並び順未指定時のソートキー。
const DefaultInventorySort = "expiry_date"

// IsValidInventorySort はソートキーが許可されているかを返す。
func IsValidInventorySort(sortBy string) bool {
	_, ok := inventorySortColumns[sortBy]
	return ok
}

const inventoryWithProductColumns = `i.id, i.user_id, i.product_id, i.quantity, i.expiry_date,
	i.added_date, i.location, i.notes, i.status,
	p.id, p.name, p.brand, p.category, p.image_url, p.barcode`

func scanInventoryWithProduct(row rowScanner) (*model.InventoryItemWithProduct, error) {
	item := &model.InventoryItemWithProduct{}
	var expiry sql.NullTime
	var status string
	var pID, pName, pBrand, pCategory, pImageURL, pBarcode sql.NullString
	if err := row.Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &expiry,
		&item.AddedDate, &item.Location, &item.Notes, &status,
		&pID, &pName, &pBrand, &pCategory, &pImageURL, &pBarcode,
	); err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time
		item.ExpiryDate = &t
	}
	item.Status = model.InventoryStatus(status)
	item.Product = model.ProductSummary{
		ID:       nullStringValue(pID),
		Name:     nullStringValue(pName),
		Brand:    nullStringValue(pBrand),
		Category: nullStringValue(pCategory),
		ImageURL: nullStringPtr(pImageURL),
		Barcode:  nullStringValue(pBarcode),
	}
	return item, nil
}

func (r *PostgresInventoryRepo) queryWithProduct(ctx context.Context, query string, args ...any) ([]model.InventoryItemWithProduct, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	items := []model.InventoryItemWithProduct{}
	for rows.Next() {
		item, err := scanInventoryWithProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate inventory rows: %w", err)
	}
	return items, nil
}

// List はユーザーの在庫を商品とINNER JOINして取得する。
func (r *PostgresInventoryRepo) List(ctx context.Context, userID string, filter model.InventoryFilter) ([]model.InventoryItemWithProduct, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + inventoryWithProductColumns + `
		FROM inventory_items i
		INNER JOIN products p ON p.id = i.product_id
		WHERE i.user_id = $1`)

	args := []any{userID}
	argIndex := 2

	if filter.Status != nil {
		fmt.Fprintf(&b, " AND i.status = $%d", argIndex)
		args = append(args, string(*filter.Status))
		argIndex++
	}
	if filter.Category != "" {
		fmt.Fprintf(&b, " AND p.category = $%d", argIndex)
		args = append(args, filter.Category)
	}

	column, ok := inventorySortColumns[filter.SortBy]
	if !ok {
		column = inventorySortColumns[DefaultInventorySort]
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}
	fmt.Fprintf(&b, " ORDER BY %s %s NULLS LAST, i.added_date ASC, i.id ASC", column, direction)

	return r.queryWithProduct(ctx, b.String(), args...)
}

// FindWithProduct は在庫アイテムを商品情報付きで取得する。
// 商品が削除されている場合も在庫アイテム自体は返し、商品情報は空になる。
func (r *PostgresInventoryRepo) FindWithProduct(ctx context.Context, userID, id string) (*model.InventoryItemWithProduct, error) {
	item, err := scanInventoryWithProduct(r.db.QueryRowContext(ctx,
		`SELECT `+inventoryWithProductColumns+`
		 FROM inventory_items i
		 LEFT JOIN products p ON p.id = i.product_id
		 WHERE i.id = $1 AND i.user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find inventory item: %w", err)
	}
	return item, nil
}

// AddOrMerge は在庫を追加し、同一ユーザー・同一商品のactiveアイテムがあれば数量を加算する。
// 部分ユニークインデックスに対するINSERT ON CONFLICTで判定と更新を1文で行う。
func (r *PostgresInventoryRepo) AddOrMerge(ctx context.Context, item model.NewInventoryItem, now time.Time) (string, bool, error) {
	var id string
	var merged bool
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO inventory_items
		     (id, user_id, product_id, quantity, expiry_date, added_date, location, notes, status)
		 VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7::text, $9), COALESCE($8::text, ''), $10)
		 ON CONFLICT (user_id, product_id) WHERE status = 'active' DO UPDATE SET
		     quantity = inventory_items.quantity + EXCLUDED.quantity,
		     expiry_date = COALESCE(EXCLUDED.expiry_date, inventory_items.expiry_date),
		     location = COALESCE($7::text, inventory_items.location),
		     notes = COALESCE($8::text, inventory_items.notes)
		 RETURNING id, (xmax <> 0) AS merged`,
		uuid.New().String(), item.UserID, item.ProductID, item.Quantity, item.ExpiryDate, now,
		item.Location, item.Notes, model.DefaultLocation, string(model.InventoryStatusActive),
	).Scan(&id, &merged)
	if err != nil {
		return "", false, fmt.Errorf("failed to add inventory item: %w", err)
	}
	return id, merged, nil
}

// Update は許可フィールドを部分更新する。
// statusをactiveに戻した結果、同一商品のactiveアイテムと重複する場合は*DuplicateErrorを返す。
func (r *PostgresInventoryRepo) Update(ctx context.Context, userID, id string, u model.InventoryUpdate) (bool, error) {
	var status any
	if u.Status != nil {
		status = string(*u.Status)
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE inventory_items SET
		     quantity = COALESCE($3::double precision, quantity),
		     expiry_date = CASE WHEN $4::boolean THEN NULL ELSE COALESCE($5::timestamptz, expiry_date) END,
		     location = COALESCE($6::text, location),
		     notes = COALESCE($7::text, notes),
		     status = COALESCE($8::text, status)
		 WHERE id = $1 AND user_id = $2`,
		id, userID, u.Quantity, u.ClearExpiry, u.ExpiryDate, u.Location, u.Notes, status,
	)
	if err != nil {
		return false, translateError(err, "failed to update inventory item")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は在庫アイテムを削除する。
func (r *PostgresInventoryRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM inventory_items WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete inventory item: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListExpiring はfrom以上to以下に期限を迎えるactiveアイテムを期限の昇順で返す。
func (r *PostgresInventoryRepo) ListExpiring(ctx context.Context, userID string, from, to time.Time) ([]model.InventoryItemWithProduct, error) {
	return r.queryWithProduct(ctx,
		`SELECT `+inventoryWithProductColumns+`
		 FROM inventory_items i
		 INNER JOIN products p ON p.id = i.product_id
		 WHERE i.user_id = $1
		   AND i.status = $2
		   AND i.expiry_date >= $3
		   AND i.expiry_date <= $4
		 ORDER BY i.expiry_date ASC, i.id ASC`,
		userID, string(model.InventoryStatusActive), from, to,
	)
}

// compile-time interface check
var _ InventoryRepository = (*PostgresInventoryRepo)(nil)
