package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/grocerstock/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

const productColumns = `id, barcode, name, brand, category, image_url, quantity_label,
	nutritional_info, source, created_by, created_at, updated_at`

func scanProduct(row rowScanner) (*model.Product, error) {
	p := &model.Product{}
	var barcode, imageURL, createdBy sql.NullString
	var nutrition []byte
	var source string
	if err := row.Scan(
		&p.ID, &barcode, &p.Name, &p.Brand, &p.Category, &imageURL, &p.QuantityLabel,
		&nutrition, &source, &createdBy, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Barcode = nullStringValue(barcode)
	p.ImageURL = nullStringPtr(imageURL)
	p.CreatedBy = nullStringPtr(createdBy)
	p.Source = model.ProductSource(source)
	m, err := unmarshalJSONB(nutrition)
	if err != nil {
		return nil, err
	}
	p.NutritionalInfo = m
	return p, nil
}

func (r *PostgresProductRepo) findOne(ctx context.Context, where string, arg any) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE `+where, arg,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return p, nil
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByBarcode はバーコード完全一致で商品を検索する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	return r.findOne(ctx, "barcode = $1", barcode)
}

// Search は商品名・ブランド・カテゴリの部分一致で検索する。
func (r *PostgresProductRepo) Search(ctx context.Context, query string, limit int) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+`
		 FROM products
		 WHERE name ILIKE $1 OR brand ILIKE $1 OR category ILIKE $1
		 ORDER BY name ASC
		 LIMIT $2`,
		likePattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	products := []*model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product rows: %w", err)
	}
	return products, nil
}

func productArgs(p *model.Product) ([]any, error) {
	nutrition, err := marshalJSONB(p.NutritionalInfo)
	if err != nil {
		return nil, err
	}
	return []any{
		p.ID, nullString(p.Barcode), p.Name, p.Brand, p.Category, p.ImageURL,
		p.QuantityLabel, nutrition, string(p.Source), p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	}, nil
}

// Create は商品を作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, p *model.Product) error {
	args, err := productArgs(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		args...,
	)
	if err != nil {
		return translateError(err, "failed to insert product")
	}
	return nil
}

// CreateIfAbsent はバーコードが未登録の場合のみ商品を作成する。
// 同時に同じバーコードが取り込まれた場合は先に保存された商品を返す。
func (r *PostgresProductRepo) CreateIfAbsent(ctx context.Context, p *model.Product) (*model.Product, error) {
	args, err := productArgs(p)
	if err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (barcode) WHERE barcode IS NOT NULL DO NOTHING`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	stored, err := r.FindByBarcode(ctx, p.Barcode)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("product vanished after insert: %s", p.Barcode)
	}
	return stored, nil
}

// Update は許可フィールドを部分更新する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) Update(ctx context.Context, id string, u model.ProductUpdate, now time.Time) (*model.Product, error) {
	var nutrition any
	if u.NutritionalInfo != nil {
		b, err := marshalJSONB(u.NutritionalInfo)
		if err != nil {
			return nil, err
		}
		nutrition = string(b)
	}

	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`UPDATE products SET
		     name = COALESCE($2, name),
		     brand = COALESCE($3, brand),
		     category = COALESCE($4, category),
		     quantity_label = COALESCE($5, quantity_label),
		     nutritional_info = COALESCE($6::jsonb, nutritional_info),
		     image_url = CASE WHEN $7::text IS NULL THEN image_url ELSE NULLIF($7::text, '') END,
		     updated_at = $8
		 WHERE id = $1
		 RETURNING `+productColumns,
		id, u.Name, u.Brand, u.Category, u.QuantityLabel, nutrition, u.ImageURL, now,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

// Delete は商品を削除する。
func (r *PostgresProductRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListCategories はカテゴリ参照データを名前順で返す。
func (r *PostgresProductRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, description FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Name, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate category rows: %w", err)
	}
	return categories, nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
