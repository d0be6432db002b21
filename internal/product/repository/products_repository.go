package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"opsboard/internal/domain"
	"opsboard/internal/errors"
	"opsboard/internal/infrastructure/database"
	orderrepo "opsboard/internal/order/repository"
)

const productColumns = `id, store_id, name, description, image_url, link, status, list_price,
	discount_percent, sourcing_cost, supplier, created_at`

type SQLRepository struct {
	db     *database.DB
	logger *zap.Logger
}

func NewSQLRepository(db *database.DB, logger *zap.Logger) *SQLRepository {
	return &SQLRepository{db: db, logger: logger}
}

// FindByStore loads the store's products with their variations and pricing tiers.
func (r *SQLRepository) FindByStore(ctx context.Context, storeID string) ([]domain.Product, error) {
	query := r.db.Dialect.Rebind(`
		SELECT ` + productColumns + `
		FROM products
		WHERE store_id = ?
		ORDER BY created_at DESC, id`)

	rows, err := r.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	index := make(map[string]int)
	for rows.Next() {
		var p domain.Product
		err := rows.Scan(
			&p.ID, &p.StoreID, &p.Name, &p.Description, &p.ImageURL, &p.Link, &p.Status,
			&p.ListPrice, &p.DiscountPercent, &p.SourcingCost, &p.Supplier, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}
	if len(products) == 0 {
		return products, nil
	}

	if err := r.loadVariations(ctx, storeID, products, index); err != nil {
		return nil, err
	}
	if err := r.loadPricing(ctx, storeID, products, index); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *SQLRepository) loadVariations(ctx context.Context, storeID string, products []domain.Product, index map[string]int) error {
	query := r.db.Dialect.Rebind(`
		SELECT v.id, v.product_id, v.name, v.image_url, v.price, v.position
		FROM product_variations v
		JOIN products p ON p.id = v.product_id
		WHERE p.store_id = ?
		ORDER BY v.product_id, v.position, v.id`)

	rows, err := r.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return fmt.Errorf("querying product variations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.ProductVariation
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.ImageURL, &v.Price, &v.Position); err != nil {
			return fmt.Errorf("scanning product variation row: %w", err)
		}
		if i, ok := index[v.ProductID]; ok {
			products[i].Variations = append(products[i].Variations, v)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating product variation rows: %w", err)
	}
	return nil
}

func (r *SQLRepository) loadPricing(ctx context.Context, storeID string, products []domain.Product, index map[string]int) error {
	query := r.db.Dialect.Rebind(`
		SELECT t.id, t.product_id, t.region, t.price, t.lead_time
		FROM product_pricing t
		JOIN products p ON p.id = t.product_id
		WHERE p.store_id = ?
		ORDER BY t.product_id, t.seq`)

	rows, err := r.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return fmt.Errorf("querying product pricing: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.ProductPricing
		if err := rows.Scan(&t.ID, &t.ProductID, &t.Region, &t.Price, &t.LeadTime); err != nil {
			return fmt.Errorf("scanning product pricing row: %w", err)
		}
		if i, ok := index[t.ProductID]; ok {
			products[i].Pricing = append(products[i].Pricing, t)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating product pricing rows: %w", err)
	}
	return nil
}

func (r *SQLRepository) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	query := r.db.Dialect.Rebind(`
		INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.StoreID, p.Name, p.Description, p.ImageURL, p.Link, string(p.Status),
		p.ListPrice, p.DiscountPercent, p.SourcingCost, p.Supplier, p.CreatedAt,
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("inserting product: %w", err)
	}
	return p, nil
}

func (r *SQLRepository) Update(ctx context.Context, id string, patch domain.Patch) error {
	if len(patch) == 0 {
		return nil
	}
	if err := domain.ProductSchema.Validate(patch); err != nil {
		return err
	}

	fields := patch.Fields()
	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets[i] = f + " = ?"
		args = append(args, patch[f])
	}
	args = append(args, id)

	query := r.db.Dialect.Rebind(fmt.Sprintf(`UPDATE products SET %s WHERE id = ?`, strings.Join(sets, ", ")))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return r.exists(ctx, id)
	}
	return nil
}

func (r *SQLRepository) exists(ctx context.Context, id string) error {
	var found string
	err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(`SELECT id FROM products WHERE id = ?`), id).Scan(&found)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError(fmt.Sprintf("product with id %s not found", id))
	}
	if err != nil {
		return fmt.Errorf("querying product by id: %w", err)
	}
	return nil
}

// Delete removes the products with their tiers and variations in one
// transaction. Orders that referenced them are kept with the references nulled.
func (r *SQLRepository) Delete(ctx context.Context, ids []string) (err error) {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("rollback failed", zap.Error(rbErr))
			}
		}
	}()

	cleared, err := orderrepo.ClearProductTx(ctx, tx, r.db.Dialect, ids)
	if err != nil {
		return err
	}

	in := database.In(len(ids))
	args := database.Args(ids)
	for _, stmt := range []struct {
		what  string
		query string
	}{
		{"product pricing", `DELETE FROM product_pricing WHERE product_id IN ` + in},
		{"product variations", `DELETE FROM product_variations WHERE product_id IN ` + in},
		{"products", `DELETE FROM products WHERE id IN ` + in},
	} {
		if _, err = tx.ExecContext(ctx, r.db.Dialect.Rebind(stmt.query), args...); err != nil {
			return fmt.Errorf("deleting %s: %w", stmt.what, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	r.logger.Info("products deleted", zap.Int("count", len(ids)), zap.Int64("ordersUnlinked", cleared))
	return nil
}

// UpsertPricing stores the tier for (product, region), replacing price and
// lead time of an existing one.
func (r *SQLRepository) UpsertPricing(ctx context.Context, t domain.ProductPricing) error {
	query := r.db.Dialect.Upsert("product_pricing",
		[]string{"id", "product_id", "region", "price", "lead_time"},
		[]string{"product_id", "region"},
		[]string{"price", "lead_time"},
	)

	if _, err := r.db.ExecContext(ctx, query, t.ID, t.ProductID, string(t.Region), t.Price, t.LeadTime); err != nil {
		return fmt.Errorf("upserting product pricing: %w", err)
	}
	return nil
}

func (r *SQLRepository) InsertVariation(ctx context.Context, v domain.ProductVariation) error {
	query := r.db.Dialect.Rebind(`
		INSERT INTO product_variations (id, product_id, name, image_url, price, position)
		VALUES (?, ?, ?, ?, ?, ?)`)

	if _, err := r.db.ExecContext(ctx, query, v.ID, v.ProductID, v.Name, v.ImageURL, v.Price, v.Position); err != nil {
		return fmt.Errorf("inserting product variation: %w", err)
	}
	return nil
}

// DeleteVariation removes the variation and unlinks it from orders.
func (r *SQLRepository) DeleteVariation(ctx context.Context, productID, variationID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, r.db.Dialect.Rebind(`DELETE FROM product_variations WHERE id = ? AND product_id = ?`), variationID, productID)
	if err != nil {
		return fmt.Errorf("deleting product variation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("variation %s of product %s not found", variationID, productID))
	}

	if _, err := tx.ExecContext(ctx, r.db.Dialect.Rebind(`UPDATE orders SET variation_id = NULL WHERE variation_id = ?`), variationID); err != nil {
		return fmt.Errorf("clearing order variation references: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
