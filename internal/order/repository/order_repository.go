package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"opsboard/internal/domain"
	"opsboard/internal/errors"
	"opsboard/internal/infrastructure/database"
)

const orderColumns = `id, store_id, ordered_at, customer_name, address, product_name, product_id,
	variation_id, product_link, image_url, size, color, material, quantity, paid, shipped,
	delivered, marketplace_completed, tracking_added, shipped_message_sent,
	delivered_message_sent, acknowledged, out_of_stock, tracking_code, sold_price,
	fee_percent, sourcing_cost, profit, supplier, notes, issue, resolution, internal_notes,
	created_at`

type SQLOrderRepository struct {
	db *database.DB
}

func NewSQLOrderRepository(db *database.DB) *SQLOrderRepository {
	return &SQLOrderRepository{db: db}
}

func (r *SQLOrderRepository) FindByStore(ctx context.Context, storeID string) ([]domain.Order, error) {
	query := r.db.Dialect.Rebind(`
		SELECT ` + orderColumns + `
		FROM orders
		WHERE store_id = ?
		ORDER BY created_at DESC, id`)

	rows, err := r.db.QueryContext(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	return orders, nil
}

func (r *SQLOrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	query := r.db.Dialect.Rebind(`SELECT ` + orderColumns + ` FROM orders WHERE id = ?`)

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("querying order by id: %w", err)
	}
	return o, nil
}

func (r *SQLOrderRepository) Insert(ctx context.Context, o domain.Order) (domain.Order, error) {
	query := r.db.Dialect.Rebind(`
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.StoreID, o.OrderedAt, o.CustomerName, o.Address, o.ProductName, o.ProductID,
		o.VariationID, o.ProductLink, o.ImageURL, o.Size, o.Color, o.Material, o.Quantity,
		o.Paid, o.Shipped, o.Delivered, o.MarketplaceCompleted, o.TrackingAdded,
		o.ShippedMessageSent, o.DeliveredMessageSent, o.Acknowledged, o.OutOfStock,
		o.TrackingCode, o.SoldPrice, o.FeePercent, o.SourcingCost, o.Profit, o.Supplier,
		o.Notes, o.Issue, o.Resolution, o.InternalNotes, o.CreatedAt,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("inserting order: %w", err)
	}
	return o, nil
}

// Update writes the columns present in patch. The patch is checked against the
// order schema first, so column names never come from user input.
func (r *SQLOrderRepository) Update(ctx context.Context, id string, patch domain.Patch) error {
	if len(patch) == 0 {
		return nil
	}
	if err := domain.OrderSchema.Validate(patch); err != nil {
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

	query := r.db.Dialect.Rebind(fmt.Sprintf(`UPDATE orders SET %s WHERE id = ?`, strings.Join(sets, ", ")))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	// MySQL reports 0 affected rows when the values did not change, so a
	// zero count is confirmed with a lookup before it becomes NotFound.
	if rowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

func (r *SQLOrderRepository) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := r.db.Dialect.Rebind(`DELETE FROM orders WHERE id IN ` + database.In(len(ids)))

	if _, err := r.db.ExecContext(ctx, query, database.Args(ids)...); err != nil {
		return fmt.Errorf("deleting orders: %w", err)
	}
	return nil
}

// ClearProductTx nulls the product and variation references of orders that
// point at any of productIDs.
func ClearProductTx(ctx context.Context, tx *sql.Tx, dialect database.Dialect, productIDs []string) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	query := dialect.Rebind(`UPDATE orders SET product_id = NULL, variation_id = NULL WHERE product_id IN ` + database.In(len(productIDs)))

	result, err := tx.ExecContext(ctx, query, database.Args(productIDs)...)
	if err != nil {
		return 0, fmt.Errorf("clearing order product references: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (domain.Order, error) {
	var o domain.Order
	err := s.Scan(
		&o.ID, &o.StoreID, &o.OrderedAt, &o.CustomerName, &o.Address, &o.ProductName, &o.ProductID,
		&o.VariationID, &o.ProductLink, &o.ImageURL, &o.Size, &o.Color, &o.Material, &o.Quantity,
		&o.Paid, &o.Shipped, &o.Delivered, &o.MarketplaceCompleted, &o.TrackingAdded,
		&o.ShippedMessageSent, &o.DeliveredMessageSent, &o.Acknowledged, &o.OutOfStock,
		&o.TrackingCode, &o.SoldPrice, &o.FeePercent, &o.SourcingCost, &o.Profit, &o.Supplier,
		&o.Notes, &o.Issue, &o.Resolution, &o.InternalNotes, &o.CreatedAt,
	)
	return o, err
}
