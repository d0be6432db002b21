package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"opsboard/internal/domain"
	"opsboard/internal/errors"
	"opsboard/internal/infrastructure/database"
)

type SQLStoreRepository struct {
	db *database.DB
}

func NewSQLStoreRepository(db *database.DB) *SQLStoreRepository {
	return &SQLStoreRepository{db: db}
}

func (r *SQLStoreRepository) FindByID(ctx context.Context, id string) (*domain.Store, error) {
	query := r.db.Dialect.Rebind(`
		SELECT id, name, default_fee_percent, created_at, updated_at
		FROM stores
		WHERE id = ?
	`)

	var store domain.Store
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&store.ID, &store.Name, &store.DefaultFeePercent, &store.CreatedAt, &store.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("store %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying store by id: %w", err)
	}

	return &store, nil
}

func (r *SQLStoreRepository) Save(ctx context.Context, store domain.Store) error {
	now := time.Now().UTC()
	query := r.db.Dialect.Upsert("stores",
		[]string{"id", "name", "default_fee_percent", "created_at", "updated_at"},
		[]string{"id"},
		[]string{"name", "default_fee_percent", "updated_at"},
	)

	if _, err := r.db.ExecContext(ctx, query, store.ID, store.Name, store.DefaultFeePercent, now, now); err != nil {
		return fmt.Errorf("saving store: %w", err)
	}
	return nil
}
