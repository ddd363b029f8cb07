package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatdagang/internal/entities"
)

type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) ListItems(ctx context.Context, businessID int64) ([]entities.CatalogItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, business_id, name, price, available
		FROM catalog_items WHERE business_id = $1 AND available ORDER BY name
	`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entities.CatalogItem
	for rows.Next() {
		var it entities.CatalogItem
		if err := rows.Scan(&it.ID, &it.BusinessID, &it.Name, &it.Price, &it.Available); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *CatalogRepository) FindItem(ctx context.Context, businessID int64, name string) (*entities.CatalogItem, error) {
	var it entities.CatalogItem
	err := r.db.QueryRow(ctx, `
		SELECT id, business_id, name, price, available
		FROM catalog_items WHERE business_id = $1 AND LOWER(name) = LOWER($2)
	`, businessID, name).Scan(&it.ID, &it.BusinessID, &it.Name, &it.Price, &it.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}
