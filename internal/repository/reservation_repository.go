package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatdagang/internal/entities"
)

type ReservationRepository struct {
	db *pgxpool.Pool
}

func NewReservationRepository(db *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// HasConfirmedOverlap checks the half-open window [start, end) against
// confirmed bookings. The guard serializes per resource, so check and insert
// cannot race inside this process.
func (r *ReservationRepository) HasConfirmedOverlap(ctx context.Context, businessID int64, resourceID string, start, end time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM reservations
			WHERE business_id = $1 AND resource_id = $2 AND status = 'confirmed'
			  AND starts_at < $4 AND $3 < ends_at
		)
	`, businessID, resourceID, start, end).Scan(&exists)
	return exists, err
}

func (r *ReservationRepository) Insert(ctx context.Context, res *entities.Reservation) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO reservations (business_id, resource_id, customer_channel_id, starts_at, ends_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, res.BusinessID, res.ResourceID, res.CustomerChannelID, res.StartsAt, res.EndsAt, res.Status,
	).Scan(&res.ID, &res.CreatedAt)
}

func (r *ReservationRepository) ListByResource(ctx context.Context, businessID int64, resourceID string) ([]entities.Reservation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, business_id, resource_id, customer_channel_id, starts_at, ends_at, status, created_at
		FROM reservations
		WHERE business_id = $1 AND ($2 = '' OR resource_id = $2)
		ORDER BY starts_at
	`, businessID, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.Reservation
	for rows.Next() {
		var res entities.Reservation
		if err := rows.Scan(&res.ID, &res.BusinessID, &res.ResourceID, &res.CustomerChannelID,
			&res.StartsAt, &res.EndsAt, &res.Status, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
