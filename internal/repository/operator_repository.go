package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatdagang/internal/entities"
)

type OperatorRepository struct {
	db *pgxpool.Pool
}

func NewOperatorRepository(db *pgxpool.Pool) *OperatorRepository {
	return &OperatorRepository{db: db}
}

func (r *OperatorRepository) GetByUsername(ctx context.Context, username string) (*entities.Operator, error) {
	var op entities.Operator
	err := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, role, business_id FROM operators WHERE username = $1
	`, username).Scan(&op.ID, &op.Username, &op.PasswordHash, &op.Role, &op.BusinessID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *OperatorRepository) Create(ctx context.Context, op *entities.Operator) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO operators (username, password_hash, role, business_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, op.Username, op.PasswordHash, op.Role, op.BusinessID).Scan(&op.ID)
}
