package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"chatdagang/internal/entities"
)

// AuditRepository is the append-only transcript. Rows are never updated or
// deleted.
type AuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Insert(ctx context.Context, rec *entities.MessageLog) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO message_logs
			(business_id, direction, channel, customer_channel_id, correlation_id,
			 kind, body, provider_message_id, tokens_in, tokens_out, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, rec.BusinessID, rec.Direction, rec.Channel, rec.CustomerChannelID, rec.CorrelationID,
		rec.Kind, rec.Body, rec.ProviderMessageID, rec.TokensIn, rec.TokensOut, rec.CreatedAt,
	).Scan(&rec.ID)
}

func (r *AuditRepository) ListByConversation(ctx context.Context, key entities.ConversationKey, limit int) ([]entities.MessageLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, business_id, direction, channel, customer_channel_id, correlation_id,
		       kind, body, provider_message_id, tokens_in, tokens_out, created_at
		FROM message_logs
		WHERE business_id = $1 AND customer_channel_id = $2
		ORDER BY created_at DESC LIMIT $3
	`, key.BusinessID, key.CustomerChannelID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []entities.MessageLog
	for rows.Next() {
		var l entities.MessageLog
		if err := rows.Scan(&l.ID, &l.BusinessID, &l.Direction, &l.Channel, &l.CustomerChannelID,
			&l.CorrelationID, &l.Kind, &l.Body, &l.ProviderMessageID, &l.TokensIn, &l.TokensOut, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
