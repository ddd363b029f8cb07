package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatdagang/internal/entities"
)

// TenantRepository backs tenant resolution: the unified integration registry
// plus the two legacy channel-id lookups kept for rows that predate it.
type TenantRepository struct {
	db *pgxpool.Pool
}

func NewTenantRepository(db *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) FindIntegration(ctx context.Context, platform entities.Channel, externalID string) (*entities.Integration, error) {
	var integ entities.Integration
	var businessID *int64
	err := r.db.QueryRow(ctx, `
		SELECT id, platform, external_id, provider, enabled, business_id, branch_id, credentials
		FROM channel_integrations
		WHERE platform = $1 AND external_id = $2
	`, string(platform), externalID).Scan(
		&integ.ID, &integ.Platform, &integ.ExternalID, &integ.Provider,
		&integ.Enabled, &businessID, &integ.OwnerBranchID, &integ.SealedCredentials,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if businessID != nil {
		integ.OwnerBusinessID = *businessID
	}
	return &integ, nil
}

func (r *TenantRepository) FindBranchByChannelID(ctx context.Context, channelID string) (*entities.Branch, string, error) {
	var b entities.Branch
	var sealed *string
	err := r.db.QueryRow(ctx, `
		SELECT id, business_id, name, chatbot_enabled, legacy_credentials
		FROM branches WHERE channel_id = $1
	`, channelID).Scan(&b.ID, &b.BusinessID, &b.Name, &b.ChatbotEnabled, &sealed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &b, deref(sealed), nil
}

func (r *TenantRepository) FindBusinessByChannelID(ctx context.Context, channelID string) (*entities.Business, string, error) {
	var b entities.Business
	var sealed *string
	err := r.db.QueryRow(ctx, `
		SELECT id, name, contract_status, chatbot_enabled, legacy_credentials
		FROM businesses WHERE channel_id = $1
	`, channelID).Scan(&b.ID, &b.Name, &b.ContractStatus, &b.ChatbotEnabled, &sealed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return &b, deref(sealed), nil
}

func (r *TenantRepository) GetBusiness(ctx context.Context, id int64) (*entities.Business, error) {
	var b entities.Business
	err := r.db.QueryRow(ctx, `
		SELECT id, name, contract_status, chatbot_enabled FROM businesses WHERE id = $1
	`, id).Scan(&b.ID, &b.Name, &b.ContractStatus, &b.ChatbotEnabled)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *TenantRepository) GetBranch(ctx context.Context, id int64) (*entities.Branch, error) {
	var b entities.Branch
	err := r.db.QueryRow(ctx, `
		SELECT id, business_id, name, chatbot_enabled FROM branches WHERE id = $1
	`, id).Scan(&b.ID, &b.BusinessID, &b.Name, &b.ChatbotEnabled)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *TenantRepository) BranchesOf(ctx context.Context, businessID int64) ([]entities.Branch, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, business_id, name, chatbot_enabled FROM branches WHERE business_id = $1 ORDER BY id
	`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []entities.Branch
	for rows.Next() {
		var b entities.Branch
		if err := rows.Scan(&b.ID, &b.BusinessID, &b.Name, &b.ChatbotEnabled); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
