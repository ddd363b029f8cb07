package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatdagang/internal/entities"
	"chatdagang/internal/usecases"
)

// CartRepository stores carts, their status history, and the handover
// sessions sharing the conversation key. Expiry is evaluated at read time;
// the first writer that observes a stale cart transitions it.
type CartRepository struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewCartRepository(db *pgxpool.Pool) *CartRepository {
	return &CartRepository{db: db, now: time.Now}
}

func (r *CartRepository) GetOrCreateCart(ctx context.Context, key entities.ConversationKey) (*entities.Cart, error) {
	cart, err := r.openCart(ctx, key)
	if err != nil {
		return nil, err
	}

	if cart != nil {
		if !cart.Expired(r.now()) {
			return cart, nil
		}
		// Read-time TTL: this cart is logically gone, transition it before
		// handing out a fresh one.
		if err := r.transition(ctx, cart.ID, entities.CartStatusExpired, "cart ttl exceeded"); err != nil {
			return nil, err
		}
	}

	return r.createCart(ctx, key)
}

func (r *CartRepository) openCart(ctx context.Context, key entities.ConversationKey) (*entities.Cart, error) {
	var (
		cart     entities.Cart
		items    []byte
		delivery []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, status, items, delivery, scheduled_at, created_at, updated_at
		FROM carts
		WHERE business_id = $1 AND customer_channel_id = $2 AND status = 'cart'
		ORDER BY created_at DESC LIMIT 1
	`, key.BusinessID, key.CustomerChannelID).Scan(
		&cart.ID, &cart.Status, &items, &delivery, &cart.ScheduledAt, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cart.Key = key
	if err := json.Unmarshal(items, &cart.Items); err != nil {
		return nil, err
	}
	if delivery != nil {
		if err := json.Unmarshal(delivery, &cart.Delivery); err != nil {
			return nil, err
		}
	}
	return &cart, nil
}

func (r *CartRepository) createCart(ctx context.Context, key entities.ConversationKey) (*entities.Cart, error) {
	cart := &entities.Cart{
		Key:       key,
		Status:    entities.CartStatusOpen,
		Items:     []entities.LineItem{},
		CreatedAt: r.now(),
		UpdatedAt: r.now(),
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO carts (business_id, customer_channel_id, status, items, created_at, updated_at)
		VALUES ($1, $2, 'cart', '[]', $3, $3)
		RETURNING id
	`, key.BusinessID, key.CustomerChannelID, cart.CreatedAt).Scan(&cart.ID)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// SaveCart commits only while the row still holds "cart" status, so a
// concurrent operator cancel always wins and the customer turn notices.
func (r *CartRepository) SaveCart(ctx context.Context, cart *entities.Cart) error {
	items, err := json.Marshal(cart.Items)
	if err != nil {
		return err
	}
	var delivery []byte
	if cart.Delivery != nil {
		if delivery, err = json.Marshal(cart.Delivery); err != nil {
			return err
		}
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE carts
		SET items = $1, delivery = $2, scheduled_at = $3, updated_at = $4
		WHERE id = $5 AND status = 'cart'
	`, items, delivery, cart.ScheduledAt, cart.UpdatedAt, cart.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return usecases.ErrCartClosed
	}
	return nil
}

func (r *CartRepository) CheckoutCart(ctx context.Context, cart *entities.Cart, note string) error {
	items, err := json.Marshal(cart.Items)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE carts SET items = $1, status = 'ordered', updated_at = $2
		WHERE id = $3 AND status = 'cart'
	`, items, cart.UpdatedAt, cart.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return usecases.ErrCartClosed
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO cart_status_history (cart_id, status, note) VALUES ($1, 'ordered', $2)
	`, cart.ID, note); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *CartRepository) CancelCart(ctx context.Context, businessID, cartID int64, note string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE carts SET status = 'rejected', updated_at = NOW()
		WHERE id = $1 AND business_id = $2 AND status = 'cart'
	`, cartID, businessID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return usecases.ErrCartClosed
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO cart_status_history (cart_id, status, note) VALUES ($1, 'rejected', $2)
	`, cartID, note); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *CartRepository) transition(ctx context.Context, cartID int64, status entities.CartStatus, note string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE carts SET status = $1, updated_at = NOW() WHERE id = $2 AND status = 'cart'
	`, string(status), cartID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO cart_status_history (cart_id, status, note) VALUES ($1, $2, $3)
	`, cartID, string(status), note); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *CartRepository) ListCarts(ctx context.Context, businessID int64) ([]entities.Cart, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, customer_channel_id, status, items, delivery, scheduled_at, created_at, updated_at
		FROM carts WHERE business_id = $1 ORDER BY updated_at DESC LIMIT 200
	`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var carts []entities.Cart
	for rows.Next() {
		var (
			cart     entities.Cart
			items    []byte
			delivery []byte
		)
		if err := rows.Scan(&cart.ID, &cart.Key.CustomerChannelID, &cart.Status, &items, &delivery,
			&cart.ScheduledAt, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
			return nil, err
		}
		cart.Key.BusinessID = businessID
		if err := json.Unmarshal(items, &cart.Items); err != nil {
			return nil, err
		}
		if delivery != nil {
			if err := json.Unmarshal(delivery, &cart.Delivery); err != nil {
				return nil, err
			}
		}
		carts = append(carts, cart)
	}
	return carts, rows.Err()
}

func (r *CartRepository) GetSession(ctx context.Context, key entities.ConversationKey) (*entities.Session, error) {
	var s entities.Session
	err := r.db.QueryRow(ctx, `
		SELECT assigned_employee_id, locked, updated_at
		FROM conversation_sessions
		WHERE business_id = $1 AND customer_channel_id = $2
	`, key.BusinessID, key.CustomerChannelID).Scan(&s.AssignedEmployeeID, &s.Locked, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Key = key
	return &s, nil
}

func (r *CartRepository) SetSessionLock(ctx context.Context, key entities.ConversationKey, employeeID *int64, locked bool) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversation_sessions (business_id, customer_channel_id, assigned_employee_id, locked, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (business_id, customer_channel_id)
		DO UPDATE SET assigned_employee_id = EXCLUDED.assigned_employee_id, locked = EXCLUDED.locked, updated_at = NOW()
	`, key.BusinessID, key.CustomerChannelID, employeeID, locked)
	return err
}
