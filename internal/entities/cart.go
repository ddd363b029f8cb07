package entities

import "time"

// CartTTL is the single source of truth for cart expiry. Every reader,
// dashboard and pipeline alike, computes timeout from this constant so the
// two paths can never disagree on what counts as expired.
const CartTTL = 2 * time.Hour

type CartStatus string

const (
	CartStatusOpen     CartStatus = "cart"
	CartStatusOrdered  CartStatus = "ordered"
	CartStatusRejected CartStatus = "rejected"
	CartStatusExpired  CartStatus = "expired"
)

type LineItem struct {
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unit_price"`
	Note      string  `json:"note,omitempty"`
}

type Delivery struct {
	Method  string `json:"method"` // pickup | delivery
	Address string `json:"address,omitempty"`
}

type Cart struct {
	ID          int64           `json:"id"`
	Key         ConversationKey `json:"key"`
	Status      CartStatus      `json:"status"`
	Items       []LineItem      `json:"items"`
	Delivery    *Delivery       `json:"delivery,omitempty"`
	ScheduledAt *time.Time      `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (c *Cart) Total() float64 {
	var sum float64
	for _, it := range c.Items {
		sum += float64(it.Qty) * it.UnitPrice
	}
	return sum
}

// MinutesSinceUpdate and MinutesUntilTimeout share the TTL formula. A negative
// MinutesUntilTimeout means the cart is logically gone even if the row has not
// been transitioned yet; the first writer that observes this does so.
func (c *Cart) MinutesSinceUpdate(now time.Time) int {
	return int(now.Sub(c.UpdatedAt).Minutes())
}

func (c *Cart) MinutesUntilTimeout(now time.Time) int {
	return int(CartTTL.Minutes()) - c.MinutesSinceUpdate(now)
}

func (c *Cart) Expired(now time.Time) bool {
	return c.MinutesUntilTimeout(now) < 0
}

// Session is the handover sub-entity sharing the conversation key. A locked
// session keeps the automated engine out while a human agent is active.
type Session struct {
	Key                ConversationKey `json:"key"`
	AssignedEmployeeID *int64          `json:"assigned_employee_id,omitempty"`
	Locked             bool            `json:"locked"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
