package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdagang/internal/entities"
	"chatdagang/internal/interfaces"
)

type memCatalog struct {
	items []entities.CatalogItem
}

func (c *memCatalog) ListItems(ctx context.Context, businessID int64) ([]entities.CatalogItem, error) {
	return c.items, nil
}

func (c *memCatalog) FindItem(ctx context.Context, businessID int64, name string) (*entities.CatalogItem, error) {
	for i := range c.items {
		if strings.EqualFold(c.items[i].Name, name) {
			return &c.items[i], nil
		}
	}
	return nil, nil
}

type memSettings struct {
	values map[string]string
}

func (s *memSettings) GetSetting(ctx context.Context, businessID int64, key string) (string, error) {
	return s.values[key], nil
}

func testEngine() *RuleEngine {
	catalog := &memCatalog{items: []entities.CatalogItem{
		{ID: 1, BusinessID: 1, Name: "Nasi Goreng", Price: 25000, Available: true},
		{ID: 2, BusinessID: 1, Name: "Es Teh", Price: 5000, Available: true},
		{ID: 3, BusinessID: 1, Name: "Rendang", Price: 40000, Available: false},
	}}
	return NewRuleEngine(catalog, &memSettings{values: map[string]string{}})
}

func turn(t *testing.T, e *RuleEngine, body string, cart entities.Cart) interfaces.TurnResult {
	t.Helper()
	res, err := e.HandleTurn(context.Background(), approvedTenant(),
		entities.ConversationKey{BusinessID: 1, CustomerChannelID: "628222"},
		inbound(body), cart)
	require.NoError(t, err)
	return res
}

func TestRuleEngineGreeting(t *testing.T) {
	e := testEngine()
	for _, body := range []string{"halo", "Hai", "selamat pagi", "/start"} {
		res := turn(t, e, body, entities.Cart{})
		assert.Contains(t, res.ReplyText, "Selamat datang", "greeting %q", body)
	}
}

func TestRuleEngineCustomWelcome(t *testing.T) {
	catalog := &memCatalog{}
	e := NewRuleEngine(catalog, &memSettings{values: map[string]string{
		"welcome_message": "Halo dari Warung Tester!",
	}})
	res := turn(t, e, "halo", entities.Cart{})
	assert.Equal(t, "Halo dari Warung Tester!", res.ReplyText)
}

func TestRuleEngineMenuListsAvailableItems(t *testing.T) {
	e := testEngine()
	res := turn(t, e, "menu", entities.Cart{})
	assert.Contains(t, res.ReplyText, "Nasi Goreng")
	assert.Contains(t, res.ReplyText, "Es Teh")
}

func TestRuleEngineAddItem(t *testing.T) {
	e := testEngine()
	res := turn(t, e, "pesan 2 nasi goreng", entities.Cart{})

	require.Len(t, res.UpdatedItems, 1)
	assert.Equal(t, "Nasi Goreng", res.UpdatedItems[0].Name)
	assert.Equal(t, 2, res.UpdatedItems[0].Qty)
	assert.Contains(t, res.ReplyText, "50000")
}

func TestRuleEngineAddItemAppends(t *testing.T) {
	e := testEngine()
	cart := entities.Cart{Items: []entities.LineItem{{Name: "Es Teh", Qty: 1, UnitPrice: 5000}}}
	res := turn(t, e, "order 1 nasi goreng", cart)

	require.Len(t, res.UpdatedItems, 2)
	assert.Equal(t, "Es Teh", res.UpdatedItems[0].Name)
	assert.Equal(t, "Nasi Goreng", res.UpdatedItems[1].Name)
}

func TestRuleEngineUnknownItem(t *testing.T) {
	e := testEngine()
	res := turn(t, e, "pesan 1 sate ayam", entities.Cart{})
	assert.Nil(t, res.UpdatedItems)
	assert.Contains(t, res.ReplyText, "tidak ditemukan")
}

func TestRuleEngineUnavailableItemNotOrderable(t *testing.T) {
	e := testEngine()
	res := turn(t, e, "pesan 1 rendang", entities.Cart{})
	assert.Nil(t, res.UpdatedItems)
}

func TestRuleEngineBadQuantity(t *testing.T) {
	e := testEngine()
	for _, body := range []string{"pesan x nasi goreng", "pesan 0 nasi goreng", "pesan nasi"} {
		res := turn(t, e, body, entities.Cart{})
		assert.Nil(t, res.UpdatedItems, "input %q", body)
		assert.Nil(t, res.OrderCreated)
	}
}

func TestRuleEngineCheckout(t *testing.T) {
	e := testEngine()
	cart := entities.Cart{Items: []entities.LineItem{
		{Name: "Nasi Goreng", Qty: 2, UnitPrice: 25000},
	}}
	res := turn(t, e, "kirim", cart)

	require.NotNil(t, res.OrderCreated)
	assert.Len(t, res.OrderCreated.OrderID, 8)
	assert.Contains(t, res.ReplyText, res.OrderCreated.OrderID)
	assert.Contains(t, res.ReplyText, "50000")
}

func TestRuleEngineCheckoutEmptyCart(t *testing.T) {
	e := testEngine()
	res := turn(t, e, "checkout", entities.Cart{})
	assert.Nil(t, res.OrderCreated)
	assert.Contains(t, res.ReplyText, "kosong")
}

func TestRuleEngineCancelEmptiesCart(t *testing.T) {
	e := testEngine()
	cart := entities.Cart{Items: []entities.LineItem{{Name: "Es Teh", Qty: 1, UnitPrice: 5000}}}
	res := turn(t, e, "batal", cart)

	require.NotNil(t, res.UpdatedItems)
	assert.Empty(t, res.UpdatedItems)
}

func TestRuleEngineFallback(t *testing.T) {
	e := testEngine()
	res := turn(t, e, "apakah buka hari minggu?", entities.Cart{})
	assert.Contains(t, res.ReplyText, "MENU")
	assert.Nil(t, res.UpdatedItems)
}
