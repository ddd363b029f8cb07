package usecases

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"chatdagang/internal/entities"
	"chatdagang/internal/interfaces"
)

type CatalogReader interface {
	ListItems(ctx context.Context, businessID int64) ([]entities.CatalogItem, error)
	FindItem(ctx context.Context, businessID int64, name string) (*entities.CatalogItem, error)
}

// RuleEngine is the built-in conversation engine used when no LLM engine is
// wired. Priority: 1. Greeting → 2. MENU → 3. Order line → 4. Checkout →
// 5. Clear → 6. Default.
type RuleEngine struct {
	catalog  CatalogReader
	settings SettingsReader
}

func NewRuleEngine(catalog CatalogReader, settings SettingsReader) *RuleEngine {
	return &RuleEngine{catalog: catalog, settings: settings}
}

func (e *RuleEngine) HandleTurn(ctx context.Context, tc entities.TenantContext, key entities.ConversationKey, msg entities.InboundMessage, cart entities.Cart) (interfaces.TurnResult, error) {
	content := strings.ToLower(strings.TrimSpace(msg.Body))

	switch {
	case isGreeting(content):
		return interfaces.TurnResult{ReplyText: e.welcome(ctx, tc.Business.ID)}, nil

	case isMenuCommand(content):
		return e.menuReply(ctx, tc.Business.ID)

	case strings.HasPrefix(content, "pesan ") || strings.HasPrefix(content, "order "):
		return e.addItem(ctx, tc.Business.ID, content, cart)

	case content == "kirim" || content == "checkout" || content == "selesai":
		return checkout(cart)

	case content == "batal" || content == "cancel":
		return interfaces.TurnResult{
			ReplyText:    "Keranjang dikosongkan. Ketik *MENU* untuk mulai lagi.",
			UpdatedItems: []entities.LineItem{},
		}, nil
	}

	return interfaces.TurnResult{
		ReplyText: "🤔 Maaf, saya tidak mengerti.\n\n" +
			"• Ketik *MENU* untuk daftar produk\n" +
			"• Ketik *PESAN [jumlah] [nama]* untuk memesan\n" +
			"• Ketik *KIRIM* untuk menyelesaikan pesanan",
	}, nil
}

func isGreeting(content string) bool {
	greetings := []string{"halo", "hai", "hello", "hi", "selamat pagi", "selamat siang", "selamat sore", "selamat malam", "/start", "start"}
	for _, g := range greetings {
		if content == g || strings.HasPrefix(content, g+" ") {
			return true
		}
	}
	return false
}

func isMenuCommand(content string) bool {
	menuCommands := []string{"menu", "help", "?", "daftar", "katalog"}
	for _, cmd := range menuCommands {
		if content == cmd || strings.HasPrefix(content, cmd+" ") {
			return true
		}
	}
	return false
}

func (e *RuleEngine) welcome(ctx context.Context, businessID int64) string {
	if e.settings != nil {
		if w, err := e.settings.GetSetting(ctx, businessID, "welcome_message"); err == nil && w != "" {
			return w
		}
	}
	return "👋 *Selamat datang!*\n\nKetik *MENU* untuk melihat produk yang tersedia."
}

func (e *RuleEngine) menuReply(ctx context.Context, businessID int64) (interfaces.TurnResult, error) {
	items, err := e.catalog.ListItems(ctx, businessID)
	if err != nil {
		return interfaces.TurnResult{}, err
	}
	if len(items) == 0 {
		return interfaces.TurnResult{ReplyText: "📋 Belum ada produk yang terdaftar."}, nil
	}

	var sb strings.Builder
	sb.WriteString("📋 *Menu:*\n\n")
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. %s — Rp%.0f\n", i+1, item.Name, item.Price))
	}
	sb.WriteString("\n_Ketik PESAN [jumlah] [nama] untuk memesan_")
	return interfaces.TurnResult{ReplyText: sb.String()}, nil
}

// addItem parses "pesan 2 nasi goreng" into a line item.
func (e *RuleEngine) addItem(ctx context.Context, businessID int64, content string, cart entities.Cart) (interfaces.TurnResult, error) {
	fields := strings.Fields(content)
	if len(fields) < 3 {
		return interfaces.TurnResult{ReplyText: "Format: *PESAN [jumlah] [nama produk]*\nContoh: PESAN 2 nasi goreng"}, nil
	}

	qty, err := strconv.Atoi(fields[1])
	if err != nil || qty < 1 {
		return interfaces.TurnResult{ReplyText: "Jumlah tidak valid. Contoh: PESAN 2 nasi goreng"}, nil
	}
	name := strings.Join(fields[2:], " ")

	item, err := e.catalog.FindItem(ctx, businessID, name)
	if err != nil {
		return interfaces.TurnResult{}, err
	}
	if item == nil || !item.Available {
		return interfaces.TurnResult{
			ReplyText: fmt.Sprintf("❌ \"%s\" tidak ditemukan. Ketik *MENU* untuk daftar produk.", name),
		}, nil
	}

	updated := append(append([]entities.LineItem{}, cart.Items...), entities.LineItem{
		Name:      item.Name,
		Qty:       qty,
		UnitPrice: item.Price,
	})
	preview := entities.Cart{Items: updated}

	return interfaces.TurnResult{
		ReplyText: fmt.Sprintf("✅ %d× %s ditambahkan.\nTotal sementara: Rp%.0f\n\nKetik *KIRIM* untuk menyelesaikan pesanan.",
			qty, item.Name, preview.Total()),
		UpdatedItems: updated,
	}, nil
}

func checkout(cart entities.Cart) (interfaces.TurnResult, error) {
	if len(cart.Items) == 0 {
		return interfaces.TurnResult{ReplyText: "Keranjang masih kosong. Ketik *MENU* untuk melihat produk."}, nil
	}

	orderID := strings.ToUpper(uuid.NewString()[:8])
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🧾 *Pesanan #%s dikonfirmasi!*\n\n", orderID))
	for _, it := range cart.Items {
		sb.WriteString(fmt.Sprintf("• %d× %s — Rp%.0f\n", it.Qty, it.Name, float64(it.Qty)*it.UnitPrice))
	}
	sb.WriteString(fmt.Sprintf("\nTotal: Rp%.0f\nTerima kasih! 🙏", cart.Total()))

	return interfaces.TurnResult{
		ReplyText:    sb.String(),
		OrderCreated: &interfaces.OrderRef{OrderID: orderID},
	}, nil
}
