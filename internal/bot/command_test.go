package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Command
	}{
		{"greeting", "Bonjour", Command{Kind: CommandGreeting}},
		{"greeting casual", "cc", Command{Kind: CommandGreeting}},
		{"menu", "menu", Command{Kind: CommandMenu}},
		{"menu alias", "PRODUITS", Command{Kind: CommandMenu}},
		{"catalogue", "catalogue", Command{Kind: CommandMenu}},
		{"orders", "commandes", Command{Kind: CommandOrders}},
		{"orders singular", "commande", Command{Kind: CommandOrders}},
		{"buy", "acheter 3", Command{Kind: CommandBuy, ChatCode: 3}},
		{"buy padded", "  Acheter   12 ", Command{Kind: CommandBuy, ChatCode: 12}},
		{"buy no code", "acheter", Command{Kind: CommandHelp}},
		{"buy non-numeric", "acheter trois", Command{Kind: CommandHelp}},
		{"buy zero", "acheter 0", Command{Kind: CommandHelp}},
		{"buy negative", "acheter -2", Command{Kind: CommandHelp}},
		{"gibberish", "azerty", Command{Kind: CommandHelp}},
		{"empty", "", Command{Kind: CommandHelp}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text))
		})
	}
}

func TestParse_TrimAndCase(t *testing.T) {
	assert.Equal(t, Command{Kind: CommandGreeting}, Parse("  BONSOIR  "))
	assert.Equal(t, Command{Kind: CommandOrders}, Parse("Panier"))
}

func TestParseInteractive(t *testing.T) {
	tests := []struct {
		replyID string
		want    Command
	}{
		{"view_products", Command{Kind: CommandMenu}},
		{"track_order", Command{Kind: CommandOrders}},
		{"contact_info", Command{Kind: CommandContact}},
		{"product_7", Command{Kind: CommandBuy, ChatCode: 7}},
		{"product_abc", Command{Kind: CommandHelp}},
		{"product_0", Command{Kind: CommandHelp}},
		{"unknown_id", Command{Kind: CommandHelp}},
		{"", Command{Kind: CommandHelp}},
	}
	for _, tt := range tests {
		t.Run(tt.replyID, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInteractive(tt.replyID))
		})
	}
}
