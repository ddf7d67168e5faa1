// Package bot turns inbound chat text and interactive replies into catalog
// and order actions.
package bot

import (
	"strconv"
	"strings"
)

type CommandKind int

const (
	CommandHelp CommandKind = iota
	CommandGreeting
	CommandMenu
	CommandOrders
	CommandBuy
	CommandContact
)

// Command is the parsed form of one inbound chat message. ChatCode is only
// meaningful for CommandBuy.
type Command struct {
	Kind     CommandKind
	ChatCode int
}

var greetings = map[string]bool{
	"bonjour": true,
	"bonsoir": true,
	"salut":   true,
	"hello":   true,
	"hi":      true,
	"cc":      true,
}

var menuWords = map[string]bool{
	"menu":      true,
	"produits":  true,
	"catalogue": true,
}

var orderWords = map[string]bool{
	"commande":  true,
	"commandes": true,
	"panier":    true,
}

// Parse maps free text to a Command. Matching is case-insensitive on the
// trimmed input; anything unrecognized falls back to help.
func Parse(text string) Command {
	normalized := strings.ToLower(strings.TrimSpace(text))

	switch {
	case greetings[normalized]:
		return Command{Kind: CommandGreeting}
	case menuWords[normalized]:
		return Command{Kind: CommandMenu}
	case orderWords[normalized]:
		return Command{Kind: CommandOrders}
	}

	if rest, ok := strings.CutPrefix(normalized, "acheter "); ok {
		code := strings.TrimSpace(rest)
		if n, err := strconv.Atoi(code); err == nil && n > 0 {
			return Command{Kind: CommandBuy, ChatCode: n}
		}
	}

	return Command{Kind: CommandHelp}
}

// ParseInteractive maps a button or list reply id to a Command. The id set
// is fixed: view_products, track_order, contact_info, product_<code>.
func ParseInteractive(replyID string) Command {
	switch replyID {
	case "view_products":
		return Command{Kind: CommandMenu}
	case "track_order":
		return Command{Kind: CommandOrders}
	case "contact_info":
		return Command{Kind: CommandContact}
	}

	if rest, ok := strings.CutPrefix(replyID, "product_"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			return Command{Kind: CommandBuy, ChatCode: n}
		}
	}

	return Command{Kind: CommandHelp}
}
