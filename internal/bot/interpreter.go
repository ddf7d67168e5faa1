package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/flicky/chat-commerce-api/internal/model"
	"github.com/flicky/chat-commerce-api/internal/service"
	"github.com/flicky/chat-commerce-api/internal/whatsapp"
)

const (
	menuLimit         = 10
	recentOrdersLimit = 5
)

// Catalog is the product lookup surface the interpreter needs.
type Catalog interface {
	MenuProducts(ctx context.Context, limit int) ([]model.Product, error)
	ProductByChatCode(ctx context.Context, code int) (*model.Product, error)
}

// OrderPlacer is the order surface the interpreter needs.
type OrderPlacer interface {
	PlaceChatOrder(ctx context.Context, customer *model.Customer, productID uuid.UUID, quantity int) (*model.Order, error)
	RecentForCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]model.Order, error)
}

// Reply is what the interpreter wants sent back: plain text, or an
// interactive list when List is set.
type Reply struct {
	Text string
	List *whatsapp.InteractiveList
}

type Interpreter struct {
	catalog Catalog
	orders  OrderPlacer
	contact string
	log     *slog.Logger
}

func NewInterpreter(catalog Catalog, orders OrderPlacer, contactInfo string, log *slog.Logger) *Interpreter {
	return &Interpreter{catalog: catalog, orders: orders, contact: contactInfo, log: log}
}

// Handle executes one command for a customer and returns the reply to send.
// Downstream failures become user-facing text; Handle never returns an
// error, so a broken purchase can't abort the webhook dispatch.
func (i *Interpreter) Handle(ctx context.Context, customer *model.Customer, cmd Command) Reply {
	switch cmd.Kind {
	case CommandGreeting:
		return Reply{Text: i.welcomeText(customer)}
	case CommandMenu:
		return i.menu(ctx)
	case CommandOrders:
		return i.recentOrders(ctx, customer)
	case CommandBuy:
		return i.buy(ctx, customer, cmd.ChatCode)
	case CommandContact:
		return Reply{Text: i.contact}
	default:
		return Reply{Text: helpText}
	}
}

const helpText = "Je n'ai pas compris 🤔\n\n" +
	"Commandes disponibles :\n" +
	"• *menu* — voir nos produits\n" +
	"• *acheter <numéro>* — commander un produit\n" +
	"• *commandes* — suivre vos commandes"

func (i *Interpreter) welcomeText(customer *model.Customer) string {
	name := customer.ProfileName
	if name == "" {
		name = "cher client"
	}
	return fmt.Sprintf("Bonjour %s 👋 Bienvenue !\n\nTapez *menu* pour voir nos produits ou *commandes* pour suivre vos achats.", name)
}

func (i *Interpreter) menu(ctx context.Context) Reply {
	products, err := i.catalog.MenuProducts(ctx, menuLimit)
	if err != nil {
		i.log.Error("load menu products", "error", err)
		return Reply{Text: "Désolé, le catalogue est momentanément indisponible. Réessayez plus tard."}
	}
	if len(products) == 0 {
		return Reply{Text: "Aucun produit disponible pour le moment."}
	}

	rows := make([]whatsapp.ListRow, 0, len(products))
	var sb strings.Builder
	sb.WriteString("🛍️ *Nos produits*\n\n")
	for _, p := range products {
		sb.WriteString(fmt.Sprintf("%d. %s — %s FCFA (stock : %d)\n", p.ChatCode, p.DisplayName(), p.Price.String(), p.Stock))
		rows = append(rows, whatsapp.ListRow{
			ID:          fmt.Sprintf("product_%d", p.ChatCode),
			Title:       p.DisplayName(),
			Description: p.Price.String() + " FCFA",
		})
	}
	sb.WriteString("\nPour commander : *acheter <numéro>*")

	return Reply{
		Text: sb.String(),
		List: &whatsapp.InteractiveList{
			Header: "Catalogue",
			Body:   "Choisissez un produit",
			Button: "Voir",
			Rows:   rows,
		},
	}
}

func (i *Interpreter) recentOrders(ctx context.Context, customer *model.Customer) Reply {
	orders, err := i.orders.RecentForCustomer(ctx, customer.ID, recentOrdersLimit)
	if err != nil {
		i.log.Error("load customer orders", "error", err, "customer_id", customer.ID)
		return Reply{Text: "Désolé, impossible de récupérer vos commandes pour le moment."}
	}
	if len(orders) == 0 {
		return Reply{Text: "Vous n'avez aucune commande. Tapez *menu* pour découvrir nos produits !"}
	}

	var sb strings.Builder
	sb.WriteString("📦 *Vos commandes*\n\n")
	for _, o := range orders {
		sb.WriteString(fmt.Sprintf("• %s — %s — %s FCFA\n", o.OrderNumber, statusLabel(o.Status), o.Total.String()))
	}
	return Reply{Text: sb.String()}
}

func (i *Interpreter) buy(ctx context.Context, customer *model.Customer, chatCode int) Reply {
	product, err := i.catalog.ProductByChatCode(ctx, chatCode)
	if err != nil {
		i.log.Error("resolve product", "error", err, "chat_code", chatCode)
		return Reply{Text: "Désolé, une erreur est survenue. Réessayez plus tard."}
	}
	if product == nil {
		return Reply{Text: fmt.Sprintf("Le produit n° %d n'existe pas. Tapez *menu* pour voir le catalogue.", chatCode)}
	}
	if product.Stock < 1 {
		return Reply{Text: fmt.Sprintf("Désolé, *%s* est en rupture de stock.", product.DisplayName())}
	}

	order, err := i.orders.PlaceChatOrder(ctx, customer, product.ID, 1)
	if err != nil {
		if errors.Is(err, service.ErrInsufficientStock) {
			return Reply{Text: fmt.Sprintf("Désolé, *%s* vient d'être épuisé.", product.DisplayName())}
		}
		if errors.Is(err, service.ErrInvalidProduct) {
			return Reply{Text: fmt.Sprintf("Le produit n° %d n'est plus disponible.", chatCode)}
		}
		i.log.Error("place chat order", "error", err, "customer_id", customer.ID, "chat_code", chatCode)
		return Reply{Text: "Désolé, votre commande n'a pas pu être créée. Réessayez plus tard."}
	}

	return Reply{Text: fmt.Sprintf(
		"✅ Commande confirmée !\n\n*%s*\nTotal : %s FCFA\nRéférence : %s\n\nNous vous contacterons pour la livraison.",
		product.DisplayName(), order.Total.String(), order.OrderNumber,
	)}
}

func statusLabel(s model.OrderStatus) string {
	switch s {
	case model.OrderStatusPending:
		return "en attente"
	case model.OrderStatusConfirmed:
		return "confirmée"
	case model.OrderStatusProcessing:
		return "en préparation"
	case model.OrderStatusShipped:
		return "expédiée"
	case model.OrderStatusDelivered:
		return "livrée"
	case model.OrderStatusCancelled:
		return "annulée"
	case model.OrderStatusRefunded:
		return "remboursée"
	default:
		return string(s)
	}
}
