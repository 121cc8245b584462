// Command checkout runs the full cart/checkout flow headlessly against a
// storefront backend: add to cart, sync, create a payment intent, confirm
// and fetch the resulting order.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/willowgrove/storefront/internal/adapter/backend"
	"github.com/willowgrove/storefront/internal/adapter/payment"
	"github.com/willowgrove/storefront/internal/adapter/storage"
	"github.com/willowgrove/storefront/internal/config"
	"github.com/willowgrove/storefront/internal/core/cart"
	"github.com/willowgrove/storefront/internal/core/checkout"
	"github.com/willowgrove/storefront/internal/core/domain"
	"github.com/willowgrove/storefront/internal/core/session"
	"github.com/willowgrove/storefront/internal/port"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file")
		productID  = flag.String("product", "oak-tree", "product id to purchase")
		name       = flag.String("name", "Oak Memorial Tree", "product name")
		price      = flag.String("price", "49.99", "unit price")
		quantity   = flag.Int("quantity", 1, "quantity to purchase")
		inventory  = flag.Int("inventory", 100, "available inventory")
		token      = flag.String("token", "dev-session", "session bearer token")
		buyer      = flag.String("buyer", "Jane Doe", "billing name")
		email      = flag.String("email", "jane@example.com", "billing email")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	unitPrice, err := decimal.NewFromString(*price)
	if err != nil {
		logger.Fatal("invalid price", zap.String("price", *price))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Session storage: Redis when configured, in-memory otherwise.
	var store port.CartStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		namespace := cfg.Redis.Namespace
		if namespace == "" {
			namespace = "checkout-cli"
		}
		store = storage.NewRedisStore(rdb, namespace)
	} else {
		store = storage.NewMemoryStore()
	}

	tokens := session.StaticToken(*token)
	cartSvc := cart.NewService(store)
	if err := cartSvc.Hydrate(ctx); err != nil {
		logger.Fatal("failed to hydrate cart", zap.Error(err))
	}

	api := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, tokens)

	var confirmer port.PaymentConfirmer
	if cfg.Stripe.SecretKey != "" {
		confirmer = payment.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.PaymentMethod)
	} else {
		confirmer = payment.NewLocal()
	}

	orch := checkout.New(checkout.Config{
		Cart:      cartSvc,
		Backend:   api,
		Payments:  confirmer,
		Tokens:    tokens,
		Logger:    logger,
		Currency:  cfg.Checkout.Currency,
		TaxRate:   decimal.NewFromFloat(cfg.Checkout.TaxRate),
		ReturnURL: cfg.Checkout.ReturnURL,
	})

	product := domain.Product{
		ID:        *productID,
		Name:      *name,
		Price:     unitPrice,
		Taxable:   true,
		Inventory: *inventory,
	}
	if err := cartSvc.AddItem(ctx, product, *quantity); err != nil {
		logger.Fatal("add to cart failed", zap.Error(err))
	}
	logger.Info("added to cart",
		zap.String("product", product.Name),
		zap.String("total", cartSvc.Total().StringFixed(2)))

	if err := orch.Begin(ctx); err != nil {
		logger.Fatal("checkout blocked", zap.String("reason", checkout.UserMessage(err)))
	}

	billing := domain.ContactDetails{
		Name:  *buyer,
		Email: *email,
		Phone: "+1 555 0100",
		Address: domain.Address{
			Line1:      "123 Main Street",
			City:       "Portland",
			State:      "OR",
			PostalCode: "97201",
			Country:    "US",
		},
	}
	if err := orch.CreateIntent(ctx, billing, domain.ContactDetails{}, true); err != nil {
		logger.Fatal("payment intent failed", zap.String("reason", checkout.UserMessage(err)))
	}

	if err := orch.Confirm(ctx); err != nil {
		logger.Fatal("payment failed", zap.String("reason", checkout.UserMessage(err)))
	}

	sess := orch.Session()
	order, err := api.Order(ctx, sess.OrderID)
	if err != nil || order == nil {
		logger.Fatal("order lookup failed", zap.Error(err))
	}

	logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.String("subtotal", order.Subtotal.StringFixed(2)),
		zap.String("tax", order.Tax.StringFixed(2)),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("cart_total_after", cartSvc.Total().StringFixed(2)))
}
