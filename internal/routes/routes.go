package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/velora/internal/config"
	"github.com/example/velora/internal/handlers"
	"github.com/example/velora/internal/middleware"
	"github.com/example/velora/internal/orders"
	"github.com/example/velora/internal/pricing"
	"github.com/example/velora/internal/services"
)

// Register wires up all HTTP routes. It returns the outbox so main can
// drain it on shutdown.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) *orders.Outbox {
	registry := pricing.NewCountryTaxRegistry(pricing.NewGormCountryStore(db))
	ruleTable := pricing.NewDeliveryRuleTable(pricing.NewGormRuleStore(db))
	resolver := pricing.NewResolver(registry, ruleTable)

	stripeService := services.NewStripeService(cfg.StripeSecretKey)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	telegramService := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)

	outbox := orders.NewOutbox(cfg.OutboxWorkers)
	orderService := orders.NewService(orders.NewGormStore(db), resolver, outbox, emailService, telegramService)

	checkoutHandler := handlers.NewCheckoutHandler(db, resolver)
	orderHandler := handlers.NewOrderHandler(orderService, stripeService, cfg.Currency)
	paymentsHandler := handlers.NewPaymentsHandler(orderService, stripeService, cfg.StripeWebhookSecret)
	catalogHandler := handlers.NewCatalogHandler(db)
	productHandler := handlers.NewProductHandler(db)
	shippingHandler := handlers.NewShippingHandler(db, ruleTable)
	adminHandler := handlers.NewAdminHandler(db, cfg, orderService)

	api := app.Group("/api")

	// Storefront catalog
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/categories/:id", catalogHandler.GetCategory)
	api.Get("/products", productHandler.ListProducts)
	api.Get("/products/:id", productHandler.GetProduct)

	// Checkout
	api.Get("/countries", checkoutHandler.ListCountries)
	api.Post("/checkout/calculate", checkoutHandler.Calculate)

	// Orders and payments
	api.Post("/orders", orderHandler.CreateOrder)
	api.Get("/orders/:id", orderHandler.GetOrder)
	api.Post("/payments/intent", paymentsHandler.CreateIntent)
	api.Post("/payments/confirm", orderHandler.ConfirmPayment)
	api.Post("/payments/webhook", paymentsHandler.Webhook)

	// Back office
	admin := api.Group("/admin")
	admin.Post("/login", adminHandler.Login)
	admin.Post("/seed", adminHandler.Seed)

	protected := admin.Group("", middleware.AdminAuth(db, cfg))

	protected.Get("/dashboard", adminHandler.DashboardStats)
	protected.Get("/analytics/:period", adminHandler.Analytics)

	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Put("/orders/:id/status", adminHandler.UpdateOrderStatus)
	protected.Put("/orders/:id/payment-status", adminHandler.UpdatePaymentStatus)
	protected.Put("/orders/:id/tracking", adminHandler.SetTracking)

	protected.Post("/categories", catalogHandler.CreateCategory)
	protected.Put("/categories/:id", catalogHandler.UpdateCategory)
	protected.Delete("/categories/:id", catalogHandler.DeleteCategory)

	protected.Post("/products", productHandler.CreateProduct)
	protected.Put("/products/:id", productHandler.UpdateProduct)
	protected.Delete("/products/:id", productHandler.DeleteProduct)
	protected.Put("/products/:id/hot-deal", productHandler.SetHotDeal)
	protected.Delete("/products/:id/hot-deal", productHandler.RemoveHotDeal)

	protected.Get("/countries", shippingHandler.ListCountries)
	protected.Post("/countries", shippingHandler.CreateCountry)
	protected.Put("/countries/:id", shippingHandler.UpdateCountry)
	protected.Delete("/countries/:id", shippingHandler.DeleteCountry)

	protected.Get("/delivery-rules", shippingHandler.ListRules)
	protected.Post("/delivery-rules", shippingHandler.CreateRule)
	protected.Put("/delivery-rules/:id", shippingHandler.UpdateRule)
	protected.Delete("/delivery-rules/:id", shippingHandler.DeleteRule)
	protected.Post("/delivery-rules/calculate", shippingHandler.CalculateRule)

	return outbox
}
