package router

import (
	"time"

	"github.com/jljulioa/POS-App-sub001/internal/config"
	"github.com/jljulioa/POS-App-sub001/internal/handler"
	"github.com/jljulioa/POS-App-sub001/internal/middleware"
	"github.com/jljulioa/POS-App-sub001/internal/repository"
	"github.com/jljulioa/POS-App-sub001/internal/service"
	"github.com/jljulioa/POS-App-sub001/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Roles carried in the JWT "role" claim.
const (
	RoleCashier    = "cashier"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// dispatcher may be nil, in which case no low-stock alerts are enqueued.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	txRepo := repository.NewInventoryTransactionRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	invoiceRepo := repository.NewPurchaseInvoiceRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	priceRepo := repository.NewPriceHistoryRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	stock := service.NewStockMutator(productRepo)
	ledger := service.NewLedgerWriter(txRepo)

	productSvc := service.NewProductService(productRepo, priceRepo, ledger)
	customerSvc := service.NewCustomerService(customerRepo)
	saleSvc := service.NewSaleService(saleRepo, customerRepo, stock, ledger, dispatcher)
	returnSvc := service.NewReturnService(saleRepo, customerRepo, stock, ledger)
	invoiceSvc := service.NewPurchaseInvoiceService(invoiceRepo, productRepo, priceRepo, stock, ledger)
	inventorySvc := service.NewInventoryService(productRepo, txRepo, saleRepo, invoiceRepo, stock, ledger, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productsH := handler.NewProductsHandler(productSvc)
	customersH := handler.NewCustomersHandler(customerSvc)
	salesH := handler.NewSalesHandler(saleSvc, returnSvc)
	invoicesH := handler.NewPurchaseInvoicesHandler(invoiceSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	anyone := middleware.RequireRole(RoleCashier, RoleSupervisor, RoleAdmin)
	managers := middleware.RequireRole(RoleSupervisor, RoleAdmin)
	admins := middleware.RequireRole(RoleAdmin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.GET("/products", anyone, productsH.List)
		v1.GET("/products/:id", anyone, productsH.GetByID)
		v1.GET("/products/:id/price-history", anyone, productsH.PriceHistory)
		v1.POST("/products", admins, productsH.Create)

		v1.POST("/customers", anyone, customersH.Create)
		v1.GET("/customers/:id", anyone, customersH.GetByID)

		v1.POST("/sales", anyone, salesH.Record)
		v1.GET("/sales", anyone, salesH.List)
		v1.GET("/sales/:id", anyone, salesH.Get)
		v1.POST("/sales/:id/returns", managers, salesH.Return)

		inv := v1.Group("/purchase-invoices", managers)
		{
			inv.POST("", invoicesH.Create)
			inv.GET("", invoicesH.List)
			inv.GET("/:id", invoicesH.Get)
			inv.POST("/:id/receive", invoicesH.Receive)
			inv.POST("/:id/payments", invoicesH.RecordPayment)
		}

		stockGrp := v1.Group("/inventory", managers)
		{
			stockGrp.POST("/adjustments", inventoryH.Adjust)
			stockGrp.GET("/transactions", inventoryH.Transactions)
			stockGrp.GET("/alerts", inventoryH.Alerts)
			stockGrp.GET("/reconciliation", inventoryH.Reconciliation)
		}
	}

	return r
}
