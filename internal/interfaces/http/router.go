package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-lotes/internal/application/ledger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Lots       *ledger.LotUseCase
	Quantities *ledger.QuantityLedger
	Sales      *ledger.AllocationUseCase
	Costs      *ledger.CostUseCase
	Reconcile  *ledger.ReconcileUseCase
	JWTSecret  string
	SyncBatch  int
	Log        zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", WriterMiddleware(deps.JWTSecret))

	lotHandler := NewLotHandler(deps.Lots)
	saleHandler := NewSaleHandler(deps.Sales, deps.Costs)
	ledgerHandler := NewLedgerHandler(deps.Quantities, deps.Reconcile, deps.SyncBatch, deps.Log)

	// Lotes
	lots := api.Group("/lots")
	lots.Post("/", lotHandler.Create)
	lots.Get("/:id", lotHandler.GetByID)
	lots.Patch("/:id", lotHandler.UpdateAttributes)
	lots.Get("/:id/snapshot", ledgerHandler.Snapshot)

	products := api.Group("/products")
	products.Get("/:id/lots", lotHandler.ListByProduct)
	products.Get("/:id/snapshots", ledgerHandler.SnapshotsByProduct)

	// Ventas y devoluciones
	api.Post("/sales/resolve", saleHandler.Resolve)
	api.Post("/sales", saleHandler.RecordSale)
	api.Post("/returns", saleHandler.RecordReturn)
	api.Get("/allocations/:id", saleHandler.GetAllocation)
	api.Get("/allocations/:id/cost", saleHandler.LineCost)
	api.Get("/sale-lines/:id/cost", saleHandler.SaleLineCost)

	// Libro de cantidades y sincronización
	api.Post("/deltas", ledgerHandler.RecordDelta)
	api.Get("/sync/deltas", ledgerHandler.Export)
	api.Post("/sync/deltas", ledgerHandler.Merge)
}
