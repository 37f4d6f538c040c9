package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/stock-ledger/internal/application/stock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC  *stock.LedgerUseCase
	HistoryUC *stock.HistoryUseCase
	ExportUC  *stock.ExportUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	handler := NewStockHandler(deps.LedgerUC, deps.HistoryUC, deps.ExportUC)
	stockGroup := protected.Group("/stock")

	// Add requiere rol admin; el resto lo puede ejecutar cualquier actor
	// autenticado.
	stockGroup.Post("/add", RequireRole("admin"), handler.Add)
	stockGroup.Post("/remove", handler.Remove)
	stockGroup.Post("/move", handler.Move)
	stockGroup.Get("/:itemId/history", handler.History)
	stockGroup.Get("/:itemId/history/export", handler.Export)
	stockGroup.Get("/:itemId/levels", handler.Levels)
}
