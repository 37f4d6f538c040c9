package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/tu-usuario/stock-ledger/docs"
	"github.com/tu-usuario/stock-ledger/internal/application/stock"
	infraexport "github.com/tu-usuario/stock-ledger/internal/infrastructure/export"
	infrapdf "github.com/tu-usuario/stock-ledger/internal/infrastructure/pdf"
	"github.com/tu-usuario/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/stock-ledger/internal/interfaces/http"
	"github.com/tu-usuario/stock-ledger/pkg/config"
	"github.com/tu-usuario/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	itemRepo := postgres.NewItemRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	recordRepo := postgres.NewQuantityRecordRepository(pool)
	entryRepo := postgres.NewLedgerEntryRepository(pool)

	lockTimeout := time.Duration(cfg.Ledger.LockTimeoutSeconds) * time.Second
	txRunner := postgres.NewTxRunner(pool, lockTimeout)

	ledgerUC := stock.NewLedgerUseCase(txRunner, itemRepo, locationRepo, log)
	historyUC := stock.NewHistoryUseCase(itemRepo, entryRepo, recordRepo)
	exportUC := stock.NewExportUseCase(itemRepo, entryRepo, map[string]stock.HistoryExporter{
		"csv":  infraexport.NewCSVExporter(),
		"xlsx": infraexport.NewXLSXExporter(),
		"json": infraexport.NewJSONExporter(),
		"pdf":  infrapdf.NewLedgerPDFGenerator(),
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		LedgerUC:  ledgerUC,
		HistoryUC: historyUC,
		ExportUC:  exportUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
