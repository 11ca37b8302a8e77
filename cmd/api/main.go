package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-lotes/internal/application/ledger"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/kvstore"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/peersync"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/rediskv"
	httpRouter "github.com/jhoicas/Inventario-lotes/internal/interfaces/http"
	"github.com/jhoicas/Inventario-lotes/pkg/config"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:      cfg.App.Env,
		Level:    cfg.App.LogLevel,
		WriterID: cfg.Ledger.WriterID,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("backend", cfg.Ledger.Backend).
		Msg("iniciando aplicación")

	ctx := context.Background()
	kv, catalog, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Ledger.Backend).Msg("abrir almacenamiento")
	}
	defer closeStore()

	repos := ledger.Repositories{
		Lots:        kvstore.NewLotRepository(kv),
		Deltas:      kvstore.NewDeltaRepository(kv),
		Allocations: kvstore.NewAllocationRepository(kv),
		SyncState:   kvstore.NewSyncStateRepository(kv),
		Catalog:     catalog,
	}
	quantities := ledger.NewQuantityLedger(repos, cfg.Ledger.WriterID, logger.Component(log, "quantity_ledger"))
	if err := quantities.RestoreClock(ctx); err != nil {
		log.Fatal().Err(err).Msg("restaurar reloj lógico")
	}
	lotUC := ledger.NewLotUseCase(repos, quantities, logger.Component(log, "lots"))
	allocationUC := ledger.NewAllocationUseCase(repos, quantities, logger.Component(log, "allocations"))
	costUC := ledger.NewCostUseCase(repos, logger.Component(log, "cost"))
	reconcileUC := ledger.NewReconcileUseCase(repos, quantities, logger.Component(log, "reconcile"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    16 * 1024 * 1024,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   cfg.App.Name,
			"writer_id": cfg.Ledger.WriterID,
			"backend":   cfg.Ledger.Backend,
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Lots:       lotUC,
		Quantities: quantities,
		Sales:      allocationUC,
		Costs:      costUC,
		Reconcile:  reconcileUC,
		JWTSecret:  cfg.JWT.Secret,
		SyncBatch:  cfg.Ledger.SyncBatch,
		Log:        logger.Component(log, "http"),
	})

	// Sincronización periódica con los demás escritores
	var scheduler *peersync.Scheduler
	if len(cfg.Ledger.Peers) > 0 {
		peers := make([]*peersync.Client, 0, len(cfg.Ledger.Peers))
		for _, p := range cfg.Ledger.Peers {
			peers = append(peers, peersync.NewClient(p, cfg.Ledger.PeerToken, 15*time.Second))
		}
		syncLog := logger.Component(log, "peersync")
		syncer := peersync.NewSyncer(peers, reconcileUC, repos.SyncState, cfg.Ledger.SyncBatch, cfg.Ledger.FullResync, syncLog)
		scheduler = peersync.NewScheduler(syncer, cfg.Ledger.SyncSchedule, 2*time.Minute, syncLog)
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Ledger.SyncSchedule).Msg("programar sincronización")
		}
	}

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

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStore abre el KVStore del backend configurado y el catálogo de productos asociado.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.KVStore, repository.ProductCatalog, func(), error) {
	switch cfg.Ledger.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		log.Info().Msg("migraciones aplicadas")
		return postgres.NewKVStore(pool), postgres.NewProductCatalog(pool), pool.Close, nil

	case config.BackendRedis:
		client := rediskv.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		kv := rediskv.NewKVStore(client, cfg.Redis.Namespace)
		if err := kv.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar cliente Redis")
			}
		}
		return kv, kvstore.NewLotCatalog(kv), closeFn, nil

	default:
		kv := memory.NewKVStore()
		log.Warn().Msg("backend en memoria: los datos se pierden al reiniciar")
		return kv, kvstore.NewLotCatalog(kv), func() {}, nil
	}
}
