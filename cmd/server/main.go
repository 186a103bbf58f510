package main

import (
	"context"
	"database/sql"
	"errors"
	"fleet-route-optimizer/internal/adapters/cache"
	"fleet-route-optimizer/internal/adapters/geocode"
	"fleet-route-optimizer/internal/adapters/repositories"
	"fleet-route-optimizer/internal/adapters/solver"
	"fleet-route-optimizer/internal/adapters/spreadsheet"
	"fleet-route-optimizer/internal/api"
	"fleet-route-optimizer/internal/config"
	"fleet-route-optimizer/internal/platform/db"
	"fleet-route-optimizer/internal/platform/metrics"
	"fleet-route-optimizer/internal/ports"
	"fleet-route-optimizer/internal/services"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

// main is the application composition root.
// It wires concrete adapters (Postgres or memory, Redis, ORS, solver backend) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	var (
		repo         ports.ScenarioRepository
		geocodeCache ports.GeocodeCache
	)
	if cfg.DatabaseURL != "" {
		conn, err := openStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		repo = repositories.NewPostgresScenarioRepository(conn)
		geocodeCache = cache.NewSQLGeocodeCache(conn, cfg.GeocodeMaxAge)
	} else {
		log.Println("DATABASE_URL not set, scenarios are kept in memory")
		mem := repositories.NewMemoryScenarioRepository()
		if n, err := repositories.SeedScenariosFromYAML(ctx, mem, cfg.SeedPath); err != nil {
			log.Printf("warn=seed_skipped path=%s err=%v", cfg.SeedPath, err)
		} else {
			log.Printf("seeded scenarios=%d", n)
		}
		repo = mem
	}

	var resultCache ports.ResultCache
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisResultCacheFromURL(ctx, cfg.RedisURL, cfg.ResultCacheTTL)
		if err != nil {
			return err
		}
		defer rc.Close()
		resultCache = rc
	}

	var geocoder ports.Geocoder
	if cfg.ORSAPIKey != "" {
		g, err := geocode.NewORSGeocoder(cfg.ORSAPIKey, cfg.GeocodeCountry, cfg.GeocodeRPS, geocodeCache)
		if err != nil {
			return err
		}
		geocoder = g
	} else {
		log.Println("ORS_API_KEY not set, uploads will not geocode missing coordinates")
	}

	newSolver, err := solver.NewFactory(solver.Options{
		Backend:     cfg.SolverBackend,
		NodeLimit:   cfg.SolverNodeLimit,
		MaxDuration: cfg.SolveTimeout,
	})
	if err != nil {
		return err
	}

	engine := services.NewEngine(newSolver)
	dispatcher := services.NewDispatcher(engine, resultCache, cfg.SolveConcurrency, cfg.SolveTimeout)

	router := api.NewRouter(api.Dependencies{
		Optimizer: dispatcher,
		Scenarios: services.NewScenarioService(repo, dispatcher),
		Parser:    spreadsheet.NewWorkbookReader(),
		Exporter:  spreadsheet.NewWorkbookWriter(),
		Geocoder:  geocoder,
	})

	// WriteTimeout leaves room for a full solve behind a queue of others.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2*cfg.SolveTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening addr=:%s solver=%s", cfg.Port, cfg.SolverBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, databaseURL string) (*sql.DB, error) {
	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := repositories.InitSchema(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
