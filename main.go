// trajgen serves an ONNX trajectory generation model over HTTP: sample
// candidate flight paths between two waypoints, rank them by smoothness and
// efficiency, and keep a history of runs in sqlite.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kestrel-uas/trajgen/internal/api"
	"github.com/kestrel-uas/trajgen/internal/config"
	"github.com/kestrel-uas/trajgen/internal/traj/gen"
	"github.com/kestrel-uas/trajgen/internal/traj/onnx"
	"github.com/kestrel-uas/trajgen/internal/trajdb"
	"github.com/kestrel-uas/trajgen/internal/units"
	"github.com/kestrel-uas/trajgen/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "Listen address")
	modelPath     = flag.String("model", "trajectory_generator.onnx", "Path to the ONNX model artifact")
	normPath      = flag.String("norm", "", "Path to normalization parameters JSON (identity transform if empty)")
	dbFile        = flag.String("db", "trajectory_runs.db", "Path to the sqlite run history database")
	configPath    = flag.String("config", "", "Path to tuning config JSON")
	unitFlag      = flag.String("units", "m", "Distance unit for API responses (m, ft, km)")
	migrationsDir = flag.String("migrations", "", "Apply migrations from this directory at startup")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if !units.IsValid(*unitFlag) {
		log.Fatalf("invalid -units %q, valid units: %s", *unitFlag, units.ValidUnitsString())
	}

	tuning := config.Empty()
	if *configPath != "" {
		var err error
		tuning, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	norm := gen.IdentityNormParams()
	if *normPath != "" {
		var err error
		norm, err = gen.LoadNormParams(*normPath)
		if err != nil {
			log.Fatalf("failed to load normalization parameters: %v", err)
		}
	} else {
		log.Print("no -norm given, using identity normalization")
	}

	model, err := onnx.Load(*modelPath)
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}
	defer model.Close()

	opts := []gen.Option{gen.WithWorkers(tuning.GetWorkers())}
	if seed, ok := tuning.GetSeed(); ok {
		opts = append(opts, gen.WithSeed(seed))
	}
	generator, err := gen.New(model, norm, opts...)
	if err != nil {
		log.Fatalf("failed to initialise generator: %v", err)
	}
	log.Printf("model loaded: latent_dim=%d seq_len=%d", model.LatentDim(), model.SeqLen())

	db, err := trajdb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if *migrationsDir != "" {
		if err := db.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes
		db.AttachAdminRoutes(mux)

		apiServer := api.NewServer(generator, db, tuning, *unitFlag, version.Version)
		mux.Handle("/api/", apiServer.ServeMux())

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
