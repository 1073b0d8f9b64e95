package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"SafetyHMI.dashboard/internal/ai"
	"SafetyHMI.dashboard/internal/compositor"
	"SafetyHMI.dashboard/internal/config"
	"SafetyHMI.dashboard/internal/controller"
	"SafetyHMI.dashboard/internal/facility"
	"SafetyHMI.dashboard/internal/history"
	"SafetyHMI.dashboard/internal/routes"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	layout := facility.DefaultLayout()
	layout.ApplyOverrides(cfg.MappingsFile)

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Error initializing history store: %v", err)
	}

	spec := history.GenSpec{
		Days:          cfg.HistoryDays,
		SpikesPerWeek: cfg.SpikesPerWeek,
		Step:          time.Duration(cfg.StepMinutes) * time.Minute,
		Seed:          cfg.Seed,
	}
	seedCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := store.Seed(seedCtx, seedPairs(layout), spec); err != nil {
		log.Fatalf("Error seeding detector history: %v", err)
	}
	log.Printf("History backend %q ready (%d days, step %dm)", cfg.HistoryBackend, cfg.HistoryDays, cfg.StepMinutes)

	responder := ai.NewResponder(cfg)
	if responder.Available() {
		log.Printf("AI assistant: hosted backend %s", cfg.AIModel)
	} else {
		log.Println("AI assistant: rule-based only (no API key configured)")
	}

	comp := compositor.New(cfg.ImagesDir, layout)
	ctrl := controller.New(store, layout, comp, responder, ai.NewLog())
	router := routes.NewRouter(ctrl)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		log.Printf("Facility dashboard listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func newStore(cfg config.Config) (history.Store, error) {
	if cfg.HistoryBackend == config.BackendInfluxDB {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return history.NewInfluxStore(ctx, cfg.InfluxDBURL, cfg.InfluxDBToken, cfg.InfluxDBOrg, cfg.InfluxDBBucket)
	}
	return history.NewMemoryStore(), nil
}

func seedPairs(layout *facility.Layout) []history.Pair {
	var pairs []history.Pair
	for _, room := range facility.Rooms() {
		for _, pin := range layout.PinsFor(room) {
			pairs = append(pairs, history.Pair{Room: room, Label: pin.Label})
		}
	}
	return pairs
}
