package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vizboard/internal/database"
	"vizboard/internal/dataset"
	"vizboard/internal/logging"
	"vizboard/internal/server"
	"vizboard/internal/store"
	"vizboard/internal/token"
)

func main() {
	logger := logging.Setup(os.Getenv("VIZBOARD_LOG_LEVEL"))

	port := os.Getenv("VIZBOARD_API_PORT")
	if port == "" {
		port = "5000"
	}

	dbPath := os.Getenv("VIZBOARD_DB_PATH")
	if dbPath == "" {
		dbPath = "vizboard.db"
	}

	secret := os.Getenv("VIZBOARD_JWT_SECRET")
	if secret == "" {
		log.Fatal("VIZBOARD_JWT_SECRET is required")
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if src := datasetSource(); src != nil {
		importer := dataset.NewImporter(store.NewChartStore(db), src, logger.With("component", "importer"))
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if _, err := importer.Run(ctx); err != nil {
			log.Fatalf("dataset import: %v", err)
		}
		cancel()
	}

	srv := server.New(db, token.NewManager(secret), logger)

	go func() {
		for range time.Tick(10 * time.Minute) {
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Vizboard API running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

// datasetSource picks the seed source from the environment: a local file, a
// download URL, or an S3-compatible bucket. Returns nil when none is set.
func datasetSource() dataset.Source {
	if path := os.Getenv("VIZBOARD_DATASET_FILE"); path != "" {
		return dataset.FileSource{Path: path}
	}
	if url := os.Getenv("VIZBOARD_DATASET_URL"); url != "" {
		return dataset.URLSource{URL: url}
	}
	if bucket := os.Getenv("VIZBOARD_DATASET_S3_BUCKET"); bucket != "" {
		return dataset.NewS3Source(dataset.S3Config{
			Endpoint:  os.Getenv("VIZBOARD_DATASET_S3_ENDPOINT"),
			Bucket:    bucket,
			Key:       os.Getenv("VIZBOARD_DATASET_S3_KEY"),
			Region:    os.Getenv("VIZBOARD_DATASET_S3_REGION"),
			AccessKey: os.Getenv("VIZBOARD_DATASET_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("VIZBOARD_DATASET_S3_SECRET_KEY"),
		})
	}
	return nil
}
