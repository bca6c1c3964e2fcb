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

	"vizboard/internal/api"
	"vizboard/internal/logging"
	"vizboard/internal/web"
	"vizboard/internal/websocket"
)

func main() {
	logger := logging.Setup(os.Getenv("VIZBOARD_LOG_LEVEL"))

	port := os.Getenv("VIZBOARD_PORT")
	if port == "" {
		port = "3000"
	}

	apiURL := os.Getenv("VIZBOARD_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:5000"
	}

	// Origin used for shareable links; falls back to the request host.
	origin := os.Getenv("VIZBOARD_ORIGIN")

	client := api.NewClient(apiURL)
	hub := websocket.NewHub(logger.With("component", "hub"))

	srv := web.New(client, hub, origin, logger)

	// Credentials expire after an hour; reap dashboards idle past twice that.
	go func() {
		for range time.Tick(30 * time.Minute) {
			srv.Dashboards().Sweep(2 * time.Hour)
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
		fmt.Printf("Vizboard running at http://localhost:%s\n", port)
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
