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

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"pawtrack/internal/database"
	"pawtrack/internal/logging"
	"pawtrack/internal/server"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("PAWTRACK_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("PAWTRACK_DB_PATH")
	if dbPath == "" {
		dbPath = "pawtrack.db"
	}

	logger := logging.Setup(os.Getenv("PAWTRACK_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	srv := server.New(db, logger)

	// Scheduled work: the reminder dispatcher every five minutes, the yearly
	// series rollover and session cleanup shortly after midnight.
	c := cron.New()
	if _, err := c.AddFunc("*/5 * * * *", func() {
		srv.Dispatcher().Run(time.Now())
	}); err != nil {
		log.Fatalf("failed to schedule reminder dispatch: %v", err)
	}
	if _, err := c.AddFunc("30 0 * * *", func() {
		if err := srv.Manager().ExtendSeries(time.Now()); err != nil {
			logger.Error("extend yearly series", "error", err)
		}
		if err := srv.SessionStore().DeleteExpired(); err != nil {
			logger.Error("delete expired sessions", "error", err)
		}
	}); err != nil {
		log.Fatalf("failed to schedule daily maintenance: %v", err)
	}
	c.Start()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Pawtrack running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	c.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
