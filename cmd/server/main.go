package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-suite-server/internal/config"
	"pdf-suite-server/internal/handler"

	"github.com/joho/godotenv"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container := config.NewContainer()

	// Handlers
	toolHandler := handler.NewToolHandler(
		container.ToolService,
		container.AnnotationService,
		container.Logger,
	)
	sessionHandler := handler.NewSessionHandler(container.SessionService, container.Logger)
	convertHandler := handler.NewConvertHandler(container.ConvertService, container.Logger)
	pageHandler := handler.NewPageHandler(container.Logger)

	// Router
	router := handler.NewRouter(
		toolHandler,
		sessionHandler,
		convertHandler,
		pageHandler,
		container.Config.GetAllowedOrigins(),
		handler.RequestLogger(container.Logger),
		handler.Recoverer(container.Logger),
		handler.LimitBody(container.Config.GetMaxFileSize()),
	)

	// Expire idle viewer sessions
	ctx, stopJanitor := context.WithCancel(context.Background())
	go container.SessionService.RunJanitor(ctx, janitorInterval)

	// start server
	server := &http.Server{
		Addr:              ":" + container.Config.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	stopJanitor()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Graceful shutdown failed", err)
		_ = server.Close()
	}
	if closed := container.SessionService.CloseAll(); closed > 0 {
		container.Logger.Info("Closed open sessions", "count", closed)
	}

	container.Logger.Info("Server exited")
}
