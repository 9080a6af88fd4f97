// Relay Executor — референсное приложение-исполнитель.
//
// Поднимает execute endpoint, на который worker доставляет задачи.
// Из коробки зарегистрирована одна задача — http.request (вебхуки).
// Реальные приложения встраивают execute.Handler в собственный HTTP
// сервер и регистрируют свои задачи, события и listeners.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Relay/internal/execute"
	"github.com/shaiso/Relay/internal/telemetry"
	"github.com/shaiso/Relay/internal/transport"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting relay-executor")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := execute.NewRegistry()
	registry.RegisterTask(execute.HTTPTaskType, &execute.HTTPTask{})

	handler := execute.NewHandler(execute.Config{
		Registry:  registry,
		Transport: transport.NewJSON(),
		Logger:    logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8080"
	if v := os.Getenv("EXECUTOR_PORT"); v != "" {
		port = ":" + v
	}

	server := &http.Server{
		Addr:         port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("relay-executor stopped")
}
