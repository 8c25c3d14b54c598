package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/collabroom/collab-server/pkg"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment variables")
	}

	config, err := pkg.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	config.ConfigureLogging()

	manager := pkg.NewManager(config)

	roomRouter := mux.NewRouter()
	roomRouter.HandleFunc("/api/v1/health", manager.HealthHandler)
	roomRouter.HandleFunc("/api/v1/stats", manager.StatsHandler)
	roomRouter.HandleFunc("/api/v1/socket", manager.SocketHandler)

	roomServer := &http.Server{
		Addr: config.ListenAddr,
		Handler: promhttp.InstrumentHandlerInFlight(pkg.CollabInFlightGauge,
			promhttp.InstrumentHandlerCounter(pkg.CollabRequestsCounter,
				roomRouter)),
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    config.MetricsAddr,
		Handler: metricsRouter,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	log.Info("Starting room server on ", config.ListenAddr)
	go func() {
		err := roomServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Room server failed: ", err)
		}
	}()

	log.Info("Starting metrics server on ", config.MetricsAddr)
	go func() {
		err := metricsServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Metrics server failed: ", err)
		}
	}()

	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info("Shutting down room server...")
	if err := roomServer.Shutdown(ctx); err != nil {
		log.Fatal("Room server shutdown failed: ", err)
	}

	log.Info("Shutting down metrics server...")
	if err := metricsServer.Shutdown(ctx); err != nil {
		log.Fatal("Metrics server shutdown failed: ", err)
	}
}
