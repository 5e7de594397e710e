package router

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"instance-metrics-app/internal/config"
	"instance-metrics-app/internal/domain"
	"instance-metrics-app/internal/endpoints"
	"instance-metrics-app/internal/util"
)

func NewRouter(querier domain.MetricQuerier, instances domain.InstanceService, webSlogger *util.ServiceLogger) *mux.Router {
	r := mux.NewRouter()

	addRoutes(r, querier, instances, webSlogger)

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(webSlogger))

	return r
}

func addRoutes(r *mux.Router, querier domain.MetricQuerier, instances domain.InstanceService, webSlogger *util.ServiceLogger) {

	metricsHandler := &endpoints.Metrics{}
	metricsHandler.Init(querier, instances, webSlogger)

	instancesHandler := &endpoints.Instances{}
	instancesHandler.Init(instances, webSlogger)

	r.HandleFunc("/api/instances/{identifier}", instancesHandler.GetInstanceHandler).Methods("GET")
	r.HandleFunc("/api/instances/{identifier}/metrics/cpu", metricsHandler.GetCPUMetricsHandler).Methods("GET")
	r.HandleFunc("/api/instances/{identifier}/protection", instancesHandler.SetProtectionHandler).Methods("PUT")
}

func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func Run(cfg config.ServerConfig, querier domain.MetricQuerier, instances domain.InstanceService, webSlogger *util.ServiceLogger) {
	appRouter := NewRouter(querier, instances, webSlogger)

	server := NewServer(cfg, appRouter)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		println()
		log.Println("Shutting down server...")

		err := gracefulShutdown(server, cfg.ShutdownTimeout)

		if err != nil {
			log.Printf("Server stopped with error: %s", err.Error())
		} else {
			log.Println("Server stopped gracefully.")
		}

		os.Exit(0)
	}()

	log.Printf("Listening on %s", server.Addr)
	log.Fatal(server.ListenAndServe())
}

func gracefulShutdown(server *http.Server, maximumTime time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), maximumTime)
	defer cancel()

	return server.Shutdown(ctx)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *util.ServiceLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogEvent(util.LOG_LEVEL_INFO,
				fmt.Sprintf("Request: %s %s [%s]", r.Method, r.RequestURI, w.Header().Get("X-Request-ID")))
			next.ServeHTTP(w, r)
		})
	}
}
