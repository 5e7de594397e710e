package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"instance-metrics-app/internal/config"
	"instance-metrics-app/internal/domain"
	"instance-metrics-app/internal/engine"
	"instance-metrics-app/internal/router"
	"instance-metrics-app/internal/telemetry"
	"instance-metrics-app/internal/util"
)

func LoggerInitialize(cfg config.LogConfig) (util.ServiceLogger, error) {

	var serviceLogger util.ServiceLogger

	util.SetCommonLoggerAttributes(cfg.Level)

	if err := serviceLogger.Init(cfg.File); err != nil {
		fmt.Println("Failed to initialize logger:", err)
		return util.ServiceLogger{}, err
	}

	serviceLogger.LogEvent(util.LOG_LEVEL_INFO, "Service started")

	currentTime := time.Now().Format(time.RFC3339)

	fmt.Fprintf(os.Stderr, "\n%s: Instance metrics service started \n", currentTime)

	return serviceLogger, nil
}

func main() {

	configPath := flag.String("config", "", "path to the config file (optional, defaults apply)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := LoggerInitialize(cfg.Log)
	if err != nil {
		fmt.Println("Error while initializing the logger..", err)
		return
	}

	var (
		source    domain.MetricSource
		instances domain.InstanceService
	)

	switch cfg.Provider.Mode {
	case "local":
		os.MkdirAll(filepath.Dir(cfg.Provider.DBPath), 0755)

		store := telemetry.NewLocalStore(cfg.Provider.DBPath)
		if err := store.Init(); err != nil {
			log.Fatalf("Failed to initialize local metric source: %v", err)
		}
		defer store.Close()

		source, instances = store, store
	case "remote":
		client := telemetry.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout, &logger)
		source, instances = client, client
	default:
		log.Fatalf("Unknown provider mode: %s", cfg.Provider.Mode)
	}

	metricEngine := engine.New(source, &logger)

	router.Run(cfg.Server, metricEngine, instances, &logger)
}
