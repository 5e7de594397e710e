package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"instance-metrics-app/internal/config"
	"instance-metrics-app/internal/domain"
	"instance-metrics-app/internal/telemetry"
)

var seedInstances = []domain.Instance{
	{ID: "i-0f1e2d3c4b5a6978", Name: "web-1", PrivateIP: "10.0.1.5", PublicIP: "203.0.113.9", State: "running", Monitoring: "detailed"},
	{ID: "i-0a9b8c7d6e5f4321", Name: "worker-1", PrivateIP: "10.0.1.6", State: "running", Monitoring: "basic"},
	{ID: "i-00112233445566ff", Name: "staging-1", PrivateIP: "10.0.2.7", State: "stopped", Monitoring: "basic"},
}

func main() {

	configPath := flag.String("config", "", "path to the config file (optional, defaults apply)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	os.MkdirAll(filepath.Dir(cfg.Provider.DBPath), 0755)

	store := telemetry.NewLocalStore(cfg.Provider.DBPath)
	if err := store.Init(); err != nil {
		log.Fatalf("Failed to initialize local store for seeding: %v", err)
	}
	defer store.Close()

	generateAndIngest(store)
}

func generateAndIngest(store *telemetry.LocalStore) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	endTime := time.Now()
	startTime := endTime.Add(-24 * time.Hour)

	log.Printf("Seeding data from %s to %s (past 24 hours)...", startTime.Format(time.RFC3339), endTime.Format(time.RFC3339))

	ctx := context.Background()

	for _, instance := range seedInstances {
		if err := store.StoreInstance(ctx, instance); err != nil {
			log.Printf("Error inserting instance %s: %v", instance.ID, err)
			continue
		}

		if instance.State != "running" {
			continue
		}

		// Detailed monitoring yields 1-minute samples, basic 5-minute ones.
		step := 5 * time.Minute
		if instance.Monitoring == "detailed" {
			step = time.Minute
		}

		for t := startTime; t.Before(endTime); t = t.Add(step) {
			cpuLoad := rng.Float64() * 100.0

			if err := store.StoreSample(ctx, instance.ID, t.Unix(), cpuLoad); err != nil {
				log.Printf("Error inserting sample for %s at %d: %v", instance.ID, t.Unix(), err)
			}
		}
	}

	log.Println("Data seeding complete.")
}
