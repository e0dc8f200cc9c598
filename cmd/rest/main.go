package main

import (
	"context"
	"log"

	"interview-engine-be/internal/bootstrap"
	"interview-engine-be/internal/config"
	"interview-engine-be/internal/server"
	"interview-engine-be/internal/tracer"
	"interview-engine-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Initial Schema Load
	// A rejected schema is not fatal: the server comes up with no flows
	// loaded and an operator fixes the rows, then hits the reload endpoint.
	if res, err := container.SchemaService.Reload(context.Background()); err != nil {
		log.Printf("Schema load failed: %v", err)
	} else if !res.Applied {
		log.Printf("Schema load rejected with %d problem(s); fix rows and reload", len(res.Problems))
	}

	// 5. Start Background Services
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 6. Initialize Server
	srv := server.New(cfg, container)

	// 7. Run Server
	log.Fatal(srv.Run())
}
