package main

import (
	"context"
	"log"

	"gostatlab/adapters/api"
	"gostatlab/adapters/postgres"
	"gostatlab/app"
	"gostatlab/internal/config"
	"gostatlab/ports"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	// Report persistence is optional; without DATABASE_URL reports are
	// computed but never stored.
	var repo ports.ReportRepository
	if appConfig.Database.Enabled() {
		db, err := postgres.Connect(context.Background(), appConfig.Database)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewReportRepository(db)
		log.Printf("Report persistence enabled (%s)", appConfig.Database.Driver)
	} else {
		log.Printf("DATABASE_URL not set, report persistence disabled")
	}

	estimationService := app.NewEstimationService(app.EstimationOptions{
		Z:            appConfig.Estimation.Z,
		Precision:    appConfig.Estimation.ProportionPrecision,
		BatchLimit:   appConfig.Estimation.BatchLimit,
		BatchWorkers: appConfig.Estimation.BatchWorkers,
	}, repo)
	descriptiveService := app.NewDescriptiveService()

	server := api.NewServer(estimationService, descriptiveService, app.NewElectionService())

	log.Printf("Starting gostatlab server on port %s", appConfig.Server.Port)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
