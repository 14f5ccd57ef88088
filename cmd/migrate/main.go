package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gostatlab/adapters/postgres"
	"gostatlab/domain/estimation"
	"gostatlab/internal/config"
	"gostatlab/internal/migration"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate <database_url> [reports_dir]")
	}

	databaseURL := os.Args[1]
	ctx := context.Background()

	// Connect applies pending schema migrations.
	db, err := postgres.Connect(ctx, config.DatabaseConfig{URL: databaseURL, Driver: config.DriverFor(databaseURL)})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	statuses, err := migration.NewRunner().Status(ctx, db)
	if err != nil {
		log.Fatalf("Failed to read migration status: %v", err)
	}
	for _, s := range statuses {
		state := "pending"
		if s.Applied {
			state = "applied " + s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		log.Printf("%s_%s: %s", s.Version, s.Name, state)
	}

	if len(os.Args) < 3 {
		return
	}
	reportsDir := os.Args[2]
	log.Printf("Importing reports from %s", reportsDir)

	files, err := findReportFiles(reportsDir)
	if err != nil {
		log.Fatalf("Failed to find report files: %v", err)
	}
	log.Printf("Found %d report files to import", len(files))

	repo := postgres.NewReportRepository(db)
	imported := 0
	skipped := 0

	for _, file := range files {
		report, err := loadReportFromFile(file)
		if err != nil {
			log.Printf("Failed to load report from %s: %v", file, err)
			skipped++
			continue
		}
		if report.Label == "" {
			report.Label = strings.TrimSuffix(filepath.Base(file), ".json")
		}

		if err := repo.Save(ctx, report); err != nil {
			log.Printf("Failed to save report %s: %v", report.ID, err)
			skipped++
			continue
		}

		imported++
		log.Printf("Imported report %s from %s", report.ID, filepath.Base(file))
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findReportFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

func loadReportFromFile(filePath string) (*estimation.Report, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var report estimation.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	return &report, nil
}
