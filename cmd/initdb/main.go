package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"social-radar/internal/config"
	"social-radar/internal/models"
	"social-radar/internal/repository"
	"social-radar/pkg/database"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

// seedHolidays is the bundled national holiday calendar used when no holiday
// file is supplied
var seedHolidays = []struct {
	date string
	name string
}{
	{"2024-01-01", "Tahun Baru Masehi"},
	{"2024-02-08", "Isra Mi'raj"},
	{"2024-02-10", "Tahun Baru Imlek"},
	{"2024-03-11", "Hari Suci Nyepi"},
	{"2024-03-29", "Wafat Isa Al Masih"},
	{"2024-04-10", "Hari Raya Idul Fitri"},
	{"2024-04-11", "Cuti Bersama Idul Fitri"},
	{"2024-05-01", "Hari Buruh Internasional"},
	{"2024-05-09", "Kenaikan Isa Al Masih"},
	{"2024-05-23", "Hari Raya Waisak"},
	{"2024-06-01", "Hari Lahir Pancasila"},
	{"2024-06-17", "Hari Raya Idul Adha"},
	{"2024-07-07", "Tahun Baru Islam"},
	{"2024-08-17", "Hari Kemerdekaan RI"},
	{"2024-09-16", "Maulid Nabi Muhammad SAW"},
	{"2024-12-25", "Hari Raya Natal"},
}

// holidayFileEntry is one row of an external holiday JSON file
type holidayFileEntry struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func main() {
	holidayFile := flag.String("file", "", "JSON file with holiday entries; bundled calendar is used when empty")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("radar-initdb", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	metricsCollector := metrics.NewCollector("social_radar_initdb")
	ctx := context.Background()

	holidays, err := loadHolidays(*holidayFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load holidays: %v\n", err)
		os.Exit(1)
	}

	db, err := database.NewRadarDB(&database.Config{
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := repository.NewRadarRepository(db, logger, metricsCollector)

	if err := repo.ReplaceHolidays(ctx, holidays); err != nil {
		logger.Fatal(ctx, "[INITDB_ERROR] Failed to write holiday calendar", logging.Fields{}, err)
	}

	fmt.Printf("Holiday calendar initialized with %d entries\n", len(holidays))
}

// loadHolidays reads the external file when given, otherwise the bundled seed
func loadHolidays(path string) ([]models.Holiday, error) {
	if path == "" {
		holidays := make([]models.Holiday, 0, len(seedHolidays))
		for _, entry := range seedHolidays {
			date, err := time.Parse("2006-01-02", entry.date)
			if err != nil {
				return nil, fmt.Errorf("invalid bundled holiday date %q: %w", entry.date, err)
			}
			holidays = append(holidays, models.Holiday{Date: date, Name: entry.name})
		}
		return holidays, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday file: %w", err)
	}

	var entries []holidayFileEntry
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode holiday file: %w", err)
	}

	holidays := make([]models.Holiday, 0, len(entries))
	for _, entry := range entries {
		date, err := time.Parse("2006-01-02", entry.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday date %q: %w", entry.Date, err)
		}
		holidays = append(holidays, models.Holiday{Date: date, Name: entry.Name})
	}

	return holidays, nil
}
