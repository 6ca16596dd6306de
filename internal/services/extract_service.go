package services

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"social-radar/internal/models"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

// ExtractService turns the raw survey, time-rule, and place extracts into
// clean rows. Row-level problems are data-quality warnings: counted, logged,
// and dropped. Only an unreadable file is an error.
type ExtractService struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewExtractService creates a new extract service
func NewExtractService(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ExtractService {
	return &ExtractService{
		logger:  logger,
		metrics: metricsCollector,
	}
}

// surveyColumns maps each archetype to its trait and habitat column pair in
// the survey extract. Archetypes without columns here (Healing) only ever
// enter the affinity table as synthesized cold rows.
var surveyColumns = []struct {
	archetype  models.Archetype
	traitCol   string
	habitatCol string
}{
	{models.ArchetypeReligius, "relig_fisik_cowo", "relig_lokasi"},
	{models.ArchetypeIntellectual, "intel_fisik_cowo", "intel_lokasi"},
	{models.ArchetypeCreative, "creative_fisik_cowo", "creative_lokasi"},
	{models.ArchetypeSocialButterfly, "social_fisik_cowo", "social_lokasi"},
	{models.ArchetypeSporty, "sporty_fisik_cowo", "sporty_lokasi"},
	{models.ArchetypeTechie, "techie_fisik_cowo", "techie_lokasi"},
	{models.ArchetypeActive, "active_fisik_cowo", "active_lokasi"},
}

// LoadSurvey reads the survey extract and melts the per-archetype column
// pairs into one SurveyRecord per (respondent, archetype) with a non-empty
// trait value.
func (s *ExtractService) LoadSurvey(ctx context.Context, path string) ([]models.SurveyRecord, error) {
	rows, err := s.readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey extract: %w", err)
	}

	var records []models.SurveyRecord
	for _, row := range rows {
		for _, col := range surveyColumns {
			trait := strings.TrimSpace(row[col.traitCol])
			if trait == "" {
				continue
			}
			records = append(records, models.SurveyRecord{
				Timestamp:        row["timestamp"],
				Gender:           row["gender"],
				Archetype:        col.archetype,
				TraitDescription: trait,
				PreferredHabitat: strings.TrimSpace(row[col.habitatCol]),
			})
		}
	}

	s.logger.Info(ctx, "[EXTRACT_SURVEY] Survey extract melted", logging.Fields{
		"source_rows": len(rows),
		"records":     len(records),
	})

	return records, nil
}

// LoadDayRules reads the time-rule extract. Rows with unparseable hours or an
// invalid interval are dropped with a warning.
func (s *ExtractService) LoadDayRules(ctx context.Context, path string) ([]models.DayRule, error) {
	rows, err := s.readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule extract: %w", err)
	}

	var dayRules []models.DayRule
	for _, row := range rows {
		rule, err := parseDayRule(row)
		if err != nil {
			s.metrics.RecordDataQualityWarning("invalid_day_rule")
			s.logger.Warn(ctx, "[EXTRACT_RULE_DROPPED] Dropping invalid day rule row", logging.Fields{
				"day_category": row["day_category"],
				"reason":       err.Error(),
			})
			continue
		}
		dayRules = append(dayRules, *rule)
	}

	s.logger.Info(ctx, "[EXTRACT_RULES] Rule extract loaded", logging.Fields{
		"source_rows": len(rows),
		"rules":       len(dayRules),
	})

	return dayRules, nil
}

// parseDayRule converts one normalized CSV row into a validated DayRule
func parseDayRule(row map[string]string) (*models.DayRule, error) {
	dayCategory := strings.TrimSpace(row["day_category"])
	if dayCategory == "" {
		return nil, &models.ValidationError{Field: "day_category", Message: "day category is empty"}
	}

	startHour, err := strconv.Atoi(strings.TrimSpace(row["start_hour"]))
	if err != nil {
		return nil, &models.ValidationError{Field: "start_hour", Value: row["start_hour"], Message: "start hour is not an integer"}
	}

	endHour, err := strconv.Atoi(strings.TrimSpace(row["end_hour"]))
	if err != nil {
		return nil, &models.ValidationError{Field: "end_hour", Value: row["end_hour"], Message: "end hour is not an integer"}
	}

	var labels []string
	for _, label := range strings.Split(row["priority_labels"], ",") {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}

	rule := &models.DayRule{
		DayCategory:    dayCategory,
		StartHour:      startHour,
		EndHour:        endHour,
		PriorityLabels: labels,
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	return rule, nil
}

// placesDocument is the envelope of the place extract
type placesDocument struct {
	Elements []models.RawPlace `json:"elements"`
}

// LoadPlaces reads the semi-structured place extract
func (s *ExtractService) LoadPlaces(ctx context.Context, path string) ([]models.RawPlace, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open place extract: %w", err)
	}
	defer file.Close()

	var doc placesDocument
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode place extract: %w", err)
	}

	s.logger.Info(ctx, "[EXTRACT_PLACES] Place extract loaded", logging.Fields{
		"elements": len(doc.Elements),
	})

	return doc.Elements, nil
}

// readCSV parses a CSV file into rows keyed by normalized header names.
// Some exports wrap every line in an extra pair of quotes; cleanQuotedLines
// undoes that before the CSV decode.
func (s *ExtractService) readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	cleaned, err := cleanQuotedLines(file)
	if err != nil {
		return nil, fmt.Errorf("failed to clean file: %w", err)
	}

	reader := csv.NewReader(cleaned)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	for i, col := range header {
		header[i] = normalizeHeader(col)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// cleanQuotedLines strips a wrapping quote pair from each line and collapses
// doubled quotes inside it
func cleanQuotedLines(r io.Reader) (io.Reader, error) {
	var builder strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, `"`) && strings.HasSuffix(line, `"`) && len(line) >= 2 {
			line = strings.ReplaceAll(line[1:len(line)-1], `""`, `"`)
		}
		builder.WriteString(line)
		builder.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return strings.NewReader(builder.String()), nil
}

// normalizeHeader lowercases a header cell and replaces spaces with
// underscores
func normalizeHeader(col string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(col)), " ", "_")
}
