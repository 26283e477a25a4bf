package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/review"
	"github.com/example/revise/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath       string // Path to the Excel or CSV file
	TitleColumn    string // Column with the topic title
	SubjectColumn  string // Column with the subject name
	NotesColumn    string // Column with free-form notes
	IntervalColumn string // Column with a comma-separated interval ladder
	SheetName      string // Name of the sheet to import
	StartRow       int    // The row to start importing from (1-based index)
	Now            time.Time
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TitleColumn:    "A",
		SubjectColumn:  "B",
		NotesColumn:    "C",
		IntervalColumn: "D",
		SheetName:      "Sheet1",
		StartRow:       2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed  int
	SubjectsCreated int
	Created         int
	Skipped         int
	Errors          []string
}

// ImportTopics imports topics from an Excel or CSV file
func ImportTopics(config ImportConfig) (*ImportResult, error) {
	if config.Now.IsZero() {
		config.Now = time.Now()
	}
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(config)
	}
	return importFromExcel(config)
}

func importFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	imp, err := newImporter()
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		imp.result.TotalProcessed++
		if err := imp.processRow(row, config, i+1); err != nil {
			imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return imp.result, nil
}

func importFromCSV(config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	imp, err := newImporter()
	if err != nil {
		return nil, err
	}

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		imp.result.TotalProcessed++
		if err := imp.processRow(row, config, rowNum); err != nil {
			imp.result.Errors = append(imp.result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return imp.result, nil
}

// importer carries the repositories and lookup state of one import run.
type importer struct {
	topicRepo   *database.TopicRepository
	subjectRepo *database.SubjectRepository
	subjectMap  map[string]models.Subject
	titles      map[string]bool
	result      *ImportResult
}

func newImporter() (*importer, error) {
	imp := &importer{
		topicRepo:   database.NewTopicRepository(),
		subjectRepo: database.NewSubjectRepository(),
		subjectMap:  make(map[string]models.Subject),
		titles:      make(map[string]bool),
		result:      &ImportResult{Errors: make([]string, 0)},
	}

	subjects, err := imp.subjectRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing subjects: %w", err)
	}
	for _, s := range subjects {
		imp.subjectMap[strings.ToLower(s.Name)] = s
	}

	topics, err := imp.topicRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing topics: %w", err)
	}
	for _, t := range topics {
		imp.titles[strings.ToLower(t.Title)] = true
	}
	return imp, nil
}

func (imp *importer) processRow(row []string, config ImportConfig, rowNum int) error {
	title := cell(row, config.TitleColumn)
	subjectName := cell(row, config.SubjectColumn)
	notes := cell(row, config.NotesColumn)
	intervalsRaw := cell(row, config.IntervalColumn)

	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("topic title cannot be empty")
	}
	if imp.titles[strings.ToLower(strings.TrimSpace(title))] {
		imp.result.Skipped++
		return nil
	}

	var subject *models.Subject
	var subjectID *string
	if subjectName != "" {
		s, err := imp.getOrCreateSubject(subjectName, config.Now)
		if err != nil {
			return err
		}
		subject = s
		subjectID = &s.ID
	}

	intervals, err := parseIntervals(intervalsRaw)
	if err != nil {
		return err
	}

	topic, err := review.NewTopic(review.CreateInput{
		Title:     title,
		Notes:     notes,
		SubjectID: subjectID,
		Intervals: intervals,
		At:        config.Now,
	}, subject)
	if err != nil {
		return err
	}
	if err := imp.topicRepo.Create(&topic); err != nil {
		return err
	}

	imp.titles[strings.ToLower(strings.TrimSpace(title))] = true
	imp.result.Created++
	return nil
}

func (imp *importer) getOrCreateSubject(name string, now time.Time) (*models.Subject, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if s, ok := imp.subjectMap[key]; ok {
		return &s, nil
	}

	subject := models.Subject{
		ID:        models.NewID(),
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
	}
	if err := imp.subjectRepo.Create(&subject); err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}
	imp.subjectMap[key] = subject
	imp.result.SubjectsCreated++
	return &subject, nil
}

// parseIntervals reads a comma-separated ladder like "1,4,14". Empty input
// selects the default ladder.
func parseIntervals(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var intervals []int
	for _, part := range strings.Split(raw, ",") {
		days, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid interval %q", part)
		}
		intervals = append(intervals, days)
	}
	return intervals, nil
}

// cell returns the row value at the given Excel column letter, or "".
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	idx := columnToIndex(column)
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
