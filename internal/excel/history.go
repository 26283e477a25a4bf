package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/dates"
	"github.com/example/revise/internal/review"
	"github.com/example/revise/pkg/models"
)

// HistoryImportConfig defines the history backfill configuration.
type HistoryImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	TopicColumn   string // Column with the topic title
	DateColumn    string // Column with the review date
	QualityColumn string // Column with the quality token (easy, hard, forgot)
	SheetName     string // Name of the sheet to import
	StartRow      int    // The row to start importing from (1-based index)
}

// DefaultHistoryImportConfig returns the default backfill configuration.
func DefaultHistoryImportConfig() HistoryImportConfig {
	return HistoryImportConfig{
		TopicColumn:   "A",
		DateColumn:    "B",
		QualityColumn: "C",
		SheetName:     "Sheet1",
		StartRow:      2,
	}
}

// HistoryImportResult holds the result of a backfill run.
type HistoryImportResult struct {
	TotalProcessed int
	TopicsUpdated  int
	EntriesAdded   int
	MergedDays     []string
	Errors         []string
}

// ImportHistory backfills review entries from a spreadsheet. Each row names a
// topic, a review date and a quality token; the rows merge into the topic's
// existing reviewed history and the schedule is replayed.
func ImportHistory(config HistoryImportConfig, prefs review.Preferences, loc *time.Location) (*HistoryImportResult, error) {
	rows, err := readRows(config.FilePath, config.SheetName)
	if err != nil {
		return nil, err
	}

	result := &HistoryImportResult{Errors: make([]string, 0)}

	// Collect the edits per topic first so one topic gets one replay.
	edits := make(map[string][]review.HistoryEdit)
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow {
			continue
		}
		result.TotalProcessed++

		title := strings.ToLower(cell(row, config.TopicColumn))
		if title == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: topic title cannot be empty", rowNum))
			continue
		}
		at, err := dates.ParseInstant(cell(row, config.DateColumn))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		token := cell(row, config.QualityColumn)
		quality, ok := models.ParseQuality(token)
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: invalid quality %q", rowNum, token))
			continue
		}
		edits[title] = append(edits[title], review.HistoryEdit{At: at, Quality: quality})
		result.EntriesAdded++
	}

	topicRepo := database.NewTopicRepository()
	subjectRepo := database.NewSubjectRepository()
	topics, err := topicRepo.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing topics: %w", err)
	}

	for _, topic := range topics {
		rows, ok := edits[strings.ToLower(topic.Title)]
		if !ok {
			continue
		}
		delete(edits, strings.ToLower(topic.Title))

		var subject *models.Subject
		if topic.SubjectID != nil {
			subject, err = subjectRepo.GetByID(*topic.SubjectID)
			if err != nil {
				return nil, err
			}
		}

		// The merge rewrites the whole reviewed set, so the existing events
		// go in alongside the backfilled rows.
		merged := historyOf(topic)
		merged = append(merged, rows...)

		res, err := review.MergeHistoryEdits(topic, subject, prefs, merged, loc)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", topic.Title, err))
			continue
		}
		if err := topicRepo.ReplaceHistory(res.Topic); err != nil {
			return nil, err
		}
		result.TopicsUpdated++
		result.MergedDays = append(result.MergedDays, res.MergedDays...)
	}

	for title := range edits {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: no such topic", title))
	}
	return result, nil
}

// historyOf converts a topic's reviewed events into history edits.
func historyOf(topic models.Topic) []review.HistoryEdit {
	reviewed := models.ReviewedEvents(topic.Events)
	edits := make([]review.HistoryEdit, 0, len(reviewed))
	for _, e := range reviewed {
		quality := models.QualityHard
		if e.Quality != nil {
			quality = *e.Quality
		}
		edits = append(edits, review.HistoryEdit{ID: e.ID, At: e.At, Quality: quality})
	}
	return edits
}

// readRows loads all rows from an .xlsx sheet or a CSV file.
func readRows(path, sheet string) ([][]string, error) {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer file.Close()

		reader := csv.NewReader(file)
		reader.FieldsPerRecord = -1

		var rows [][]string
		for {
			row, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("error reading CSV: %w", err)
			}
			rows = append(rows, row)
		}
		return rows, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}
