package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/revise/internal/rank"
	"github.com/example/revise/pkg/models"
)

const (
	scheduleSheet = "Schedule"
	historySheet  = "History"

	timeLayout = "2006-01-02 15:04"
)

// ExportSchedule writes the ranked schedule and the full review history of a
// snapshot to an Excel workbook at path.
func ExportSchedule(path string, snap *models.Snapshot, now time.Time, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := writeScheduleSheet(f, snap, now, loc); err != nil {
		return err
	}
	if err := writeHistorySheet(f, snap); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to delete default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeScheduleSheet(f *excelize.File, snap *models.Snapshot, now time.Time, loc *time.Location) error {
	if _, err := f.NewSheet(scheduleSheet); err != nil {
		return fmt.Errorf("failed to create schedule sheet: %w", err)
	}

	headers := []string{"Title", "Subject", "Next Review", "Overdue", "Stability (days)", "Target", "Reviews", "Risk"}
	if err := f.SetSheetRow(scheduleSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write schedule header: %w", err)
	}

	ranked := rank.Rank(snap, now, loc)
	for i, item := range ranked {
		subjectName := ""
		if item.Subject != nil {
			subjectName = item.Subject.Name
		}
		row := []interface{}{
			item.Topic.Title,
			subjectName,
			item.Topic.NextReviewDate.In(loc).Format(timeLayout),
			item.Overdue,
			item.Topic.Stability,
			item.Topic.RetrievabilityTarget,
			item.Topic.ReviewsCount,
			item.Risk.Score,
		}
		cellRef := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(scheduleSheet, cellRef, &row); err != nil {
			return fmt.Errorf("failed to write schedule row: %w", err)
		}
	}
	return nil
}

func writeHistorySheet(f *excelize.File, snap *models.Snapshot) error {
	if _, err := f.NewSheet(historySheet); err != nil {
		return fmt.Errorf("failed to create history sheet: %w", err)
	}

	headers := []string{"Topic", "Type", "At", "Quality", "Interval (days)", "Resulting Stability", "Next Review"}
	if err := f.SetSheetRow(historySheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write history header: %w", err)
	}

	rowNum := 2
	for _, topic := range snap.Topics {
		for _, event := range topic.Events {
			row := []interface{}{
				topic.Title,
				string(event.Type),
				event.At.Format(timeLayout),
			}
			if event.Quality != nil {
				row = append(row, event.Quality.Label())
			} else {
				row = append(row, "")
			}
			if event.IntervalDays != nil {
				row = append(row, *event.IntervalDays)
			} else {
				row = append(row, "")
			}
			if event.ResultingStability != nil {
				row = append(row, *event.ResultingStability)
			} else {
				row = append(row, "")
			}
			if event.NextReviewAt != nil {
				row = append(row, event.NextReviewAt.Format(timeLayout))
			} else {
				row = append(row, "")
			}

			cellRef := fmt.Sprintf("A%d", rowNum)
			if err := f.SetSheetRow(historySheet, cellRef, &row); err != nil {
				return fmt.Errorf("failed to write history row: %w", err)
			}
			rowNum++
		}
	}
	return nil
}
