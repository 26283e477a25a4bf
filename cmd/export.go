package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/revise/internal/database"
	"github.com/example/revise/internal/excel"
)

var (
	importSheet    string
	importStartRow int
	importHistory  bool
)

var exportCmd = &cobra.Command{
	Use:   "export [path.xlsx]",
	Short: "Export the schedule and review history to an Excel workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := database.LoadSnapshot()
		if err != nil {
			return err
		}
		if err := excel.ExportSchedule(args[0], snap, time.Now(), loc); err != nil {
			return err
		}
		fmt.Printf("Exported %d topic(s) to %s\n", len(snap.Topics), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import topics from an Excel or CSV file",
	Long: `Import topics from a spreadsheet. Expected columns: title, subject,
notes, interval ladder (e.g. "1,4,14"). Rows whose title already exists
are skipped; missing subjects are created.

With --history the file backfills review entries instead. Expected
columns: topic title, date, quality (easy, hard, forgot). Entries merge
into the topic's existing history and the schedule is replayed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if importHistory {
			return runHistoryImport(args[0])
		}

		config := excel.DefaultImportConfig()
		config.FilePath = args[0]
		config.SheetName = importSheet
		config.StartRow = importStartRow
		config.Now = time.Now()

		result, err := excel.ImportTopics(config)
		if err != nil {
			return err
		}

		fmt.Printf("Processed %d row(s): %d created, %d skipped, %d subject(s) created\n",
			result.TotalProcessed, result.Created, result.Skipped, result.SubjectsCreated)
		for _, e := range result.Errors {
			fmt.Println("  " + e)
		}
		return nil
	},
}

func runHistoryImport(path string) error {
	config := excel.DefaultHistoryImportConfig()
	config.FilePath = path
	config.SheetName = importSheet
	config.StartRow = importStartRow

	result, err := excel.ImportHistory(config, prefs(), loc)
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d row(s): %d entr(ies) across %d topic(s)\n",
		result.TotalProcessed, result.EntriesAdded, result.TopicsUpdated)
	if len(result.MergedDays) > 0 {
		fmt.Printf("Merged duplicate entries on: %s\n", strings.Join(result.MergedDays, ", "))
	}
	for _, e := range result.Errors {
		fmt.Println("  " + e)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importSheet, "sheet", "Sheet1", "Sheet name to import from")
	importCmd.Flags().IntVar(&importStartRow, "start-row", 2, "First data row (1-based)")
	importCmd.Flags().BoolVar(&importHistory, "history", false, "Backfill review history instead of creating topics")
}
