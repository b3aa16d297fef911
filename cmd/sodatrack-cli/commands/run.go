package commands

import (
	"fmt"
	"os"

	"sodatrack-backend/internal/storage"
	"sodatrack-backend/services/collector"

	"github.com/spf13/cobra"
)

var runWeek *int
var runStoreLimit *int
var runStartFrom *int
var runChunkSize *int
var runFormat *string

func init() {
	runWeek = runCmd.Flags().Int("week", 0, "Override the week-of-month number instead of deriving it from today.")
	runStoreLimit = runCmd.Flags().Int("store-limit", 0, "Only scrape the first N target stores.")
	runStartFrom = runCmd.Flags().Int("start-from", 0, "Resume an interrupted run at this store index.")
	runChunkSize = runCmd.Flags().Int("chunk-size", 0, "Stores per incremental save.")
	runFormat = runCmd.Flags().String("format", "", "Dataset format: csv, json or xlsx.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape this week's soda prices from every target store.",
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := openService(cmd.Context(), cmd)

		var format storage.Format
		if *runFormat != "" {
			format = parseFormat(*runFormat)
		}

		result, err := service.RunWeekly(cmd.Context(), collector.RunRequest{
			Week:       *runWeek,
			StoreLimit: *runStoreLimit,
			StartFrom:  *runStartFrom,
			Format:     format,
			ChunkSize:  *runChunkSize,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		fmt.Print(result.Report)
		fmt.Println("dataset:", result.DatasetPath)
		if result.SummaryPath != "" {
			fmt.Println("summary:", result.SummaryPath)
		}
		if result.SheetUrl != "" {
			fmt.Println("google sheet:", result.SheetUrl)
		}
	},
}
