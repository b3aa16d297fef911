package commands

import (
	"fmt"
	"os"

	"sodatrack-backend/cmd/sodatrack-cli/utils"
	"sodatrack-backend/internal/archive"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	archiveCmd.AddCommand(archiveStatsCmd)
	archiveCmd.AddCommand(archiveListCmd)
	rootCmd.AddCommand(archiveCmd)
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the deduplication archive.",
}

var archiveStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive totals.",
	Run: func(cmd *cobra.Command, args []string) {
		records := archive.New(openDatabase(openConfig()))

		stats, err := records.Stats(cmd.Context())
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"records", "stores", "weeks"})
		t.AppendRow(table.Row{stats.TotalRecords, stats.UniqueStores, stats.UniqueWeeks})
		t.Render()
	},
}

var archiveListWeek *int
var archiveListStore *string
var archiveListStart *string
var archiveListEnd *string

func init() {
	archiveListWeek = archiveListCmd.Flags().Int("week", 0, "Only observations from this week number.")
	archiveListStore = archiveListCmd.Flags().String("store", "", "Only observations from this store reference.")
	archiveListStart = archiveListCmd.Flags().String("start", "", "Only observations on or after this ISO date.")
	archiveListEnd = archiveListCmd.Flags().String("end", "", "Only observations on or before this ISO date.")
}

var archiveListCmd = &cobra.Command{
	Use:   "list [--week <n>] [--store <ref>] [--start <date>] [--end <date>]",
	Short: "List archived observations matching the filters.",
	Run: func(cmd *cobra.Command, args []string) {
		records := archive.New(openDatabase(openConfig()))

		products, err := records.List(cmd.Context(), archive.Filter{
			Week:      *archiveListWeek,
			Store:     *archiveListStore,
			StartDate: *archiveListStart,
			EndDate:   *archiveListEnd,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"identifier", "name", "price", "week", "date", "store"})
		for _, p := range products {
			t.AppendRow(table.Row{p.Identifier, p.Name, fmt.Sprintf("$%.2f", p.Price), p.Week, p.Date, p.Store})
		}
		t.Render()
	},
}
