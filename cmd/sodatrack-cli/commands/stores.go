package commands

import (
	"fmt"
	"os"

	"sodatrack-backend/cmd/sodatrack-cli/utils"
	"sodatrack-backend/internal/catalog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	storesCmd.AddCommand(storesRefreshCmd)
	storesCmd.AddCommand(storesListCmd)
	storesCmd.AddCommand(storesSearchCmd)
	rootCmd.AddCommand(storesCmd)
}

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Inspect and refresh the store directory.",
}

var storesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-fetch the store directory from the store locator.",
	Run: func(cmd *cobra.Command, args []string) {
		directory := openDirectory(openConfig())

		err := directory.Refresh(cmd.Context(), true)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		stores, err := directory.AllTargetStores()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		fmt.Printf("refreshed %d stores into %s\n", len(stores), directory.Path())
	},
}

var storesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every target store in scrape order.",
	Run: func(cmd *cobra.Command, args []string) {
		directory := openDirectory(openConfig())

		stores, err := directory.AllTargetStores()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		renderStores(stores)
	},
}

var storesSearchLimit *int

func init() {
	storesSearchLimit = storesSearchCmd.Flags().Int("limit", 10, "Maximum number of matches to show.")
}

var storesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the store directory by id, city or zip code.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		directory := openDirectory(openConfig())

		matches, err := directory.Search(args[0], *storesSearchLimit)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		renderStores(matches)
	},
}

func renderStores(stores []catalog.Store) {
	t := utils.NewTable()
	t.AppendHeader(table.Row{"id", "name", "city", "state", "zip"})
	for _, store := range stores {
		t.AppendRow(table.Row{store.Id, store.Name, store.City, store.State, store.ZipCode})
	}
	t.Render()
}
