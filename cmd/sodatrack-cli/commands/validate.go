package commands

import (
	"fmt"
	"os"
	"strings"

	"sodatrack-backend/cmd/sodatrack-cli/utils"
	"sodatrack-backend/internal/storage"
	"sodatrack-backend/internal/validate"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate <path/to/dataset>",
	Short: "Run the validation rules over an existing dataset file.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := openConfig()

		store := storage.New(args[0])
		if !store.Exists() {
			fmt.Fprintf(os.Stderr, "no such dataset: %s\n", args[0])
			os.Exit(1)
		}
		products, err := store.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		valid, defects := validate.New(config.Validation).ValidateAndClean(products)
		fmt.Printf("%d records, %d valid, %d rejected\n", len(products), len(valid), len(defects))
		if len(defects) == 0 {
			return
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"row", "identifier", "name", "defects"})
		for _, defect := range defects {
			t.AppendRow(table.Row{defect.Index, defect.Identifier, defect.Name, strings.Join(defect.Defects, "; ")})
		}
		t.Render()
		os.Exit(1)
	},
}
