package commands

import (
	"fmt"
	"os"
	"time"

	"sodatrack-backend/lib/timezone"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(monthlyCmd)
}

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Combine this month's weekly datasets into a monthly report.",
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := openService(cmd.Context(), cmd)

		result, err := service.RunMonthly(cmd.Context(), time.Now().In(timezone.Location))
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		fmt.Println("dataset:", result.DatasetPath)
		if result.SummaryPath != "" {
			fmt.Println("summary:", result.SummaryPath)
		}
		fmt.Println("products:", result.Products)
		fmt.Println("weeks covered:", result.Weeks)
		if result.SheetUrl != "" {
			fmt.Println("google sheet:", result.SheetUrl)
		}
	},
}
