package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	historyMetal string
	historyDays  int
)

func init() {
	historyCmd.Flags().StringVarP(&historyMetal, "metal", "m", "gold", "metal type (gold or silver)")
	historyCmd.Flags().IntVarP(&historyDays, "days", "d", 0, "limit to the last N days (0 = everything)")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <product-url>",
	Short: "Prints recorded prices for one product, newest first.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		metal, err := parseMetal(historyMetal)
		if err != nil {
			log.Fatal(err)
		}

		store, db := openStore()
		defer db.Close()

		history, err := store.PriceHistory(cmd.Context(), args[0], string(metal), historyDays)
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Time", "Sell €", "Buy €"})

		for _, point := range history {
			t.AppendRow(table.Row{
				point.Timestamp.Format(time.DateTime),
				fmt.Sprintf("%.2f", point.SellPriceEur),
				fmt.Sprintf("%.2f", point.BuyPriceEur),
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
