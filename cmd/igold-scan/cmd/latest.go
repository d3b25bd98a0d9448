package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var latestLimit int

func init() {
	latestCmd.Flags().IntVarP(&latestLimit, "limit", "n", 0, "show only the first N products")
	rootCmd.AddCommand(latestCmd)
}

func formatOptional(v *float64, suffix string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%s", *v, suffix)
}

var latestCmd = &cobra.Command{
	Use:   "latest <gold|silver>",
	Short: "Prints the latest recorded price of every product, cheapest fine metal first.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		metal, err := parseMetal(args[0])
		if err != nil {
			log.Fatal(err)
		}

		store, db := openStore()
		defer db.Close()

		latest, err := store.LatestPrices(cmd.Context(), string(metal))
		if err != nil {
			log.Fatal(err)
		}
		if latestLimit > 0 && len(latest) > latestLimit {
			latest = latest[:latestLimit]
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Product", "Type", "Sell €", "Buy €", "€/g fine", "Spread", "Updated"})

		for _, p := range latest {
			t.AppendRow(table.Row{
				p.ProductName,
				p.ProductType,
				fmt.Sprintf("%.2f", p.SellPriceEur),
				fmt.Sprintf("%.2f", p.BuyPriceEur),
				formatOptional(p.PricePerGram, ""),
				formatOptional(p.SpreadPct, "%"),
				p.Timestamp.Format(time.DateTime),
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
