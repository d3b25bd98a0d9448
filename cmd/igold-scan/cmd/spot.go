package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"igold-backend/lib/serviceutil"
	"igold-backend/services/spotprice"
)

func init() {
	rootCmd.AddCommand(spotCmd)
}

var spotCmd = &cobra.Command{
	Use:   "spot",
	Short: "Prints live XAU/EUR and XAG/EUR spot quotes.",
	Run: func(cmd *cobra.Command, args []string) {
		service, err := spotprice.NewService(config.Spot)
		if err != nil {
			serviceutil.Fatal("failed to create spot price client", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Symbol", "Bid €/oz", "Ask €/oz", "Mid €/oz", "Mid €/g", "Profile", "Time"})

		for _, symbol := range []string{spotprice.SymbolGold, spotprice.SymbolSilver} {
			quote, err := service.Fetch(cmd.Context(), symbol)
			if err != nil {
				log.Fatal(err)
			}
			t.AppendRow(table.Row{
				quote.Symbol,
				fmt.Sprintf("%.2f", quote.BidEurOz),
				fmt.Sprintf("%.2f", quote.AskEurOz),
				fmt.Sprintf("%.2f", quote.MidEurOz),
				fmt.Sprintf("%.2f", quote.MidEurG),
				quote.SpreadProfile,
				quote.Time.Format(time.DateTime),
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
