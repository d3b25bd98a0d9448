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
	changesDays      int
	changesThreshold float64
)

func init() {
	changesCmd.Flags().IntVarP(&changesDays, "days", "d", 7, "window in days")
	changesCmd.Flags().Float64VarP(&changesThreshold, "threshold", "t", 1, "minimum move in percent")
	rootCmd.AddCommand(changesCmd)
}

var changesCmd = &cobra.Command{
	Use:   "changes <gold|silver>",
	Short: "Prints products whose sell price moved at least the threshold inside the window.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		metal, err := parseMetal(args[0])
		if err != nil {
			log.Fatal(err)
		}

		store, db := openStore()
		defer db.Close()

		window := time.Duration(changesDays) * 24 * time.Hour
		changes, err := store.PriceChanges(cmd.Context(), string(metal), window, changesThreshold)
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Product", "Type", "From €", "To €", "Change", "Δ €/g"})

		for _, change := range changes {
			t.AppendRow(table.Row{
				change.ProductName,
				change.ProductType,
				fmt.Sprintf("%.2f", change.FirstSellEur),
				fmt.Sprintf("%.2f", change.LastSellEur),
				fmt.Sprintf("%+.2f%%", change.ChangePct),
				formatOptional(change.PerGramDelta, ""),
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
