package cmd

import (
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"igold-backend/lib/scrapers/igold"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints tracked product counts per metal and type.",
	Run: func(cmd *cobra.Command, args []string) {
		store, db := openStore()
		defer db.Close()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Metal", "Bars", "Coins", "Unknown", "Total"})

		for _, metal := range []igold.MetalType{igold.MetalGold, igold.MetalSilver} {
			stats, err := store.Stats(cmd.Context(), string(metal))
			if err != nil {
				log.Fatal(err)
			}
			t.AppendRow(table.Row{metal, stats.Bars, stats.Coins, stats.Unknown, stats.Total})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
