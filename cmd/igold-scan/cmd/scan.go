package cmd

import (
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"igold-backend/lib/scrapers/igold"
	"igold-backend/services/scanner"
)

func init() {
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan [gold|silver]",
	Short: "Scans category listings and records current prices. Scans both metals when none is given.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		metals := []igold.MetalType{igold.MetalGold, igold.MetalSilver}
		if len(args) == 1 {
			metal, err := parseMetal(args[0])
			if err != nil {
				log.Fatal(err)
			}
			metals = []igold.MetalType{metal}
		}

		store, db := openStore()
		defer db.Close()

		client := igold.NewClient(config.Scraper)
		scan := scanner.NewScanner(client, store)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Metal", "New products", "Prices written", "Failed"})

		for _, metal := range metals {
			report, err := scan.ScanMetal(cmd.Context(), metal)
			if err != nil {
				log.Fatal(err)
			}
			t.AppendRow(table.Row{metal, report.NewProducts, report.PricesWritten, len(report.Failed)})

			for _, failed := range report.Failed {
				log.Printf("failed: %s (%s)", failed.Url, failed.Reason)
			}
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
