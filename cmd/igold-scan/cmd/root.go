package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"igold-backend/lib/scrapers/igold"
	"igold-backend/lib/sqliteutil"
	"igold-backend/lib/telemetry"
	"igold-backend/services/pricestore"
	pricestoredb "igold-backend/services/pricestore/db"
	"igold-backend/services/spotprice"
)

type Config struct {
	Database string           `json:"database"`
	Scraper  igold.Config     `json:"scraper"`
	Spot     spotprice.Config `json:"spot"`
}

var (
	config  Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "igold-scan",
	Short: "igold-scan tracks precious metal listings on igold.bg over time.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func Execute(ctx context.Context, cfg Config) {
	config = cfg
	if config.Database == "" {
		config.Database = "igold.db"
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore() (pricestore.Service, *sql.DB) {
	db, err := sqliteutil.OpenDB(pricestoredb.Schema, config.Database)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	return pricestore.NewService(db), db
}

func parseMetal(arg string) (igold.MetalType, error) {
	switch strings.ToLower(arg) {
	case "gold":
		return igold.MetalGold, nil
	case "silver":
		return igold.MetalSilver, nil
	default:
		return "", fmt.Errorf("unknown metal %q, expected gold or silver", arg)
	}
}
