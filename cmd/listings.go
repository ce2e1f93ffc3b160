package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gearshift-group/lot-scraper/internal/model"
	"github.com/gearshift-group/lot-scraper/internal/store"
)

var (
	listSource string
	listStatus string
	listModel  string
	listLimit  int
)

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Query stored listings as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		listings, err := e.Store.ListListings(ctx, store.ListingFilter{
			Source: listSource,
			Status: model.AuctionStatus(listStatus),
			Model:  listModel,
			Limit:  listLimit,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	},
}

var priceHistoryCmd = &cobra.Command{
	Use:   "price-history <source-url>",
	Short: "Show the observed price series for a listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		points, err := e.Store.PriceHistory(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(points)
	},
}

func init() {
	listingsCmd.Flags().StringVar(&listSource, "source", "", "filter by source")
	listingsCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (sold|active)")
	listingsCmd.Flags().StringVar(&listModel, "model", "", "filter by normalized model")
	listingsCmd.Flags().IntVar(&listLimit, "limit", 50, "max rows")
	rootCmd.AddCommand(listingsCmd)
	rootCmd.AddCommand(priceHistoryCmd)
}
