package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gearshift-group/lot-scraper/internal/extract"
	"github.com/gearshift-group/lot-scraper/internal/fetcher"
	"github.com/gearshift-group/lot-scraper/internal/model"
	"github.com/gearshift-group/lot-scraper/internal/site"
)

var (
	scrapeMaxPages    int
	scrapeConcurrency int
	scrapeTrim        string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <source> <model>",
	Short: "Scrape a source's search results for a model and persist listings",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		driver, err := e.Driver(args[0])
		if err != nil {
			return err
		}

		maxPages := scrapeMaxPages
		if maxPages == 0 {
			maxPages = cfg.Scrape.MaxPages
		}
		concurrency := scrapeConcurrency
		if concurrency == 0 {
			concurrency = cfg.Scrape.Concurrency
		}

		runID := uuid.NewString()
		cached := fetcher.NewCached(e.Fetcher, fetcher.SessionCache{})
		urls, err := collectListingURLs(ctx, cached, driver, args[1], maxPages)
		if err != nil {
			return err
		}
		zap.L().Info("search complete",
			zap.String("run_id", runID),
			zap.String("source", driver.Config().Name),
			zap.String("model", args[1]),
			zap.Int("listings", len(urls)),
		)

		var stored, rejected, failed atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for _, u := range urls {
			g.Go(func() error {
				html, err := cached.FetchHTML(gctx, u)
				if err != nil {
					failed.Add(1)
					zap.L().Warn("fetch failed", zap.String("url", u), zap.Error(err))
					return nil
				}

				detail, reason, err := driver.Extract(gctx, model.RawPage{
					HTML:   html,
					Type:   model.PageTypeDetail,
					URL:    u,
					Source: driver.Config().Name,
					Hints:  model.Hints{Model: args[1], Trim: scrapeTrim},
				})
				if err != nil {
					failed.Add(1)
					zap.L().Warn("extract failed", zap.String("url", u), zap.Error(err))
					return nil
				}
				if reason != extract.RejectNone {
					rejected.Add(1)
					zap.L().Info("listing rejected",
						zap.String("url", u),
						zap.String("reason", string(reason)),
					)
					return nil
				}

				if err := e.Store.UpsertListing(gctx, detail); err != nil {
					failed.Add(1)
					zap.L().Error("store failed", zap.String("url", u), zap.Error(err))
					return nil
				}
				stored.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("scrape complete",
			zap.String("run_id", runID),
			zap.String("source", driver.Config().Name),
			zap.Int64("stored", stored.Load()),
			zap.Int64("rejected", rejected.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

// collectListingURLs walks search result pages in order until maxPages
// or an empty page, deduplicating across pages.
func collectListingURLs(ctx context.Context, f fetcher.Fetcher, driver *site.Driver, modelQuery string, maxPages int) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		searchURL := driver.Config().SearchURL(modelQuery, pageNum)
		html, err := f.FetchHTML(ctx, searchURL)
		if err != nil {
			return nil, err
		}

		urls, err := driver.ListingURLs(model.RawPage{
			HTML:   html,
			Type:   model.PageTypeSearch,
			URL:    searchURL,
			Source: driver.Config().Name,
		})
		if err != nil {
			return nil, err
		}
		if len(urls) == 0 {
			break
		}

		added := 0
		for _, u := range urls {
			if !seen[u] {
				seen[u] = true
				out = append(out, u)
				added++
			}
		}
		// A page of nothing but repeats means pagination wrapped around.
		if added == 0 {
			break
		}
	}
	return out, nil
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeMaxPages, "max-pages", 0, "search pages to walk (default from config)")
	scrapeCmd.Flags().IntVar(&scrapeConcurrency, "concurrency", 0, "detail fetch workers (default from config)")
	scrapeCmd.Flags().StringVar(&scrapeTrim, "trim", "", "trim hint for normalization")
	rootCmd.AddCommand(scrapeCmd)
}
