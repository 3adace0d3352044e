package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobcraft/internal/fetch"
	"github.com/jonathan/jobcraft/internal/ingestion"
	"github.com/jonathan/jobcraft/internal/jobcache"
	"github.com/jonathan/jobcraft/internal/observability"
	"github.com/jonathan/jobcraft/internal/ratelimit"
	"github.com/jonathan/jobcraft/internal/retry"
	"github.com/jonathan/jobcraft/internal/security"
)

var scrapeJobCmd = &cobra.Command{
	Use:   "scrape-job",
	Short: "Scrape job postings into structured JSON",
	Long: "Fetch each job posting URL, extract role, company, description and location " +
		"with the configured LLM, and print a summary. With --out each job is written " +
		"to <company>-<role>-<id>.json in that directory.",
	RunE: runScrapeJob,
}

var (
	scrapeURLs  []string
	scrapeOut   string
	useBrowser  bool
	concurrency int
)

func init() {
	scrapeJobCmd.Flags().StringArrayVarP(&scrapeURLs, "url", "u", nil, "Job posting URL (repeatable)")
	scrapeJobCmd.Flags().StringVarP(&scrapeOut, "out", "o", "", "Output directory for job JSON files")
	scrapeJobCmd.Flags().BoolVar(&useBrowser, "browser", false, "Render thin pages in headless Chrome")
	scrapeJobCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel scrapes (default from scraper.concurrency)")

	_ = scrapeJobCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(scrapeJobCmd)
}

func runScrapeJob(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	printer := observability.NewPrinter(cmd.OutOrStdout())

	urls := make([]string, 0, len(scrapeURLs))
	for _, u := range scrapeURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return fmt.Errorf("at least one non-empty --url is required")
	}

	total, failed := len(urls), 0
	if cfg.Scraper.StrictDNS {
		validator := security.NewValidator(true)
		kept := urls[:0]
		for _, u := range urls {
			if err := validator.ValidateURL(ctx, u); err != nil {
				printer.PrintScrapeFailure(u, fmt.Errorf("%w: %w", ingestion.ErrInvalidURL, err))
				failed++
				continue
			}
			kept = append(kept, u)
		}
		urls = kept
	}

	caller, err := newCaller(ctx)
	if err != nil {
		return err
	}
	defer caller.Close()

	store, err := jobcache.Open(ctx, cfg.Cache.Driver, cfg.Cache.URL, retry.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open job cache: %w", err)
	}
	defer store.Close()

	if purged, err := jobcache.Purge(ctx, store); err != nil {
		logger.Warn().Err(err).Msg("failed to purge expired cache entries")
	} else if purged > 0 {
		logger.Debug().Int64("purged", purged).Msg("purged expired cache entries")
	}

	hosts := ratelimit.NewLimiter(ratelimit.PerMinute(cfg.Scraper.HostRequestsPerMinute))
	defer hosts.Stop()

	opts := []ingestion.Option{
		ingestion.WithLogger(logger),
		ingestion.WithInvoker(newInvoker()),
		ingestion.WithFetchOptions(cfg.FetchOptions()),
		ingestion.WithCache(store, cfg.Cache.TTL),
		ingestion.WithHostLimiter(hosts),
	}
	if useBrowser || cfg.Scraper.UseBrowser {
		opts = append(opts, ingestion.WithRenderer(fetch.BrowserRenderer(cfg.Scraper.BrowserTimeout, logger)))
	}
	scraper := ingestion.NewScraper(caller, opts...)

	n := concurrency
	if n <= 0 {
		n = cfg.Scraper.Concurrency
	}

	for _, res := range scraper.ScrapeAll(ctx, urls, n) {
		if res.Err != nil {
			printer.PrintScrapeFailure(res.URL, res.Err)
			failed++
			continue
		}

		printer.PrintJob(res.Job)
		if scrapeOut == "" {
			continue
		}
		path, err := ingestion.WriteOutput(scrapeOut, res.Job)
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d job postings failed", failed, total)
	}
	return nil
}
