package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/export"
	"github.com/sells-group/contacts-cli/internal/fetcher"
	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/pipeline"
	anthropicpkg "github.com/sells-group/contacts-cli/pkg/anthropic"
	"github.com/sells-group/contacts-cli/pkg/firecrawl"
	"github.com/sells-group/contacts-cli/pkg/perplexity"
)

var (
	runPages int
	runLimit int
	runOut   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full contact collection pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pages := cfg.Listing.Pages
		if cmd.Flags().Changed("pages") {
			pages = runPages
		}
		limit := cfg.Listing.Limit
		if cmd.Flags().Changed("limit") {
			limit = runLimit
		}
		outDir := cfg.Export.OutDir
		if cmd.Flags().Changed("out") {
			outDir = runOut
		}

		htmlFetcher := fetcher.NewHTMLFetcher(cfg.Listing.RatePerSec)

		var anthropicClient anthropicpkg.Client
		if cfg.Anthropic.Key != "" {
			anthropicClient = anthropicpkg.NewClient(cfg.Anthropic.Key)
		} else {
			zap.L().Info("anthropic key absent, listing extraction uses markup parsing only")
		}

		stages := []pipeline.Stage{
			pipeline.NewCollector(htmlFetcher, anthropicClient, cfg.Anthropic.Model, cfg.Listing.Regions, pages, limit),
			pipeline.NewProfileEnricher(htmlFetcher, cfg.Pipeline.MaxConcurrent, cfg.Pipeline.Profile),
		}

		searchDisabled := ""
		switch {
		case !cfg.Pipeline.Search:
			searchDisabled = "disabled by config"
		case cfg.Perplexity.Key == "":
			searchDisabled = "perplexity key not set"
		}
		var perplexityClient perplexity.Client
		if cfg.Perplexity.Key != "" {
			perplexityClient = perplexity.NewClient(cfg.Perplexity.Key,
				perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
				perplexity.WithModel(cfg.Perplexity.Model),
			)
		}
		stages = append(stages, pipeline.NewSearchEnricher(perplexityClient, cfg.Perplexity.Model, cfg.Pipeline.MaxConcurrent, searchDisabled))

		fallbackDisabled := ""
		switch {
		case !cfg.Pipeline.Fallback:
			fallbackDisabled = "disabled by config"
		case cfg.Firecrawl.Key == "":
			fallbackDisabled = "firecrawl key not set"
		case cfg.Anthropic.Key == "":
			fallbackDisabled = "anthropic key not set"
		}
		var firecrawlClient firecrawl.Client
		if cfg.Firecrawl.Key != "" {
			firecrawlClient = firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		}
		stages = append(stages, pipeline.NewFallbackEnricher(
			firecrawlClient,
			anthropicClient,
			cfg.Anthropic.Model,
			cfg.Pipeline.PageTextLimit,
			cfg.Pipeline.MaxConcurrent,
			fallbackDisabled,
		))

		set := model.NewSet()
		pipeline.New(stages...).Run(ctx, set)

		if set.Len() == 0 {
			zap.L().Warn("no records collected, writing empty workbook")
		}

		path := export.OutputPath(outDir, cfg.Export.FilePrefix, time.Now())
		if err := export.Write(path, cfg.Export.SheetName, set); err != nil {
			return eris.Wrap(err, "write export")
		}

		zap.L().Info("run complete",
			zap.Int("records", set.Len()),
			zap.String("output", path),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runPages, "pages", 0, "listing pages to fetch per region (overrides config)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "cap on collected records, 0 for no cap (overrides config)")
	runCmd.Flags().StringVar(&runOut, "out", "", "output directory (overrides config)")
	rootCmd.AddCommand(runCmd)
}
