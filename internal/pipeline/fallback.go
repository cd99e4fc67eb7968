package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/pkg/anthropic"
	"github.com/sells-group/contacts-cli/pkg/firecrawl"
)

const extractionSystemPrompt = `You extract company contact information from web page content. Return only a JSON object with the requested fields. Use null when a value is not found on the page.`

const extractionPromptTmpl = `Extract the main company contact information from this webpage content:

%s

Return ONLY a JSON object with exactly these keys: %s

Rules:
- Look for a general company contact email (like info@, contact@, hello@) rather than personal emails
- Look for the main company phone number
- If multiple emails/phones exist, choose the most general/official one
- Use null if no reliable value is found
- Do not include any explanation, just the JSON object`

// FallbackEnricher crawls contact pages for records still missing email or
// phone and extracts only the missing field(s) from the rendered page text.
type FallbackEnricher struct {
	fc            firecrawl.Client
	ai            anthropic.Client
	model         string
	pageTextLimit int
	maxConcurrent int
	disabled      string
}

// NewFallbackEnricher creates the contact-page fallback stage. A non-empty
// disabledReason marks the stage skipped.
func NewFallbackEnricher(fc firecrawl.Client, ai anthropic.Client, aiModel string, pageTextLimit, maxConcurrent int, disabledReason string) *FallbackEnricher {
	if pageTextLimit < 1 {
		pageTextLimit = 5000
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &FallbackEnricher{
		fc:            fc,
		ai:            ai,
		model:         aiModel,
		pageTextLimit: pageTextLimit,
		maxConcurrent: maxConcurrent,
		disabled:      disabledReason,
	}
}

// Name implements Stage.
func (f *FallbackEnricher) Name() string { return "fallback" }

// Enabled implements Stage.
func (f *FallbackEnricher) Enabled() (bool, string) {
	if f.disabled != "" {
		return false, f.disabled
	}
	return true, ""
}

// Run selects eligible records, fetches their contact pages, and fills the
// missing contact fields. Records with both email and phone set are never
// selected, regardless of contact page presence.
func (f *FallbackEnricher) Run(ctx context.Context, set *model.Set) error {
	var eligible []*model.Record
	urlSet := make(map[string]struct{})
	for _, rec := range set.Records() {
		if rec.NeedsContactFallback() {
			eligible = append(eligible, rec)
			urlSet[rec.CompanyContactPage] = struct{}{}
		}
	}
	if len(eligible) == 0 {
		zap.L().Info("fallback: no records need enrichment")
		return nil
	}

	urls := make([]string, 0, len(urlSet))
	for u := range urlSet {
		urls = append(urls, u)
	}

	pages := f.fetchPages(ctx, urls)
	zap.L().Info("fallback: contact pages fetched",
		zap.Int("eligible", len(eligible)),
		zap.Int("fetched", len(pages)),
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxConcurrent)

	for _, rec := range eligible {
		g.Go(func() error {
			f.extractAndFill(gCtx, rec, pages[rec.CompanyContactPage])
			return nil
		})
	}

	return g.Wait()
}

// fetchPages retrieves rendered page text for each URL, batch-first with a
// per-URL fallback when the batch cannot be started or polled. The returned
// map holds markdown keyed by requested URL; failed URLs are absent.
func (f *FallbackEnricher) fetchPages(ctx context.Context, urls []string) map[string]string {
	pages := make(map[string]string, len(urls))

	batch, err := f.fc.BatchScrape(ctx, firecrawl.BatchScrapeRequest{
		URLs:    urls,
		Formats: []string{"markdown"},
	})
	if err == nil {
		status, pollErr := firecrawl.PollBatchScrape(ctx, f.fc, batch.ID)
		if pollErr == nil {
			for _, page := range status.Data {
				if page.Markdown != "" {
					pages[page.Source()] = page.Markdown
				}
			}
			return pages
		}
		err = pollErr
	}
	zap.L().Warn("fallback: batch scrape unavailable, scraping per url", zap.Error(err))

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxConcurrent)
	for _, u := range urls {
		g.Go(func() error {
			resp, scrapeErr := f.fc.Scrape(gCtx, firecrawl.ScrapeRequest{
				URL:     u,
				Formats: []string{"markdown"},
			})
			if scrapeErr != nil {
				zap.L().Warn("fallback: scrape failed, skipping", zap.String("url", u), zap.Error(scrapeErr))
				return nil
			}
			if resp.Data.Markdown == "" {
				return nil
			}
			mu.Lock()
			pages[u] = resp.Data.Markdown
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return pages
}

// extractAndFill asks the model for the record's currently-missing fields
// only, then merges under fill-if-empty.
func (f *FallbackEnricher) extractAndFill(ctx context.Context, rec *model.Record, pageText string) {
	log := zap.L().With(
		zap.String("company", rec.CompanyName),
		zap.String("url", rec.CompanyContactPage),
	)

	if pageText == "" {
		log.Debug("fallback: no page content")
		return
	}

	// Re-check under the worker: an earlier stage result may already have
	// landed between selection and extraction.
	missing := rec.MissingContactFields()
	if len(missing) == 0 {
		return
	}

	if len(pageText) > f.pageTextLimit {
		pageText = pageText[:f.pageTextLimit]
	}

	resp, err := f.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     f.model,
		MaxTokens: 512,
		System:    extractionSystemPrompt,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf(extractionPromptTmpl, pageText, fieldList(missing)),
		}},
	})
	if err != nil {
		log.Warn("fallback: extraction failed, skipping", zap.Error(err))
		return
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &raw); err != nil {
		log.Warn("fallback: invalid json response, skipping", zap.Error(err))
		return
	}

	fields := stringFields(raw)
	// Some models echo "null" as a string literal.
	for k, v := range fields {
		if strings.EqualFold(v, "null") {
			delete(fields, k)
		}
	}

	filled := model.FillMissing(rec, fields, missing)
	log.Debug("fallback: extraction done", zap.Int("filled", filled))
}
