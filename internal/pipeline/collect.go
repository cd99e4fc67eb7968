package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/fetcher"
	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/pkg/anthropic"
)

// listingContainerSelector is the wrapper around company entries on a
// directory listing page.
const listingContainerSelector = "div.list-group.list-group-wrap"

const listingSystemPrompt = `You are a data parser. Extract company names and countries from wealth manager listings.
Return ONLY JSON: {"companies": [{"company_name": "...", "country": "..."}]}

Each entry contains text like "Company Name Wealth Manager in Country, Region".
Split this text at " Wealth Manager in " OR " Family Office in ":
- company_name = text BEFORE the split point
- country = text AFTER the split point

DO NOT include "Wealth Manager" or "Family Office" in either field.
Return only valid JSON, no other text.`

// Business descriptors that separate a company name from its country in
// listing entry text.
var listingSplitPatterns = []string{
	" Wealth Manager in ",
	" Family Office in ",
	" Asset Manager in ",
	" Private Bank in ",
	" Investment Manager in ",
}

var businessDescriptors = []string{
	"Wealth Manager",
	"Family Office",
	"Asset Manager",
	"Private Bank",
	"Investment Manager",
}

// Collector fetches paginated region listings and populates the record set
// with deduplicated company identities.
type Collector struct {
	fetcher fetcher.Fetcher
	ai      anthropic.Client // nil disables LLM extraction, selector fallback only
	model   string
	regions []string
	pages   int
	limit   int
}

// NewCollector creates the collection stage. ai may be nil, in which case
// only the deterministic selector-based parser runs.
func NewCollector(f fetcher.Fetcher, ai anthropic.Client, aiModel string, regions []string, pages, limit int) *Collector {
	if pages < 1 {
		pages = 1
	}
	return &Collector{
		fetcher: f,
		ai:      ai,
		model:   aiModel,
		regions: regions,
		pages:   pages,
		limit:   limit,
	}
}

// Name implements Stage.
func (c *Collector) Name() string { return "collect" }

// Enabled implements Stage.
func (c *Collector) Enabled() (bool, string) {
	if len(c.regions) == 0 {
		return false, "no listing regions configured"
	}
	return true, ""
}

// Run fetches every page of every region, extracts company triples, and
// adds them to the set. A failed page fetch or parse is logged and skipped.
func (c *Collector) Run(ctx context.Context, set *model.Set) error {
	for _, region := range c.regions {
		for page := 1; page <= c.pages; page++ {
			pageURL := buildPageURL(region, page)
			log := zap.L().With(zap.String("url", pageURL))

			html, err := c.fetcher.FetchHTML(ctx, pageURL)
			if err != nil {
				log.Warn("collect: page fetch failed, skipping", zap.Error(err))
				continue
			}

			items, err := c.extractCompanies(ctx, html, region)
			if err != nil {
				log.Warn("collect: page parse failed, skipping", zap.Error(err))
				continue
			}

			added := 0
			for _, it := range items {
				_, ok := set.Add(&model.Record{
					CompanyName: it.Name,
					Country:     it.Country,
					ProfileURL:  it.ProfileURL,
				})
				if ok {
					added++
				}
			}
			log.Debug("collect: page done",
				zap.Int("extracted", len(items)),
				zap.Int("added", added),
			)
		}
	}

	set.Truncate(c.limit)
	zap.L().Info("collect: done", zap.Int("companies", set.Len()))
	return nil
}

// buildPageURL appends the page parameter for pages beyond the first.
func buildPageURL(base string, page int) string {
	if page <= 1 {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, sep, page)
}

// listingItem is one extracted company triple.
type listingItem struct {
	Name       string
	Country    string
	ProfileURL string
}

// anchorEntry is a raw listing anchor before name/country splitting.
type anchorEntry struct {
	title string // strong.list-group-item-title text, may be empty
	text  string // full anchor text
	href  string // absolute profile URL
}

// extractCompanies parses one listing page. Profile URLs always come from
// the anchors; name/country pairs come from the LLM when available, with
// the deterministic splitter as fallback.
func (c *Collector) extractCompanies(ctx context.Context, html, baseURL string) ([]listingItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "collect: parse html")
	}

	container := doc.Find(listingContainerSelector)
	if container.Length() == 0 {
		// Sparse page layout; fall back to the whole document.
		container = doc.Selection
	}

	anchors := parseAnchors(container, baseURL)
	if len(anchors) == 0 {
		return nil, eris.New("collect: no profile anchors found")
	}

	urlByName := make(map[string]string, len(anchors))
	for _, a := range anchors {
		name, _ := splitNameCountry(entryName(a))
		if key := model.NormalizeName(name); key != "" {
			if _, exists := urlByName[key]; !exists {
				urlByName[key] = a.href
			}
		}
	}

	var items []listingItem
	if c.ai != nil {
		items = c.extractWithLLM(ctx, container)
	}
	if len(items) == 0 {
		items = extractFromAnchors(anchors)
	}

	for i := range items {
		items[i].ProfileURL = urlByName[model.NormalizeName(items[i].Name)]
	}
	return items, nil
}

// entryName prefers the structured title over the full anchor text.
func entryName(a anchorEntry) string {
	if a.title != "" {
		return a.title
	}
	return a.text
}

// parseAnchors collects profile links within the listing container.
func parseAnchors(container *goquery.Selection, baseURL string) []anchorEntry {
	base, _ := url.Parse(baseURL)
	seen := make(map[string]struct{})
	var anchors []anchorEntry

	container.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, "/profile/") {
			return
		}
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}

		title := strings.TrimSpace(s.Find("strong.list-group-item-title").First().Text())
		text := strings.Join(strings.Fields(s.Text()), " ")
		if title == "" && text == "" {
			return
		}
		anchors = append(anchors, anchorEntry{title: title, text: text, href: href})
	})

	return anchors
}

// extractWithLLM asks the model to split listing entries into name/country
// pairs. Returns nil on any failure so the caller falls back.
func (c *Collector) extractWithLLM(ctx context.Context, container *goquery.Selection) []listingItem {
	containerHTML, err := goquery.OuterHtml(container)
	if err != nil {
		zap.L().Warn("collect: render container html failed", zap.Error(err))
		return nil
	}

	resp, err := c.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: 2048,
		System:    listingSystemPrompt,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: "Extract companies from this HTML:\n\n" + containerHTML,
		}},
	})
	if err != nil {
		zap.L().Warn("collect: llm extraction failed, using fallback parser", zap.Error(err))
		return nil
	}

	var parsed struct {
		Companies []struct {
			CompanyName string `json:"company_name"`
			Country     string `json:"country"`
		} `json:"companies"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &parsed); err != nil {
		zap.L().Warn("collect: llm returned invalid json, using fallback parser", zap.Error(err))
		return nil
	}

	var items []listingItem
	for _, co := range parsed.Companies {
		if strings.TrimSpace(co.CompanyName) == "" {
			continue
		}
		// The model occasionally leaves the descriptor in the name; re-split
		// to guarantee clean fields.
		name, country := splitNameCountry(co.CompanyName)
		if country == "" {
			country = cleanCountry(co.Country)
		}
		items = append(items, listingItem{Name: name, Country: country})
	}
	return items
}

// extractFromAnchors splits each anchor's text deterministically.
func extractFromAnchors(anchors []anchorEntry) []listingItem {
	var items []listingItem
	for _, a := range anchors {
		name, country := splitNameCountry(entryName(a))
		if name == "" {
			continue
		}
		items = append(items, listingItem{Name: name, Country: country})
	}
	return items
}

// splitNameCountry splits listing entry text like
// "Alpha Blue Ocean Wealth Manager in France, Europe" into
// ("Alpha Blue Ocean", "France, Europe").
func splitNameCountry(text string) (name, country string) {
	text = strings.TrimSpace(text)

	for _, pattern := range listingSplitPatterns {
		if idx := strings.Index(text, pattern); idx >= 0 {
			return strings.TrimSpace(text[:idx]), cleanCountry(text[idx+len(pattern):])
		}
	}

	// No descriptor found; try the last " in " separator.
	if idx := strings.LastIndex(text, " in "); idx >= 0 {
		name = strings.TrimSpace(text[:idx])
		country = cleanCountry(text[idx+4:])
		for _, desc := range businessDescriptors {
			if trimmed, ok := strings.CutSuffix(name, desc); ok {
				name = strings.TrimSpace(trimmed)
				break
			}
		}
		return name, country
	}

	return text, ""
}

// cleanCountry strips stray business descriptors and separators the model
// sometimes leaves in the country field.
func cleanCountry(country string) string {
	country = strings.TrimSpace(country)
	for _, desc := range businessDescriptors {
		country = strings.TrimSpace(strings.TrimPrefix(country, desc))
	}
	country = strings.TrimSpace(strings.TrimPrefix(country, "in "))
	return country
}
