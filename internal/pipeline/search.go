package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/pkg/perplexity"
)

// Field sets requested by the two search queries.
var (
	contactFields = []string{
		model.FieldCompanyEmail,
		model.FieldCompanyPhone,
		model.FieldCompanyContactPage,
	}
	executiveFields = []string{
		model.FieldCEO,
		model.FieldCEOEmail,
		model.FieldCEOPhone,
		model.FieldCofounder,
		model.FieldCofounderEmail,
		model.FieldCofounderPhone,
	}
)

const contactPromptTmpl = `You are an information extraction agent. Search the web and find the official company contact information (not individuals) for this company.

Company: %s
Country: %s

Return the company's main email, phone number, and contact page URL. Prefer official sources. If a value is unknown, use null. One primary value per field.`

const executivePromptTmpl = `You are an information extraction agent. Search the web and find management info (CEO and Co-founder) for this company and their public contact details if available.

Company: %s
Country: %s

Only extract if clearly attributable to this company; otherwise use null.`

// SearchEnricher issues two web-search-backed structured queries per record
// against Perplexity: company contact fields and executive contact fields.
type SearchEnricher struct {
	px            perplexity.Client
	model         string
	maxConcurrent int
	disabled      string
}

// NewSearchEnricher creates the web-search enrichment stage. A non-empty
// disabledReason marks the stage skipped (missing key or config flag).
func NewSearchEnricher(px perplexity.Client, searchModel string, maxConcurrent int, disabledReason string) *SearchEnricher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &SearchEnricher{
		px:            px,
		model:         searchModel,
		maxConcurrent: maxConcurrent,
		disabled:      disabledReason,
	}
}

// Name implements Stage.
func (s *SearchEnricher) Name() string { return "search" }

// Enabled implements Stage.
func (s *SearchEnricher) Enabled() (bool, string) {
	if s.disabled != "" {
		return false, s.disabled
	}
	return true, ""
}

// Run queries the provider concurrently across records. Each record gets at
// most one attempt per query; any failure leaves that query's fields empty.
func (s *SearchEnricher) Run(ctx context.Context, set *model.Set) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for _, rec := range set.Records() {
		g.Go(func() error {
			prompt := fmt.Sprintf(contactPromptTmpl, rec.CompanyName, rec.Country)
			s.queryAndFill(gCtx, rec, prompt, contactFields)

			prompt = fmt.Sprintf(executivePromptTmpl, rec.CompanyName, rec.Country)
			s.queryAndFill(gCtx, rec, prompt, executiveFields)
			return nil
		})
	}

	return g.Wait()
}

// queryAndFill issues one schema-constrained search query and merges the
// returned fields under fill-if-empty.
func (s *SearchEnricher) queryAndFill(ctx context.Context, rec *model.Record, prompt string, fields []string) {
	log := zap.L().With(
		zap.String("company", rec.CompanyName),
		zap.Strings("fields", fields),
	)

	resp, err := s.px.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Model: s.model,
		Messages: []perplexity.Message{
			{Role: "system", Content: "You are a helpful assistant."},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: perplexity.NewJSONSchemaFormat(nullableStringSchema(fields)),
		WebSearchOptions: &perplexity.WebSearchOptions{
			SearchContextSize: perplexity.SearchContextHigh,
		},
	})
	if err != nil {
		log.Warn("search: query failed, skipping", zap.Error(err))
		return
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text())), &raw); err != nil {
		log.Warn("search: invalid json response, skipping", zap.Error(err))
		return
	}

	filled := model.FillMissing(rec, stringFields(raw), fields)
	log.Debug("search: query done",
		zap.Int("filled", filled),
		zap.Int("citations", len(resp.Citations)),
	)
}

// nullableStringSchema builds a JSON schema restricting the response to
// exactly the requested keys, each a string or null.
func nullableStringSchema(fields []string) map[string]any {
	props := make(map[string]any, len(fields))
	for _, f := range fields {
		props[f] = map[string]any{"type": []string{"string", "null"}}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             append([]string(nil), fields...),
		"additionalProperties": false,
	}
}

// fieldList renders field keys for prompt text, e.g. "company_email, company_phone".
func fieldList(fields []string) string {
	return strings.Join(fields, ", ")
}
