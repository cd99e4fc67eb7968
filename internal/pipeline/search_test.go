package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/pkg/perplexity"
)

func TestSearchEnricherRun(t *testing.T) {
	px := &mockPerplexityClient{
		respond: func(req perplexity.ChatCompletionRequest) (string, error) {
			prompt := req.Messages[1].Content
			if strings.Contains(prompt, "contact information (not individuals)") {
				return `{"company_email": "info@alpha.fr", "company_phone": "+33 1 00 00 00 00", "company_contact_page": "https://alpha.fr/contact", "unrequested_field": "ignore me"}`, nil
			}
			return `{"ceo": "Marie Laurent", "ceo_email": null, "ceo_phone": null, "cofounder": null, "cofounder_email": null, "cofounder_phone": null}`, nil
		},
	}

	set := model.NewSet()
	rec, _ := set.Add(&model.Record{CompanyName: "Alpha", Country: "France"})
	rec.CompanyPhone = "+33 9 99 99 99 99"

	s := NewSearchEnricher(px, "sonar-pro", 2, "")
	require.NoError(t, s.Run(context.Background(), set))

	assert.Equal(t, "info@alpha.fr", rec.CompanyEmail)
	assert.Equal(t, "+33 9 99 99 99 99", rec.CompanyPhone, "seeded phone survives the search result")
	assert.Equal(t, "https://alpha.fr/contact", rec.CompanyContactPage)
	assert.Equal(t, "Marie Laurent", rec.CEO)
	assert.Empty(t, rec.CEOEmail, "null fields stay empty")
	assert.Empty(t, rec.Cofounder)

	reqs := px.recorded()
	require.Len(t, reqs, 2, "two queries per record")
	for _, req := range reqs {
		assert.Equal(t, "sonar-pro", req.Model)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_schema", req.ResponseFormat.Type)
		require.NotNil(t, req.WebSearchOptions)
		assert.Equal(t, perplexity.SearchContextHigh, req.WebSearchOptions.SearchContextSize)
	}

	contactSchema := reqs[0].ResponseFormat.JSONSchema.Schema
	props, ok := contactSchema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, model.FieldCompanyEmail)
	assert.NotContains(t, props, model.FieldCEO, "contact query never requests executive fields")
}

func TestSearchEnricherIgnoresUnrequestedFields(t *testing.T) {
	px := &mockPerplexityClient{
		respond: func(req perplexity.ChatCompletionRequest) (string, error) {
			prompt := req.Messages[1].Content
			if strings.Contains(prompt, "contact information (not individuals)") {
				return `{"company_email": "info@zen.sg", "ceo": "Injected Name"}`, nil
			}
			return `{}`, nil
		},
	}

	set := model.NewSet()
	rec, _ := set.Add(&model.Record{CompanyName: "Zen Capital", Country: "Singapore"})

	s := NewSearchEnricher(px, "sonar-pro", 1, "")
	require.NoError(t, s.Run(context.Background(), set))

	assert.Equal(t, "info@zen.sg", rec.CompanyEmail)
	assert.Empty(t, rec.CEO, "field outside the requested schema is dropped")
}

func TestSearchEnricherProviderFailure(t *testing.T) {
	calls := 0
	px := &mockPerplexityClient{
		respond: func(req perplexity.ChatCompletionRequest) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("HTTP 429")
			}
			return `{"ceo": "Nils Berg"}`, nil
		},
	}

	set := model.NewSet()
	rec, _ := set.Add(&model.Record{CompanyName: "Nordic Trust", Country: "Norway"})

	s := NewSearchEnricher(px, "sonar-pro", 1, "")
	require.NoError(t, s.Run(context.Background(), set), "query failure never aborts the stage")

	assert.Empty(t, rec.CompanyEmail, "failed contact query leaves fields empty, no retry")
	assert.Equal(t, "Nils Berg", rec.CEO, "second query still runs")
	assert.Equal(t, 2, calls)
}

func TestSearchEnricherMalformedResponse(t *testing.T) {
	px := &mockPerplexityClient{
		respond: func(perplexity.ChatCompletionRequest) (string, error) {
			return "I could not find structured data, sorry.", nil
		},
	}

	set := model.NewSet()
	rec, _ := set.Add(&model.Record{CompanyName: "Alpha", Country: "France"})

	s := NewSearchEnricher(px, "sonar-pro", 1, "")
	require.NoError(t, s.Run(context.Background(), set))
	assert.Empty(t, rec.CompanyEmail)
}

func TestSearchEnricherDisabled(t *testing.T) {
	s := NewSearchEnricher(nil, "sonar-pro", 1, "perplexity key not set")
	ok, reason := s.Enabled()
	assert.False(t, ok)
	assert.Equal(t, "perplexity key not set", reason)
}

func TestNullableStringSchema(t *testing.T) {
	schema := nullableStringSchema([]string{model.FieldCompanyEmail, model.FieldCompanyPhone})

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []string{model.FieldCompanyEmail, model.FieldCompanyPhone}, schema["required"])

	props := schema["properties"].(map[string]any)
	emailType := props[model.FieldCompanyEmail].(map[string]any)["type"]
	assert.Equal(t, []string{"string", "null"}, emailType)
}
