package pipeline

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contacts-cli/internal/fetcher"
	"github.com/sells-group/contacts-cli/internal/model"
)

// profilePhoneKey is the attribute-table row label carrying the phone number.
const profilePhoneKey = "Phone"

// ProfileEnricher fetches each company's directory profile page and fills
// company_phone from the profile attribute table.
type ProfileEnricher struct {
	fetcher       fetcher.Fetcher
	maxConcurrent int
	enabled       bool
}

// NewProfileEnricher creates the profile enrichment stage.
func NewProfileEnricher(f fetcher.Fetcher, maxConcurrent int, enabled bool) *ProfileEnricher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &ProfileEnricher{fetcher: f, maxConcurrent: maxConcurrent, enabled: enabled}
}

// Name implements Stage.
func (p *ProfileEnricher) Name() string { return "profile" }

// Enabled implements Stage.
func (p *ProfileEnricher) Enabled() (bool, string) {
	if !p.enabled {
		return false, "disabled by config"
	}
	return true, ""
}

// Run fetches profile pages concurrently. Each worker owns exactly one
// record; a per-record failure leaves the phone empty and never aborts
// siblings.
func (p *ProfileEnricher) Run(ctx context.Context, set *model.Set) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)

	for _, rec := range set.Records() {
		if rec.ProfileURL == "" || !model.IsEmpty(rec.CompanyPhone) {
			continue
		}
		g.Go(func() error {
			log := zap.L().With(
				zap.String("company", rec.CompanyName),
				zap.String("url", rec.ProfileURL),
			)

			html, err := p.fetcher.FetchHTML(gCtx, rec.ProfileURL)
			if err != nil {
				log.Warn("profile: fetch failed, skipping", zap.Error(err))
				return nil
			}

			attrs, err := parseProfileAttributes(html)
			if err != nil {
				log.Warn("profile: parse failed, skipping", zap.Error(err))
				return nil
			}

			phone, ok := attrs[profilePhoneKey]
			if !ok {
				log.Debug("profile: no phone attribute")
				return nil
			}

			if model.FillMissing(rec, map[string]string{model.FieldCompanyPhone: phone}, []string{model.FieldCompanyPhone}) > 0 {
				log.Debug("profile: phone filled")
			}
			return nil
		})
	}

	return g.Wait()
}

// parseProfileAttributes reads the profile page attribute table: rows of
// two cells, key (trailing colon stripped) and value.
func parseProfileAttributes(html string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "profile: parse html")
	}

	table := doc.Find("div.table-responsive table").First()
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		return nil, eris.New("profile: no attribute table")
	}

	attrs := make(map[string]string)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return
		}
		key := strings.TrimSuffix(strings.TrimSpace(cells.Eq(0).Text()), ":")
		value := strings.TrimSpace(cells.Eq(1).Text())
		if key != "" && value != "" {
			attrs[key] = value
		}
	})

	return attrs, nil
}
