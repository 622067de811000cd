package zapimoveis

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"imoveis-scraper/models"
)

const siteBaseURL = "https://www.zapimoveis.com.br"

var (
	precoRe     = regexp.MustCompile(`R\$\s*([\d.]+(?:,\d{2})?)`)
	ruaTitleRe  = regexp.MustCompile(`(?i)em\s+(Rua|Avenida|Av\.|R\.)\s+([^,]+)`)
	endTitleRe  = regexp.MustCompile(`em\s+(.+?)(?:,\s*[A-Z]|$)`)
	quartosRe   = regexp.MustCompile(`(?i)(\d+)\s+quarto`)
	banheirosRe = regexp.MustCompile(`(?i)(\d+)\s+banheiro`)
	areaRe      = regexp.MustCompile(`(\d+)\s*m²`)
	numRe       = regexp.MustCompile(`\d+[.,]?\d*`)
	intRe       = regexp.MustCompile(`\d+`)
	paginasRe   = regexp.MustCompile(`(?i)de\s+(\d+)\s+página`)
	paginaBtnRe = regexp.MustCompile(`(?i)página\s+(\d+)`)
)

// cardSelectors is the fallback chain for locating listing cards. The
// site's markup drifts; the first selector that matches anything wins.
// This list is the only thing that needs touching when the layout changes.
var cardSelectors = []string{
	`a[href*="/imovel/"]`,
	`[data-testid*="property-card"]`,
	`div[class*="card"]`,
	`article`,
}

// ExtractListings parses the rendered HTML of one results page into
// records. The second return value counts cards that were present but
// unparseable (no price and no address); those are skipped, not fatal.
func ExtractListings(html, city, state string) ([]*models.ListingRecord, int) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0
	}

	cards := findCards(doc)
	now := time.Now()

	var records []*models.ListingRecord
	skipped := 0
	cards.Each(func(_ int, card *goquery.Selection) {
		rec := extractCard(card, city, state, now)
		if rec == nil {
			skipped++
			return
		}
		records = append(records, rec)
	})
	return records, skipped
}

func findCards(doc *goquery.Document) *goquery.Selection {
	for _, sel := range cardSelectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	return doc.Find("article")
}

// extractCard pulls the record fields out of one listing card. The card
// title attribute carries most structured data ("Casa com 3 quartos,
// 2 banheiros, 120 m² em Rua X, Bairro"), so it is preferred; visible
// elements serve as fallbacks.
func extractCard(card *goquery.Selection, city, state string, now time.Time) *models.ListingRecord {
	rec := &models.ListingRecord{City: city, State: state, CollectedAt: now}

	if href, ok := card.Attr("href"); ok && href != "" {
		if strings.HasPrefix(href, "/") {
			href = siteBaseURL + href
		}
		rec.URL = href
	}

	title := card.AttrOr("title", "")

	if street := strings.TrimSpace(card.Find(`p[data-cy="rp-cardProperty-street-txt"]`).First().Text()); street != "" {
		rec.Street = street
	} else if m := ruaTitleRe.FindStringSubmatch(title); m != nil {
		rec.Street = strings.TrimSpace(m[1] + " " + m[2])
	}

	if addr := strings.TrimSpace(card.Find("h2").First().Text()); addr != "" {
		rec.Address = addr
	} else if m := endTitleRe.FindStringSubmatch(title); m != nil {
		rec.Address = strings.TrimSpace(m[1])
	}

	if m := precoRe.FindStringSubmatch(card.Text()); m != nil {
		rec.Price = "R$ " + m[1]
	}

	if m := quartosRe.FindStringSubmatch(title); m != nil {
		rec.Bedrooms = atoiPtr(m[1])
	}
	if m := banheirosRe.FindStringSubmatch(title); m != nil {
		rec.Bathrooms = atoiPtr(m[1])
	}
	if m := areaRe.FindStringSubmatch(title); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			rec.AreaM2 = &f
		}
	}

	if rec.Bedrooms == nil || rec.Bathrooms == nil || rec.AreaM2 == nil {
		scanSpans(card, rec)
	}

	// A card exposing neither price nor address is not a listing.
	if rec.Price == "" && rec.Address == "" {
		return nil
	}
	return rec
}

// scanSpans fills numeric fields the title did not provide from the
// card's span texts ("3 quartos", "120 m²", ...).
func scanSpans(card *goquery.Selection, rec *models.ListingRecord) {
	card.Find("span").Each(func(_ int, span *goquery.Selection) {
		text := strings.TrimSpace(span.Text())
		lower := strings.ToLower(text)

		if rec.Bedrooms == nil && strings.Contains(lower, "quarto") {
			if n := intRe.FindString(text); n != "" {
				rec.Bedrooms = atoiPtr(n)
			}
		}
		if rec.Bathrooms == nil && strings.Contains(lower, "banheiro") {
			if n := intRe.FindString(text); n != "" {
				rec.Bathrooms = atoiPtr(n)
			}
		}
		if rec.AreaM2 == nil && (strings.Contains(text, "m²") || strings.Contains(lower, "m2")) {
			if n := numRe.FindString(text); n != "" {
				if f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", "."), 64); err == nil {
					rec.AreaM2 = &f
				}
			}
		}
	})
}

// detectTotalPages reads the paginator out of a rendered first page.
// Returns 0 when no pagination hint is present.
func detectTotalPages(html string) int {
	if m := paginasRe.FindStringSubmatch(html); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	max := 0
	doc.Find("button[aria-label]").Each(func(_ int, btn *goquery.Selection) {
		if m := paginaBtnRe.FindStringSubmatch(btn.AttrOr("aria-label", "")); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > max {
				max = n
			}
		}
	})
	return max
}

func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
