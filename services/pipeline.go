// Package services wires the extraction strategies into the pipeline
// and reconciles their output into the final record list.
package services

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/omerfdk/restaurant-scraper/extract"
	"github.com/omerfdk/restaurant-scraper/models"
	"github.com/omerfdk/restaurant-scraper/normalize"
)

// Pipeline runs every extraction strategy over one page snapshot and
// reconciles the candidates. Strategy order encodes trust: structured
// blocks, then vendor payloads, then (only if both found nothing) the
// nested walker; the text-pattern strategy joins in on listing pages.
type Pipeline struct {
	structured *extract.StructuredBlockParser
	vendor     *extract.SiteSpecificPayloadParser
	walker     *extract.NestedStructureWalker
	textual    *extract.TextPatternExtractor
	pages      *extract.PageExtractor
	reconciler *BusinessReconciler
	log        *slog.Logger
}

func NewPipeline(log *slog.Logger) *Pipeline {
	return &Pipeline{
		structured: extract.NewStructuredBlockParser(log),
		vendor:     extract.NewSiteSpecificPayloadParser(log),
		walker:     extract.NewNestedStructureWalker(log),
		textual:    extract.NewTextPatternExtractor(log),
		pages:      extract.NewPageExtractor(),
		reconciler: NewBusinessReconciler(log),
		log:        log,
	}
}

// SetWalkerMinIndicators adjusts the nested walker's precision knob.
// Values below one keep the default.
func (p *Pipeline) SetWalkerMinIndicators(n int) {
	if n >= 1 {
		p.walker.MinIndicators = n
	}
}

// Extract processes one snapshot. Data-quality problems produce skips
// and an eventual raw fallback, never an error; the only error is the
// contract violation of a snapshot with nothing to parse.
func (p *Pipeline) Extract(snap *models.PageSnapshot) (*models.ExtractionResult, error) {
	if snap == nil {
		return nil, fmt.Errorf("extract: nil snapshot")
	}
	if snap.DOM == nil {
		if strings.TrimSpace(snap.HTML) == "" {
			return nil, fmt.Errorf("extract %s: snapshot has neither document nor html", snap.URL)
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
		if err != nil {
			return nil, fmt.Errorf("extract %s: parse html: %w", snap.URL, err)
		}
		snap.DOM = doc
	}

	page, err := p.pages.Extract(snap.URL, snap.DOM)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", snap.URL, err)
	}

	candidates := models.StrategyCandidates{
		StructuredBlock: p.structured.Parse(snap.DOM),
		SiteSpecific:    p.vendor.Parse(snap),
	}
	if len(candidates.StructuredBlock) == 0 && len(candidates.SiteSpecific) == 0 {
		candidates.NestedWalk = p.walker.Parse(snap)
	}
	if page.Kind == models.PageKindListing {
		candidates.TextPattern = p.textual.Parse(page)
	}

	all := make([]models.Business, 0,
		len(candidates.StructuredBlock)+len(candidates.SiteSpecific)+
			len(candidates.NestedWalk)+len(candidates.TextPattern))
	all = append(all, candidates.StructuredBlock...)
	all = append(all, candidates.SiteSpecific...)
	all = append(all, candidates.NestedWalk...)
	all = append(all, candidates.TextPattern...)

	businesses := p.reconciler.Reconcile(all)
	p.annotateFromPage(businesses, page)

	result := &models.ExtractionResult{
		Businesses:    businesses,
		RawCandidates: candidates,
	}
	if len(businesses) == 0 {
		// Raw fallback: the caller gets the page substrate to display
		// or hand to a secondary filter, never a silent empty success.
		result.RawPage = page
		result.Note = "no business records extracted; raw page data attached"
		p.log.Info("no records extracted, returning raw page data",
			"url", snap.URL, "page_kind", string(page.Kind), "word_count", page.WordCount)
	} else {
		p.log.Info("extraction complete",
			"url", snap.URL, "page_kind", string(page.Kind),
			"businesses", len(businesses),
			"structured", len(candidates.StructuredBlock),
			"site_specific", len(candidates.SiteSpecific),
			"nested_walk", len(candidates.NestedWalk),
			"text_pattern", len(candidates.TextPattern))
	}
	return result, nil
}

// ExtractPage exposes the rendered-page substrate on its own, for
// callers that want the raw structure without record extraction.
func (p *Pipeline) ExtractPage(snap *models.PageSnapshot) (*models.PageData, error) {
	if snap.DOM == nil {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
		if err != nil {
			return nil, fmt.Errorf("extract page %s: parse html: %w", snap.URL, err)
		}
		snap.DOM = doc
	}
	return p.pages.Extract(snap.URL, snap.DOM)
}

// amenityKeywords maps an amenity tag to the phrases that imply it in
// page text.
var amenityKeywords = map[string][]string{
	"wifi":            {"free wifi", "wi-fi", "wireless internet"},
	"parking":         {"parking", "valet"},
	"outdoor_seating": {"outdoor seating", "patio", "terrace"},
	"wheelchair":      {"wheelchair accessible", "accessible entrance"},
	"pet_friendly":    {"pet friendly", "dog friendly", "dogs allowed"},
	"live_music":      {"live music", "live band"},
	"tv":              {"big screen", "watch the game", "sports bar"},
	"private_dining":  {"private dining", "private room", "private events"},
}

// amenityOrder keeps the scan deterministic.
var amenityOrder = []string{
	"wifi", "parking", "outdoor_seating", "wheelchair",
	"pet_friendly", "live_music", "tv", "private_dining",
}

// annotateFromPage supplements reconciled records with page-level
// signals that only make sense on an individual page, where the single
// business can claim them: amenity keywords, menu links, and the
// scalar fact pools.
func (p *Pipeline) annotateFromPage(businesses []models.Business, page *models.PageData) {
	if page.Kind != models.PageKindIndividual || len(businesses) != 1 {
		return
	}
	b := &businesses[0]

	text := strings.ToLower(page.TextContent)
	for _, amenity := range amenityOrder {
		for _, phrase := range amenityKeywords[amenity] {
			if strings.Contains(text, phrase) {
				b.Amenities = append(b.Amenities, amenity)
				break
			}
		}
	}

	if b.MenuURL == "" {
		for _, link := range page.Links {
			lowerText := strings.ToLower(link.Text)
			lowerURL := strings.ToLower(link.URL)
			if strings.Contains(lowerText, "menu") || strings.Contains(lowerURL, "menu") {
				b.MenuURL = link.URL
				break
			}
		}
	}

	facts := p.textual.Facts(page)
	if b.Phone == "" && len(facts.Phones) > 0 {
		b.Phone = normalize.Phone(facts.Phones[0])
	}
	if b.Email == "" && len(facts.Emails) > 0 {
		b.Email = normalize.Email(facts.Emails[0])
	}
	if b.PriceRange == "" {
		if band := normalize.DollarBand(strings.Join(facts.Prices, " ")); band != "" {
			b.PriceRange = band
		}
	}
}
