package services

import (
	"log/slog"
	"sort"

	"github.com/omerfdk/restaurant-scraper/models"
)

// List-field caps keep union merges from growing without bound when
// noisy sources repeat themselves.
const (
	maxMergedCategories = 5
	maxMergedCuisine    = 5
	maxMergedAmenities  = 10
	maxMergedPhotos     = 5
	maxMergedHours      = 7
)

// BusinessReconciler merges the partial records every strategy
// produced into one record per real-world entity. Identity is the
// normalized name; field conflicts resolve to the first non-empty
// value in strategy-trust order, and list fields union under a cap.
type BusinessReconciler struct {
	log *slog.Logger
}

func NewBusinessReconciler(log *slog.Logger) *BusinessReconciler {
	return &BusinessReconciler{log: log}
}

// sourceTrust orders strategies by how much we trust their field
// values. Within one trust level, page order decides.
var sourceTrust = map[models.Source]int{
	models.SourceStructuredBlock: 0,
	models.SourceSiteSpecific:    1,
	models.SourceNestedWalk:      2,
	models.SourceTextPattern:     3,
}

// Reconcile deduplicates the candidate records by normalized name.
// Nameless records are dropped, never merged; they carry no identity.
// Output order follows first appearance of each entity.
func (r *BusinessReconciler) Reconcile(candidates []models.Business) []models.Business {
	ordered := make([]models.Business, 0, len(candidates))
	for _, c := range candidates {
		if !c.HasIdentity() {
			r.log.Debug("dropping nameless candidate", "source", string(c.Source))
			continue
		}
		ordered = append(ordered, c)
	}
	// Stable sort by trust so a lower-trust record never contributes a
	// field a higher-trust record also carries, regardless of the
	// order strategies ran in.
	sort.SliceStable(ordered, func(i, j int) bool {
		return sourceTrust[ordered[i].Source] < sourceTrust[ordered[j].Source]
	})

	merged := make(map[string]*models.Business)
	var keys []string
	for _, c := range ordered {
		key := c.IdentityKey()
		existing, ok := merged[key]
		if !ok {
			clone := c.Clone()
			merged[key] = &clone
			keys = append(keys, key)
			continue
		}
		mergeInto(existing, &c)
	}

	out := make([]models.Business, 0, len(keys))
	for _, key := range keys {
		out = append(out, *merged[key])
	}
	return out
}

// Enrich merges a record obtained from an entity's own page into the
// listing-page original, keyed by normalized name. The enrichment is
// folded in, never appended alongside; entities only present in the
// enrichment batch are ignored because they did not come from the
// scope being enriched.
func (r *BusinessReconciler) Enrich(originals []models.Business, enrichments []models.Business) []models.Business {
	byKey := make(map[string][]models.Business, len(enrichments))
	for _, e := range enrichments {
		if !e.HasIdentity() {
			continue
		}
		key := e.IdentityKey()
		byKey[key] = append(byKey[key], e)
	}
	out := make([]models.Business, 0, len(originals))
	for _, orig := range originals {
		merged := orig.Clone()
		for _, e := range byKey[orig.IdentityKey()] {
			mergeInto(&merged, &e)
		}
		out = append(out, merged)
	}
	return out
}

// mergeInto folds src into dst field by field. A non-empty dst value
// is never replaced; empty never beats present in either direction.
func mergeInto(dst, src *models.Business) {
	mergeString(&dst.URL, src.URL)
	mergeString(&dst.Website, src.Website)
	mergeString(&dst.MenuURL, src.MenuURL)
	mergeString(&dst.Phone, src.Phone)
	mergeString(&dst.Email, src.Email)
	mergeString(&dst.Neighborhood, src.Neighborhood)
	mergeString(&dst.PriceRange, src.PriceRange)
	mergeString(&dst.Description, src.Description)
	mergeString(&dst.ImageURL, src.ImageURL)

	// Address and its parts travel together: taking one record's parts
	// with another's formatted string would break their consistency.
	if dst.Address == "" && dst.AddressParts == nil && (src.Address != "" || src.AddressParts != nil) {
		dst.Address = src.Address
		if src.AddressParts != nil {
			parts := *src.AddressParts
			dst.AddressParts = &parts
		}
	}

	if dst.Coordinates == nil && src.Coordinates != nil {
		coords := *src.Coordinates
		dst.Coordinates = &coords
	}
	if dst.Rating == nil && src.Rating != nil {
		v := *src.Rating
		dst.Rating = &v
	}
	if dst.ReviewCount == nil && src.ReviewCount != nil {
		v := *src.ReviewCount
		dst.ReviewCount = &v
	}

	dst.Cuisine = unionStrings(dst.Cuisine, src.Cuisine, maxMergedCuisine)
	dst.Categories = unionStrings(dst.Categories, src.Categories, maxMergedCategories)
	dst.Amenities = unionStrings(dst.Amenities, src.Amenities, maxMergedAmenities)
	dst.Photos = unionStrings(dst.Photos, src.Photos, maxMergedPhotos)

	if len(dst.Hours) == 0 && len(src.Hours) > 0 {
		dst.Hours = append([]models.OpeningHours(nil), src.Hours...)
		if len(dst.Hours) > maxMergedHours {
			dst.Hours = dst.Hours[:maxMergedHours]
		}
	}

	for key, value := range src.RawTags {
		if _, exists := dst.RawTags[key]; !exists {
			dst.SetRawTag(key, value)
		}
	}
}

func mergeString(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}

func unionStrings(dst, src []string, limit int) []string {
	if len(src) == 0 {
		if len(dst) > limit {
			return dst[:limit]
		}
		return dst
	}
	seen := make(map[string]bool, len(dst)+len(src))
	out := make([]string, 0, len(dst)+len(src))
	for _, lists := range [][]string{dst, src} {
		for _, v := range lists {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}
