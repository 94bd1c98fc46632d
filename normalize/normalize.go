// Package normalize standardizes scalar values recovered from
// uncontrolled sources: ratings, review counts, phone numbers, price
// bands, emails. Parsing failures yield "absent", never a zero default.
package normalize

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonDigitRegex   = regexp.MustCompile(`[^\d+]`)
	numberRegex     = regexp.MustCompile(`\d+\.?\d*`)
	slugStripRegex  = regexp.MustCompile(`[^\w\s-]`)
	slugDashRegex   = regexp.MustCompile(`[-\s]+`)
	emailRegex      = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	dollarRunRegex  = regexp.MustCompile(`\${1,4}`)
	reviewWordRegex = regexp.MustCompile(`(?i)^(\d+(?:[.,]\d+)?)\s*(k)?$`)
)

// ParseRating converts a rating value (string or JSON number) into a
// float within [0,5]. Out-of-range values are rejected outright, not
// clamped: a source claiming 9.3 stars is an extraction error, and a
// clamped 5.0 would look like real data downstream.
func ParseRating(v any) (float64, bool) {
	f, ok := ParseFloat(v)
	if !ok {
		return 0, false
	}
	if f < 0 || f > 5 {
		return 0, false
	}
	return f, true
}

// ParseReviewCount converts a review-count value into a non-negative
// integer. String forms tolerate thousands separators and the "4.9k"
// shorthand listing sites use.
func ParseReviewCount(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		if val < 0 {
			return 0, false
		}
		return int(val), true
	case int:
		if val < 0 {
			return 0, false
		}
		return val, true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
		m := reviewWordRegex.FindStringSubmatch(s)
		if m == nil {
			return 0, false
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil || n < 0 {
			return 0, false
		}
		if m[2] != "" {
			n *= 1000
		}
		return int(n), true
	}
	return 0, false
}

// ParseFloat accepts the value shapes JSON decoding produces (float64,
// string, int) and pulls the first number out of noisy strings like
// "4.5 stars".
func ParseFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(val, ",", "."))
		if s == "" {
			return 0, false
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
		if m := numberRegex.FindString(s); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// String renders a JSON value as a trimmed string, or "" for anything
// that is not a scalar.
func String(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

// StringList normalizes a string-or-list field (servesCuisine and
// friends) into a list, dropping non-string members.
func StringList(v any) []string {
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				continue
			}
			if s := strings.TrimSpace(str); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// Phone formats US numbers as (xxx) xxx-xxxx and leaves everything
// else trimmed. tel: prefixes from anchor hrefs are stripped first.
func Phone(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "tel:") {
		raw = strings.TrimSpace(raw[4:])
	}
	digits := nonDigitRegex.ReplaceAllString(raw, "")
	if strings.HasPrefix(digits, "+1") {
		digits = digits[2:]
	} else if strings.HasPrefix(digits, "1") && len(digits) == 11 {
		digits = digits[1:]
	}
	if len(digits) == 10 {
		return "(" + digits[0:3] + ") " + digits[3:6] + "-" + digits[6:10]
	}
	return raw
}

// PriceRange normalizes a price indicator to a $-band where possible.
// Textual bands ("moderate", "upscale") map onto the four-step scale;
// unrecognized text passes through trimmed.
func PriceRange(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if n := strings.Count(raw, "$"); n >= 1 && n <= 4 {
		return strings.Repeat("$", n)
	}
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "very expensive") || strings.Contains(lower, "fine dining"):
		return "$$$$"
	case strings.Contains(lower, "expensive") || strings.Contains(lower, "upscale"):
		return "$$$"
	case strings.Contains(lower, "moderate") || strings.Contains(lower, "mid-range"):
		return "$$"
	case strings.Contains(lower, "inexpensive") || strings.Contains(lower, "budget"):
		return "$"
	}
	return raw
}

// Email extracts and cleans one email address out of a raw string:
// mailto: anchors, percent-encoding, stray punctuation. Returns "" if
// nothing email-shaped survives.
func Email(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(strings.ToLower(clean), "mailto:")
	if idx := strings.Index(clean, "?"); idx != -1 {
		clean = clean[:idx]
	}
	if decoded, err := url.QueryUnescape(clean); err == nil {
		clean = decoded
	}
	clean = strings.Trim(clean, "<>()[]{}.,;:\"'`")
	return emailRegex.FindString(clean)
}

// WebsiteURL unwraps Google redirect links and trims. Scraped "website"
// anchors frequently point at google.com/url?q=<real target>.
func WebsiteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "https://www.google.com/url?") {
		if parsed, err := url.Parse(raw); err == nil {
			if target := parsed.Query().Get("q"); target != "" {
				raw = target
			}
		}
	}
	return raw
}

// Slugify converts a title to a URL-friendly slug.
func Slugify(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = slugStripRegex.ReplaceAllString(text, "")
	text = slugDashRegex.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}

// DollarBand pulls the first 1-4 dollar-sign run out of free text.
func DollarBand(text string) string {
	return dollarRunRegex.FindString(text)
}

var neighborhoodNoise = []string{"waitlist", "make", "halal", "locally", "fine", "outdoor", "delivery", "takeout"}

// Neighborhood cleans a location fragment captured next to a rating
// pattern: listing pages run the neighborhood straight into action
// words ("Memorial Waitlist opens at 5"), so everything from the first
// known noise word on is cut.
func Neighborhood(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	words := strings.Fields(raw)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if containsFold(neighborhoodNoise, w) {
			break
		}
		kept = append(kept, w)
	}
	out := strings.Join(kept, " ")
	if len(out) <= 1 {
		return ""
	}
	return out
}

var noiseNameTerms = []string{"sponsored", "result", "near me", "more", "all"}

// IsNoiseName reports whether a candidate name is listing chrome
// rather than a business: too short, or one of the known noise terms.
func IsNoiseName(name string) bool {
	name = strings.TrimSpace(name)
	if len(name) <= 2 {
		return true
	}
	lower := strings.ToLower(name)
	for _, term := range noiseNameTerms {
		if lower == term || (len(term) > 3 && strings.Contains(lower, term)) {
			return true
		}
	}
	return false
}

var ordinalRegex = regexp.MustCompile(`^\d+\.\s*`)

// StripOrdinal removes leading list numbering ("1.Taste of Texas").
func StripOrdinal(name string) string {
	return strings.TrimSpace(ordinalRegex.ReplaceAllString(strings.TrimSpace(name), ""))
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
