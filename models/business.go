package models

import "strings"

// Source identifies which extraction strategy produced a record.
// It is provenance metadata, never part of entity identity.
type Source string

const (
	SourceStructuredBlock Source = "structured_block"
	SourceSiteSpecific    Source = "site_specific"
	SourceNestedWalk      Source = "nested_walk"
	SourceTextPattern     Source = "text_pattern"
)

// AddressParts is the structured form of an address. It is only ever
// derived from the same source parse as the formatted Address string,
// never synthesized independently.
type AddressParts struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Empty reports whether no component is set.
func (a *AddressParts) Empty() bool {
	return a == nil || (a.Street == "" && a.City == "" && a.State == "" && a.PostalCode == "" && a.Country == "")
}

// Formatted joins the non-empty components with commas, the order
// sites render postal addresses in.
func (a *AddressParts) Formatted() string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.PostalCode, a.Country} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// OpeningHours is one day's open/close pair from a structured block.
type OpeningHours struct {
	Day    string `json:"day,omitempty"`
	Opens  string `json:"opens,omitempty"`
	Closes string `json:"closes,omitempty"`
}

// Business is the canonical record for one real-world establishment.
// Every field except Name is optional; absent values stay zero/nil so
// the reconciler can tell "missing" from "present". Unrecognized source
// fields are preserved in RawTags rather than dropped.
type Business struct {
	Name string `json:"name"`

	URL     string `json:"url,omitempty"`
	Website string `json:"website,omitempty"`
	MenuURL string `json:"menu_url,omitempty"`

	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`

	Address      string        `json:"address,omitempty"`
	AddressParts *AddressParts `json:"address_parts,omitempty"`
	Coordinates  *Coordinates  `json:"coordinates,omitempty"`
	Neighborhood string        `json:"neighborhood,omitempty"`

	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount *int     `json:"review_count,omitempty"`

	PriceRange  string `json:"price_range,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`

	Cuisine    []string       `json:"cuisine,omitempty"`
	Categories []string       `json:"categories,omitempty"`
	Hours      []OpeningHours `json:"hours,omitempty"`
	Amenities  []string       `json:"amenities,omitempty"`
	Photos     []string       `json:"photos,omitempty"`

	Source  Source         `json:"source,omitempty"`
	RawTags map[string]any `json:"raw_tags,omitempty"`
}

// HasIdentity reports whether the record carries the minimal identity
// key. Records without it are discarded by the reconciler.
func (b *Business) HasIdentity() bool {
	return strings.TrimSpace(b.Name) != ""
}

// IdentityKey is the normalized name used to group records that refer
// to the same entity: lowercased, whitespace-trimmed.
func (b *Business) IdentityKey() string {
	return strings.ToLower(strings.TrimSpace(b.Name))
}

// Clone returns a deep copy. Strategies hand out transient records and
// the reconciler must be able to merge without aliasing their slices.
func (b Business) Clone() Business {
	c := b
	if b.AddressParts != nil {
		parts := *b.AddressParts
		c.AddressParts = &parts
	}
	if b.Coordinates != nil {
		coords := *b.Coordinates
		c.Coordinates = &coords
	}
	if b.Rating != nil {
		r := *b.Rating
		c.Rating = &r
	}
	if b.ReviewCount != nil {
		n := *b.ReviewCount
		c.ReviewCount = &n
	}
	c.Cuisine = append([]string(nil), b.Cuisine...)
	c.Categories = append([]string(nil), b.Categories...)
	c.Hours = append([]OpeningHours(nil), b.Hours...)
	c.Amenities = append([]string(nil), b.Amenities...)
	c.Photos = append([]string(nil), b.Photos...)
	if b.RawTags != nil {
		c.RawTags = make(map[string]any, len(b.RawTags))
		for k, v := range b.RawTags {
			c.RawTags[k] = v
		}
	}
	return c
}

// SetRawTag lazily allocates the RawTags map and stores a pass-through
// field that no canonical Business field recognizes.
func (b *Business) SetRawTag(key string, value any) {
	if b.RawTags == nil {
		b.RawTags = make(map[string]any)
	}
	b.RawTags[key] = value
}
