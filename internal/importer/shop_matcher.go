package importer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"order-import-service/internal/models"
)

// MatchStrategy names the rule that assigned a shop to an order
type MatchStrategy string

const (
	MatchExactSlug         MatchStrategy = "exact_slug"
	MatchExactSchoolCode   MatchStrategy = "exact_school_code"
	MatchPartialSlug       MatchStrategy = "partial_slug"
	MatchPartialShopName   MatchStrategy = "partial_shop_name"
	MatchPartialSchoolName MatchStrategy = "partial_school_name"
	MatchKnownShop         MatchStrategy = "known_shop"
	MatchNone              MatchStrategy = ""
)

// minTagWordLength excludes short words such as "of" or "7b" from the word expansion
const minTagWordLength = 3

type shopCandidate struct {
	shop       *models.Shop
	slug       string
	slugParts  []string
	name       string
	schoolCode string
	schoolName string
}

type matchRule struct {
	strategy MatchStrategy
	matches  func(tag string, c *shopCandidate) bool
}

// matchRules run in priority order; a rule is tried against every tag before the next rule
var matchRules = []matchRule{
	{MatchExactSlug, func(tag string, c *shopCandidate) bool {
		return c.slug != "" && tag == c.slug
	}},
	{MatchExactSchoolCode, func(tag string, c *shopCandidate) bool {
		return c.schoolCode != "" && tag == c.schoolCode
	}},
	{MatchPartialSlug, func(tag string, c *shopCandidate) bool {
		if c.slug == "" {
			return false
		}
		if overlaps(tag, c.slug) {
			return true
		}
		for _, part := range c.slugParts {
			if part == tag {
				return true
			}
		}
		return false
	}},
	{MatchPartialShopName, func(tag string, c *shopCandidate) bool {
		return c.name != "" && overlaps(tag, c.name)
	}},
	{MatchPartialSchoolName, func(tag string, c *shopCandidate) bool {
		return c.schoolName != "" && overlaps(tag, c.schoolName)
	}},
}

func overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// ShopMatcher resolves product tags to a shop
type ShopMatcher struct {
	candidates []*shopCandidate
}

// NewShopMatcher indexes shops in the given order; earlier shops win ties
func NewShopMatcher(shops []*models.Shop) *ShopMatcher {
	m := &ShopMatcher{candidates: make([]*shopCandidate, 0, len(shops))}
	for _, shop := range shops {
		c := &shopCandidate{
			shop: shop,
			slug: Normalize(shop.Slug),
			name: Normalize(shop.Name),
		}
		for _, part := range strings.Split(c.slug, "-") {
			if part != "" {
				c.slugParts = append(c.slugParts, part)
			}
		}
		if shop.School != nil {
			c.schoolName = Normalize(shop.School.Name)
			if shop.School.ShortCode != nil {
				c.schoolCode = Normalize(*shop.School.ShortCode)
			}
		}
		m.candidates = append(m.candidates, c)
	}
	return m
}

// Resolve returns the first shop matched by the strategy cascade, or nil
func (m *ShopMatcher) Resolve(rawTags []string) (*models.Shop, MatchStrategy) {
	tags := ExpandTags(rawTags)
	if len(tags) == 0 {
		return nil, MatchNone
	}
	for _, rule := range matchRules {
		for _, tag := range tags {
			for _, c := range m.candidates {
				if rule.matches(tag, c) {
					return c.shop, rule.strategy
				}
			}
		}
	}
	return nil, MatchNone
}

// ExpandTags splits comma-separated tag texts into normalized tags. Each segment is kept
// whole and also broken into its whitespace-separated words longer than two characters.
// Hyphenated tokens stay whole and words without a letter are dropped. Duplicates are removed.
func ExpandTags(rawTags []string) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		if tag != "" && !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}

	for _, raw := range rawTags {
		for _, segment := range strings.Split(raw, ",") {
			segment = Normalize(segment)
			if segment == "" {
				continue
			}
			add(segment)
			for _, word := range strings.Fields(segment) {
				if utf8.RuneCountInString(word) >= minTagWordLength && strings.IndexFunc(word, unicode.IsLetter) >= 0 {
					add(word)
				}
			}
		}
	}
	return tags
}
