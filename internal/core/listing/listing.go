// Package listing derives ordered product views for the storefront grid.
//
// All functions are pure: inputs are never mutated and results never
// alias the input backing array.
package listing

import (
	"cmp"
	"slices"

	"github.com/niksmo/storefront/internal/core/domain"
)

type comparator func(a, b domain.Product) int

var comparators = map[domain.SortKey]comparator{
	domain.SortFeatured:   featuredFirst,
	domain.SortPriceAsc:   priceAsc,
	domain.SortPriceDesc:  priceDesc,
	domain.SortRatingDesc: ratingDesc,
}

// featuredFirst is a partition, not a total order.
func featuredFirst(a, b domain.Product) int {
	switch {
	case a.Featured == b.Featured:
		return 0
	case a.Featured:
		return -1
	default:
		return 1
	}
}

func priceAsc(a, b domain.Product) int {
	return cmp.Compare(a.Price, b.Price)
}

func priceDesc(a, b domain.Product) int {
	return cmp.Compare(b.Price, a.Price)
}

func ratingDesc(a, b domain.Product) int {
	return cmp.Compare(b.Rating, a.Rating)
}

// Filter returns products of the category in input order.
//
// [domain.CategoryAll] keeps every product.
func Filter(ps []domain.Product, category string) []domain.Product {
	if category == domain.CategoryAll {
		return slices.Clone(ps)
	}
	filtered := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Sort returns a stably sorted copy of products.
//
// Equal elements under the key keep their input order.
func Sort(ps []domain.Product, key domain.SortKey) []domain.Product {
	sorted := slices.Clone(ps)
	cmpFn, ok := comparators[key]
	if !ok {
		cmpFn = featuredFirst
	}
	slices.SortStableFunc(sorted, cmpFn)
	return sorted
}

// Apply filters then sorts.
func Apply(ps []domain.Product, q domain.ListQuery) domain.Listing {
	category := q.Category
	if category == "" {
		category = domain.CategoryAll
	}
	visible := Sort(Filter(ps, category), q.Sort)
	if visible == nil {
		visible = []domain.Product{}
	}
	return domain.Listing{
		Products: visible,
		Category: category,
		Sort:     q.Sort,
	}
}

// Categories returns distinct category labels in ascending order.
func Categories(ps []domain.Product) []string {
	seen := make(map[string]struct{}, len(ps))
	categories := make([]string, 0)
	for _, p := range ps {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	slices.Sort(categories)
	return categories
}
