package domain

import "fmt"

// CategoryAll disables category filtering.
const CategoryAll = "all"

const (
	NoProductsMessage = "No Products Found"
	NoProductsHint    = "Try adjusting your filters to find what you're looking for."
)

// A SortKey selects the order of a product listing.
type SortKey int

const (
	SortFeatured SortKey = iota
	SortPriceAsc
	SortPriceDesc
	SortRatingDesc
)

var sortKeyNames = [...]string{
	SortFeatured:   "featured",
	SortPriceAsc:   "price-asc",
	SortPriceDesc:  "price-desc",
	SortRatingDesc: "rating-desc",
}

func SortKeys() []SortKey {
	return []SortKey{SortFeatured, SortPriceAsc, SortPriceDesc, SortRatingDesc}
}

func (k SortKey) String() string {
	if k < 0 || int(k) >= len(sortKeyNames) {
		return fmt.Sprintf("SortKey(%d)", int(k))
	}
	return sortKeyNames[k]
}

// ParseSortKey returns the key for its wire name.
//
// Empty name is [SortFeatured].
func ParseSortKey(name string) (SortKey, error) {
	if name == "" {
		return SortFeatured, nil
	}
	for k, n := range sortKeyNames {
		if n == name {
			return SortKey(k), nil
		}
	}
	return SortFeatured, fmt.Errorf("%w: %q", ErrUnknownSortKey, name)
}

type ListQuery struct {
	Category string
	Sort     SortKey
}

// A Listing is a filtered and sorted product view.
type Listing struct {
	Products []Product
	Category string
	Sort     SortKey
}

func (l Listing) Total() int {
	return len(l.Products)
}

func (l Listing) Empty() bool {
	return len(l.Products) == 0
}
