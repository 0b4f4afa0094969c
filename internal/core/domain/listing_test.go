package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortKey(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		for _, k := range SortKeys() {
			got, err := ParseSortKey(k.String())
			require.NoError(t, err)
			assert.Equal(t, k, got)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		got, err := ParseSortKey("")
		require.NoError(t, err)
		assert.Equal(t, SortFeatured, got)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := ParseSortKey("newest")
		assert.ErrorIs(t, err, ErrUnknownSortKey)
	})
}

func TestProductStatus(t *testing.T) {
	assert.Equal(t, StatusInStock, Product{Stock: 3}.Status())
	assert.Equal(t, StatusOutOfStock, Product{}.Status())
}
