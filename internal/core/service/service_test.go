package service

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	products *MockProductsStorage
	users    *MockUsersStorage
	producer *MockProductsProducer
	events   *MockEventsProducer
	exporter *MockExporter
	service  Service
}

func newFixture() fixture {
	f := fixture{
		products: new(MockProductsStorage),
		users:    new(MockUsersStorage),
		producer: new(MockProductsProducer),
		events:   new(MockEventsProducer),
		exporter: new(MockExporter),
	}
	f.service = New(Deps{
		ProductsStorage:  f.products,
		UsersStorage:     f.users,
		ProductsProducer: f.producer,
		EventsProducer:   f.events,
		Exporter:         f.exporter,
		AdminEmail:       "admin@shopsphere.com",
	})
	f.service.newID = func() string { return "new-id" }
	f.service.now = func() time.Time { return fixedNow }
	return f
}

func validInput() domain.ProductInput {
	return domain.ProductInput{
		Name:        "Classic White Sneakers",
		Description: "Leather sneakers",
		Price:       5999,
		Stock:       75,
		Category:    "Sneakers",
		Featured:    true,
		Images:      []string{"https://example.com/1.png", " "},
	}
}

func storedProducts() []domain.Product {
	return []domain.Product{
		{ID: "1", Category: "Apparel", Price: 4999, Featured: true},
		{ID: "2", Category: "Books", Price: 499},
		{ID: "3", Category: "Apparel", Price: 999, Featured: true},
	}
}

func TestListProducts(t *testing.T) {
	t.Run("Derives", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()
		f.products.On("ReadProducts", ctx).Return(storedProducts(), nil)

		l, err := f.service.ListProducts(ctx, domain.ListQuery{
			Category: "Apparel", Sort: domain.SortPriceAsc,
		})
		require.NoError(t, err)
		require.Len(t, l.Products, 2)
		assert.Equal(t, "3", l.Products[0].ID)
		assert.Equal(t, "1", l.Products[1].ID)
	})

	t.Run("ReaderFails", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()
		readErr := errors.New("unavailable")
		f.products.On("ReadProducts", ctx).Return(nil, readErr)

		_, err := f.service.ListProducts(ctx, domain.ListQuery{})
		assert.ErrorIs(t, err, readErr)
	})

	t.Run("UsesReader", func(t *testing.T) {
		f := newFixture()
		reader := new(MockProductsStorage)
		f.service.reader = reader
		ctx := t.Context()
		reader.On("ReadProducts", ctx).Return(storedProducts(), nil)

		l, err := f.service.ListProducts(ctx, domain.ListQuery{})
		require.NoError(t, err)
		assert.Equal(t, 3, l.Total())
		f.products.AssertNotCalled(t, "ReadProducts", mock.Anything)
	})
}

func TestShelves(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	f.products.On("ReadProducts", ctx).Return(storedProducts(), nil)

	featured, err := f.service.FeaturedProducts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "1", featured[0].ID)

	apparel, err := f.service.ProductsByCategory(ctx, "Apparel", 0)
	require.NoError(t, err)
	assert.Len(t, apparel, 2)

	categories, err := f.service.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apparel", "Books"}, categories)
}

func TestCreateProduct(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()

		f.products.On("StoreProducts", ctx, mock.MatchedBy(
			func(ps []domain.Product) bool {
				return len(ps) == 1 && ps[0].ID == "new-id"
			},
		)).Return(nil)
		f.events.On("ProduceEvents", ctx, mock.MatchedBy(
			func(evts []domain.ProductEvent) bool {
				return len(evts) == 1 &&
					evts[0].Op == domain.ProductUpserted &&
					evts[0].ProductID == "new-id"
			},
		)).Return(nil)

		p, err := f.service.CreateProduct(ctx, validInput())
		require.NoError(t, err)
		assert.Equal(t, "new-id", p.ID)
		assert.Equal(t, []string{"https://example.com/1.png"}, p.Images)
		assert.Zero(t, p.Rating)
		assert.NotNil(t, p.Reviews)
		assert.Empty(t, p.Reviews)
		assert.Equal(t, fixedNow, p.CreatedAt)
		f.products.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("Invalid", func(t *testing.T) {
		f := newFixture()
		in := validInput()
		in.Name = ""
		in.Price = -1
		in.Images = []string{"not a url"}

		_, err := f.service.CreateProduct(t.Context(), in)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidProduct)
		assert.Contains(t, err.Error(), "Name")
		assert.Contains(t, err.Error(), "Price")
		f.products.AssertNotCalled(t, "StoreProducts", mock.Anything, mock.Anything)
	})

	t.Run("TooManyImages", func(t *testing.T) {
		f := newFixture()
		in := validInput()
		in.Images = []string{
			"https://a.io/1", "https://a.io/2", "https://a.io/3",
			"https://a.io/4", "https://a.io/5",
		}
		_, err := f.service.CreateProduct(t.Context(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidProduct)
	})

	t.Run("PublishFailureIsNotFatal", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()
		f.products.On("StoreProducts", ctx, mock.Anything).Return(nil)
		f.events.On("ProduceEvents", ctx, mock.Anything).
			Return(errors.New("broker down"))

		_, err := f.service.CreateProduct(ctx, validInput())
		assert.NoError(t, err)
	})
}

func TestUpdateProduct(t *testing.T) {
	t.Run("KeepsRatingAndReviews", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()
		created := fixedNow.Add(-time.Hour)
		existing := domain.Product{
			ID:        "1",
			Rating:    4.8,
			Reviews:   []domain.Review{{ID: "rev1", Author: "Priya S."}},
			CreatedAt: created,
		}
		f.products.On("ReadProduct", ctx, "1").Return(existing, nil)
		f.products.On("StoreProducts", ctx, mock.Anything).Return(nil)
		f.events.On("ProduceEvents", ctx, mock.Anything).Return(nil)

		p, err := f.service.UpdateProduct(ctx, "1", validInput())
		require.NoError(t, err)
		assert.Equal(t, 4.8, p.Rating)
		assert.Len(t, p.Reviews, 1)
		assert.Equal(t, created, p.CreatedAt)
		assert.Equal(t, fixedNow, p.UpdatedAt)
		assert.Equal(t, "Classic White Sneakers", p.Name)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()
		f.products.On("ReadProduct", ctx, "404").
			Return(domain.Product{}, domain.ErrNotFound)

		_, err := f.service.UpdateProduct(ctx, "404", validInput())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDeleteProduct(t *testing.T) {
	t.Run("PublishesDelete", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()
		f.products.On("DeleteProduct", ctx, "1").Return(nil)
		f.events.On("ProduceEvents", ctx, []domain.ProductEvent{
			{Op: domain.ProductDeleted, ProductID: "1"},
		}).Return(nil)

		require.NoError(t, f.service.DeleteProduct(ctx, "1"))
		f.events.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()
		f.products.On("DeleteProduct", ctx, "1").Return(domain.ErrNotFound)

		err := f.service.DeleteProduct(ctx, "1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		f.events.AssertNotCalled(t, "ProduceEvents", mock.Anything, mock.Anything)
	})
}

func TestSendProducts(t *testing.T) {
	t.Run("SkipsWithoutID", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()
		f.producer.On("ProduceProducts", ctx, []domain.Product{
			{ID: "1", Name: "Classic Biker Jacket"},
		}).Return(nil)

		n, err := f.service.SendProducts(ctx, []domain.Product{
			{ID: "1", Name: "Classic Biker Jacket"},
			{Name: "No ID"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		f.producer.AssertExpectations(t)
	})

	t.Run("Empty", func(t *testing.T) {
		f := newFixture()
		_, err := f.service.SendProducts(t.Context(), nil)
		assert.ErrorIs(t, err, domain.ErrEmptySeed)
	})

	t.Run("SkipsInvalid", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()
		valid := domain.Product{ID: "1", Price: 4999, Stock: 15, Rating: 4.8}
		f.producer.On("ProduceProducts", ctx, []domain.Product{valid}).
			Return(nil)

		n, err := f.service.SendProducts(ctx, []domain.Product{
			{ID: "x", Price: -10, Stock: -3, Rating: 9},
			valid,
			{ID: "y", Stock: -1},
			{ID: "z", Rating: 5.1},
			{ID: "w", Reviews: []domain.Review{{ID: "r1", Rating: 6}}},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		f.producer.AssertExpectations(t)
	})

	t.Run("AllSkipped", func(t *testing.T) {
		f := newFixture()
		n, err := f.service.SendProducts(t.Context(), []domain.Product{
			{}, {ID: "x", Price: -10},
		})
		require.NoError(t, err)
		assert.Zero(t, n)
		f.producer.AssertNotCalled(t, "ProduceProducts", mock.Anything, mock.Anything)
	})
}

func TestSaveProducts(t *testing.T) {
	t.Run("StampsTimes", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()
		created := fixedNow.Add(-24 * time.Hour)

		f.products.On("StoreProducts", ctx, mock.MatchedBy(
			func(ps []domain.Product) bool {
				return len(ps) == 2 &&
					ps[0].CreatedAt.Equal(fixedNow) &&
					ps[1].CreatedAt.Equal(created) &&
					ps[1].UpdatedAt.Equal(fixedNow)
			},
		)).Return(nil)
		f.events.On("ProduceEvents", ctx, mock.MatchedBy(
			func(evts []domain.ProductEvent) bool { return len(evts) == 2 },
		)).Return(nil)

		err := f.service.SaveProducts(ctx, []domain.Product{
			{ID: "1"}, {ID: "2", CreatedAt: created},
		})
		require.NoError(t, err)
		f.products.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("InvalidNotStored", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()

		f.products.On("StoreProducts", ctx, mock.MatchedBy(
			func(ps []domain.Product) bool {
				return len(ps) == 1 && ps[0].ID == "1"
			},
		)).Return(nil)
		f.events.On("ProduceEvents", ctx, mock.MatchedBy(
			func(evts []domain.ProductEvent) bool {
				return len(evts) == 1 && evts[0].ProductID == "1"
			},
		)).Return(nil)

		err := f.service.SaveProducts(ctx, []domain.Product{
			{ID: "x", Price: -10, Stock: -3, Rating: 9},
			{ID: "1", Price: 10, Rating: 4},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidProduct)
		assert.Contains(t, err.Error(), `product "x"`)
		f.products.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})

	t.Run("AllInvalid", func(t *testing.T) {
		f := newFixture()

		err := f.service.SaveProducts(t.Context(), []domain.Product{
			{ID: "x", Rating: 9},
		})
		assert.ErrorIs(t, err, domain.ErrInvalidProduct)
		f.products.AssertNotCalled(t, "StoreProducts", mock.Anything, mock.Anything)
		f.events.AssertNotCalled(t, "ProduceEvents", mock.Anything, mock.Anything)
	})

	t.Run("StorageFailed", func(t *testing.T) {
		f := newFixture()
		ctx := t.Context()
		storageErr := errors.New("connection reset")
		f.products.On("StoreProducts", ctx, mock.Anything).Return(storageErr)

		err := f.service.SaveProducts(ctx, []domain.Product{{ID: "1"}})
		assert.ErrorIs(t, err, storageErr)
		assert.NotErrorIs(t, err, domain.ErrInvalidProduct)
		f.events.AssertNotCalled(t, "ProduceEvents", mock.Anything, mock.Anything)
	})
}

func TestExportProducts(t *testing.T) {
	f := newFixture()
	ctx := t.Context()
	var buf bytes.Buffer
	f.products.On("ReadProducts", ctx).Return(storedProducts(), nil)
	f.exporter.On("Export", &buf, storedProducts()).Return(nil)

	require.NoError(t, f.service.ExportProducts(ctx, &buf))
	f.exporter.AssertExpectations(t)
}
