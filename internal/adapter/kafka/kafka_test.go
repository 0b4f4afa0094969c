package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamba/avro/v2"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type avroSerde struct {
	s avro.Schema
}

func (a avroSerde) Encode(v any) ([]byte, error) {
	return avro.Marshal(a.s, v)
}

func (a avroSerde) Decode(b []byte, v any) error {
	return avro.Unmarshal(a.s, b, v)
}

type MockProducerClient struct {
	mock.Mock
}

func (c *MockProducerClient) ProduceSync(
	ctx context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	args := c.Called(ctx, rs)
	return args.Get(0).(kgo.ProduceResults)
}

func (c *MockProducerClient) Close() {
	c.Called()
}

func testProduct() domain.Product {
	ts := time.Date(2024, 5, 10, 8, 30, 0, 0, time.UTC)
	return domain.Product{
		ID:          "1",
		Name:        "Classic Biker Jacket",
		Description: "A timeless biker jacket",
		Price:       4999,
		Stock:       15,
		Category:    "Apparel",
		Rating:      4.8,
		Featured:    true,
		Images:      []string{"https://placehold.co/600x600.png"},
		Reviews: []domain.Review{{
			ID:      "rev1",
			Author:  "Priya S.",
			Rating:  5,
			Comment: "Absolutely love this jacket!",
			Date:    "2024-05-10",
		}},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestSchemaMappers(t *testing.T) {
	v := testProduct()
	s := productToSchemaV1(v)

	assert.Equal(t, int64(15), s.Stock)
	require.Len(t, s.Reviews, 1)
	assert.Equal(t, "Priya S.", s.Reviews[0].Author)
	assert.Equal(t, v, schemaV1ToProduct(s))

	t.Run("EventWithProduct", func(t *testing.T) {
		evt := domain.ProductEvent{
			Op: domain.ProductUpserted, ProductID: v.ID, Product: &v,
		}
		s := productEventToSchemaV1(evt)
		assert.Equal(t, "upsert", s.Op)
		require.NotNil(t, s.Product)
		assert.Equal(t, v.Name, s.Product.Name)
	})

	t.Run("DeleteEvent", func(t *testing.T) {
		evt := domain.ProductEvent{Op: domain.ProductDeleted, ProductID: "1"}
		s := productEventToSchemaV1(evt)
		assert.Equal(t, "delete", s.Op)
		assert.Nil(t, s.Product)
	})
}

func TestProductCodec(t *testing.T) {
	c := newProductCodec(avroSerde{schema.ProductV1Avro()})
	s := productToSchemaV1(testProduct())

	b, err := c.Encode(s)
	require.NoError(t, err)

	got, err := c.Decode(b)
	require.NoError(t, err)
	gotS, ok := got.(schema.ProductV1)
	require.True(t, ok)
	assert.Equal(t, testProduct(), utcProduct(schemaV1ToProduct(gotS)))

	_, err = c.Encode("not a product")
	assert.ErrorIs(t, err, ErrInvalidValueType)

	_, err = c.Decode([]byte{0xff})
	assert.Error(t, err)
}

func TestProductEventCodec(t *testing.T) {
	c := newProductEventCodec(avroSerde{schema.ProductEventV1Avro()})
	evt := schema.ProductEventV1{Op: "delete", ProductID: "7"}

	b, err := c.Encode(evt)
	require.NoError(t, err)

	got, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, evt, got)

	_, err = c.Encode(schema.ProductV1{})
	assert.ErrorIs(t, err, ErrInvalidValueType)
}

func TestApply(t *testing.T) {
	p := productToSchemaV1(testProduct())
	tests := []struct {
		name  string
		event schema.ProductEventV1
		want  tableAction
	}{
		{"Upsert", schema.ProductEventV1{Op: "upsert", ProductID: "1", Product: &p}, tableSet},
		{"UpsertWithoutProduct", schema.ProductEventV1{Op: "upsert", ProductID: "1"}, tableSkip},
		{"Delete", schema.ProductEventV1{Op: "delete", ProductID: "1"}, tableDelete},
		{"Unknown", schema.ProductEventV1{Op: "archive", ProductID: "1"}, tableSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apply(tt.event))
		})
	}
}

func TestTableToProducts(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	vs := []schema.ProductV1{
		{ID: "3", CreatedAt: base.Add(time.Hour)},
		{ID: "2", CreatedAt: base},
		{ID: "1", CreatedAt: base},
	}

	got := tableToProducts(vs)
	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	assert.Empty(t, tableToProducts(nil))
	assert.NotNil(t, tableToProducts(nil))
}

func TestProductsProducer(t *testing.T) {
	newP := func(cl ProducerClient) ProductsProducer {
		return ProductsProducer{
			producer: producer{opPrefix: "ProductsProducer", cl: cl},
			encoder:  avroSerde{schema.ProductV1Avro()},
			opPrefix: "ProductsProducer",
		}
	}

	t.Run("KeyedByID", func(t *testing.T) {
		cl := new(MockProducerClient)
		cl.On("ProduceSync", mock.Anything, mock.MatchedBy(
			func(rs []*kgo.Record) bool {
				return len(rs) == 1 && string(rs[0].Key) == "1"
			},
		)).Return(kgo.ProduceResults{{}})

		err := newP(cl).ProduceProducts(t.Context(), []domain.Product{testProduct()})
		require.NoError(t, err)
		cl.AssertExpectations(t)
	})

	t.Run("ProduceFailed", func(t *testing.T) {
		brokerErr := errors.New("broker down")
		cl := new(MockProducerClient)
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(kgo.ProduceResults{{Err: brokerErr}})

		err := newP(cl).ProduceProducts(t.Context(), []domain.Product{testProduct()})
		assert.ErrorIs(t, err, brokerErr)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		cl := new(MockProducerClient)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err := newP(cl).ProduceProducts(ctx, []domain.Product{testProduct()})
		assert.ErrorIs(t, err, context.Canceled)
		cl.AssertNotCalled(t, "ProduceSync")
	})
}

func TestCatalogEventsProducer(t *testing.T) {
	cl := new(MockProducerClient)
	cl.On("ProduceSync", mock.Anything, mock.MatchedBy(
		func(rs []*kgo.Record) bool {
			return len(rs) == 2 &&
				string(rs[0].Key) == "1" && string(rs[1].Key) == "9"
		},
	)).Return(kgo.ProduceResults{{}, {}})
	cl.On("Close").Return()

	p := CatalogEventsProducer{
		producer: producer{opPrefix: "CatalogEventsProducer", cl: cl},
		encoder:  avroSerde{schema.ProductEventV1Avro()},
		opPrefix: "CatalogEventsProducer",
	}

	v := testProduct()
	err := p.ProduceEvents(
		t.Context(),
		domain.ProductEvent{Op: domain.ProductUpserted, ProductID: v.ID, Product: &v},
		domain.ProductEvent{Op: domain.ProductDeleted, ProductID: "9"},
	)
	require.NoError(t, err)

	p.Close()
	cl.AssertExpectations(t)
}

func utcProduct(p domain.Product) domain.Product {
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p
}

func TestNewProductsProducerMissingClient(t *testing.T) {
	_, err := NewProductsProducer(
		ProducerEncoderOpt(avroSerde{schema.ProductV1Avro()}),
	)
	assert.ErrorIs(t, err, ErrTooFewOpts)
}
