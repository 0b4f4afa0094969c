package kafka

import (
	"context"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ProductsProducer = (*ProductsProducer)(nil)
var _ port.ProductEventsProducer = (*CatalogEventsProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func newProducer(
	op, opPrefix string, opts ...ProducerOpt,
) (producer, Encoder, error) {
	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			if options.cl != nil {
				options.cl.Close()
			}
			return producer{}, nil, opErr(err, op)
		}
	}

	if options.cl == nil || options.encoder == nil {
		if options.cl != nil {
			options.cl.Close()
		}
		return producer{}, nil, opErr(ErrTooFewOpts, op)
	}

	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}
	return p, options.encoder, nil
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A ProductsProducer used for produce [domain.Product] to the import topic.
type ProductsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewProductsProducer(
	opts ...ProducerOpt,
) (ProductsProducer, error) {
	const op = "NewProductsProducer"

	opPrefix := "ProductsProducer"
	p, encoder, err := newProducer(op, opPrefix, opts...)
	if err != nil {
		return ProductsProducer{}, err
	}

	return ProductsProducer{
		producer: p,
		encoder:  encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p ProductsProducer) Close() {
	p.producer.close()
}

func (p ProductsProducer) ProduceProducts(
	ctx context.Context, vs []domain.Product,
) error {
	const op = "ProduceProducts"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	rs, err := p.createRecords(vs)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, rs...); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	return nil
}

func (p ProductsProducer) createRecords(
	vs []domain.Product,
) (rs []*kgo.Record, err error) {
	const op = "createRecords"

	for _, v := range vs {
		s := productToSchemaV1(v)
		b, err := p.encoder.Encode(s)
		if err != nil {
			return nil, opErr(err, p.opPrefix, op)
		}
		r := &kgo.Record{Key: []byte(s.ID), Value: b}
		rs = append(rs, r)
	}

	return rs, nil
}

// A CatalogEventsProducer used for produce [domain.ProductEvent].
//
// Records are keyed by product ID, so a compacted table keeps
// the latest state of every product.
type CatalogEventsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewCatalogEventsProducer(
	opts ...ProducerOpt,
) (CatalogEventsProducer, error) {
	const op = "NewCatalogEventsProducer"

	opPrefix := "CatalogEventsProducer"
	p, encoder, err := newProducer(op, opPrefix, opts...)
	if err != nil {
		return CatalogEventsProducer{}, err
	}

	return CatalogEventsProducer{
		producer: p,
		encoder:  encoder,
		opPrefix: opPrefix,
	}, nil
}

func (p CatalogEventsProducer) Close() {
	p.producer.close()
}

func (p CatalogEventsProducer) ProduceEvents(
	ctx context.Context, evts ...domain.ProductEvent,
) error {
	const op = "ProduceEvents"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	rs := make([]*kgo.Record, 0, len(evts))
	for _, evt := range evts {
		b, err := p.encoder.Encode(productEventToSchemaV1(evt))
		if err != nil {
			return opErr(err, p.opPrefix, op)
		}
		rs = append(rs, &kgo.Record{Key: []byte(evt.ProductID), Value: b})
	}

	if err := p.producer.produce(ctx, rs...); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}
