package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
	ErrViewNotReady     = errors.New("view is not recovered yet")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsCfg *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kOpts := append(
			[]kgo.Opt{
				kgo.SeedBrokers(seedBrokers...),
				kgo.DefaultProduceTopicAlways(),
				kgo.DefaultProduceTopic(topic),
				kgo.RequiredAcks(kgo.AllISRAcks()),
				kgo.AllowAutoTopicCreation(),
			},
			tlsOpts(tlsCfg)...,
		)
		cl, err := kgo.NewClient(kOpts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

func tlsOpts(tlsCfg *tls.Config) []kgo.Opt {
	if tlsCfg == nil {
		return nil
	}
	return []kgo.Opt{kgo.DialTLSConfig(tlsCfg)}
}

// applyTLS enables TLS for goka processors and views.
func applyTLS(tlsCfg *tls.Config) {
	if tlsCfg == nil {
		return
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsCfg
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func productToSchemaV1(v domain.Product) (s schema.ProductV1) {
	s.ID = v.ID
	s.Name = v.Name
	s.Description = v.Description
	s.Price = v.Price
	s.Stock = int64(v.Stock)
	s.Category = v.Category
	s.Rating = v.Rating
	s.Featured = v.Featured
	s.Images = v.Images
	s.CreatedAt = v.CreatedAt
	s.UpdatedAt = v.UpdatedAt

	s.Reviews = make([]schema.ReviewV1, len(v.Reviews))
	for i, r := range v.Reviews {
		s.Reviews[i] = schema.ReviewV1{
			ID:      r.ID,
			Author:  r.Author,
			Rating:  r.Rating,
			Comment: r.Comment,
			Date:    r.Date,
		}
	}
	return
}

func schemaV1ToProduct(s schema.ProductV1) (v domain.Product) {
	v.ID = s.ID
	v.Name = s.Name
	v.Description = s.Description
	v.Price = s.Price
	v.Stock = int(s.Stock)
	v.Category = s.Category
	v.Rating = s.Rating
	v.Featured = s.Featured
	v.Images = s.Images
	v.CreatedAt = s.CreatedAt
	v.UpdatedAt = s.UpdatedAt

	v.Reviews = make([]domain.Review, len(s.Reviews))
	for i, r := range s.Reviews {
		v.Reviews[i] = domain.Review{
			ID:      r.ID,
			Author:  r.Author,
			Rating:  r.Rating,
			Comment: r.Comment,
			Date:    r.Date,
		}
	}
	return
}

func productEventToSchemaV1(v domain.ProductEvent) (s schema.ProductEventV1) {
	s.Op = string(v.Op)
	s.ProductID = v.ProductID
	if v.Product != nil {
		p := productToSchemaV1(*v.Product)
		s.Product = &p
	}
	return
}
