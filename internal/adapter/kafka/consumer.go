package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

const consumerSlowDown = time.Second

var defaultSaveRetry = retry.RetryConfig{
	MaxAttempts: 3,
	Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
}

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	CommitRecords(context.Context, ...*kgo.Record) error
	SetOffsets(map[string]map[int32]kgo.EpochOffset)
	Close()
}

type ConsumerOpt func(*consumerOpts) error

type consumerOpts struct {
	cl        ConsumerClient
	decoder   Decoder
	saver     port.ProductsSaver
	saveRetry retry.RetryConfig
}

func ConsumerClientOpt(
	seedBrokers []string, topic, group string, tlsCfg *tls.Config,
) ConsumerOpt {
	return func(co *consumerOpts) error {
		kOpts := append(
			[]kgo.Opt{
				kgo.SeedBrokers(seedBrokers...),
				kgo.ConsumeTopics(topic),
				kgo.ConsumerGroup(group),
				kgo.DisableAutoCommit(),
				kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
			},
			tlsOpts(tlsCfg)...,
		)
		cl, err := kgo.NewClient(kOpts...)
		if err != nil {
			return err
		}
		co.cl = cl
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

func ProductsConsumerSaverOpt(ps port.ProductsSaver) ConsumerOpt {
	return func(co *consumerOpts) error {
		if ps == nil {
			return errors.New("products saver is nil")
		}
		co.saver = ps
		return nil
	}
}

// ConsumerSaveRetryOpt sets how a failed batch save is retried
// before the batch is rewound.
func ConsumerSaveRetryOpt(c retry.RetryConfig) ConsumerOpt {
	return func(co *consumerOpts) error {
		co.saveRetry = c
		return nil
	}
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}

	var missing []string
	if co.cl == nil {
		missing = append(missing, "client")
	}
	if co.decoder == nil {
		missing = append(missing, "decoder")
	}
	if co.saver == nil {
		missing = append(missing, "saver")
	}
	if len(missing) != 0 {
		return fmt.Errorf(
			"%w: %s", ErrTooFewOpts, strings.Join(missing, ", "),
		)
	}
	return nil
}

// A ProductsConsumer reads the import topic and saves products
// through the core service.
//
// A batch is committed once it is saved, or once its records turned out
// to be undecodable or invalid. A batch that fails to save is retried,
// then rewound so the next poll delivers it again.
type ProductsConsumer struct {
	opPrefix      string
	cl            ConsumerClient
	decoder       Decoder
	saver         port.ProductsSaver
	saveRetry     retry.RetryConfig
	slowDownTimer *time.Timer
}

func NewProductsConsumer(opts ...ConsumerOpt) (*ProductsConsumer, error) {
	const op = "NewProductsConsumer"

	options := consumerOpts{saveRetry: defaultSaveRetry}
	if err := options.apply(opts...); err != nil {
		if options.cl != nil {
			options.cl.Close()
		}
		return nil, opErr(err, op)
	}

	return &ProductsConsumer{
		opPrefix:      "ProductsConsumer",
		cl:            options.cl,
		decoder:       options.decoder,
		saver:         options.saver,
		saveRetry:     options.saveRetry,
		slowDownTimer: time.NewTimer(0),
	}, nil
}

func (c *ProductsConsumer) Run(ctx context.Context) {
	const op = "Run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")

	for ctx.Err() == nil {
		err := c.consume(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}
		log.Error("failed to consume", "err", err)
		c.slowDown(ctx)
	}
}

func (c *ProductsConsumer) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	c.slowDownTimer.Stop()

	log.Info("closing consumer...")
	c.cl.Close()
	log.Info("consumer is closed")
}

func (c *ProductsConsumer) consume(ctx context.Context) error {
	const op = "consume"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return opErr(err, c.opPrefix, op)
	}
	if err := fetchErrors(fetches); err != nil {
		return opErr(err, c.opPrefix, op)
	}
	if fetches.Empty() {
		return nil
	}

	if err := c.handle(ctx, fetches); err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

// handle saves the batch and commits it, or rewinds it on failure.
func (c *ProductsConsumer) handle(ctx context.Context, fetches kgo.Fetches) error {
	const op = "handle"
	log := slog.With("op", makeOp(c.opPrefix, op))

	records := fetches.Records()
	products := c.decodeRecords(records)

	err := c.save(ctx, products)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidProduct):
		log.Warn("invalid products are dropped", "err", err)
	default:
		c.rewind(records)
		return opErr(err, c.opPrefix, op)
	}

	if err := ctx.Err(); err != nil {
		return opErr(err, c.opPrefix, op)
	}
	if err := c.cl.CommitRecords(ctx, records...); err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c *ProductsConsumer) save(ctx context.Context, ps []domain.Product) error {
	if len(ps) == 0 {
		return nil
	}

	cfg := c.saveRetry
	cfg.ShouldRetry = func(err error) bool {
		return !errors.Is(err, domain.ErrInvalidProduct) &&
			!errors.Is(err, context.Canceled)
	}
	return retry.Do(ctx, cfg, func() error {
		return c.saver.SaveProducts(ctx, ps)
	})
}

// rewind moves every fetched partition back to its first record
// of the batch.
func (c *ProductsConsumer) rewind(records []*kgo.Record) {
	offsets := make(map[string]map[int32]kgo.EpochOffset)
	for _, r := range records {
		partitions, ok := offsets[r.Topic]
		if !ok {
			partitions = make(map[int32]kgo.EpochOffset)
			offsets[r.Topic] = partitions
		}
		if eo, ok := partitions[r.Partition]; ok && eo.Offset <= r.Offset {
			continue
		}
		partitions[r.Partition] = kgo.EpochOffset{
			Epoch:  r.LeaderEpoch,
			Offset: r.Offset,
		}
	}
	c.cl.SetOffsets(offsets)
}

func (c *ProductsConsumer) decodeRecords(records []*kgo.Record) []domain.Product {
	const op = "decodeRecords"
	log := slog.With("op", makeOp(c.opPrefix, op))

	vs := make([]domain.Product, 0, len(records))
	for _, r := range records {
		var s schema.ProductV1
		if err := c.decoder.Decode(r.Value, &s); err != nil {
			log.Error(
				"undecodable record is dropped",
				"partition", r.Partition, "offset", r.Offset, "err", err,
			)
			continue
		}
		vs = append(vs, schemaV1ToProduct(s))
	}
	return vs
}

func (c *ProductsConsumer) slowDown(ctx context.Context) {
	c.slowDownTimer.Reset(consumerSlowDown)
	select {
	case <-ctx.Done():
	case <-c.slowDownTimer.C:
	}
}

func fetchErrors(fetches kgo.Fetches) error {
	var errs []error
	fetches.EachError(func(t string, p int32, err error) {
		errs = append(errs, fmt.Errorf("topic %q partition %d: %w", t, p, err))
	})
	return errors.Join(errs...)
}
