package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A productEventCodec used for serde [schema.ProductEventV1]
type productEventCodec struct {
	serde Serde
}

func newProductEventCodec(s Serde) productEventCodec {
	return productEventCodec{s}
}

func (c productEventCodec) Encode(v any) ([]byte, error) {
	const op = "productEventCodec.Encode"
	if _, ok := v.(schema.ProductEventV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c productEventCodec) Decode(data []byte) (any, error) {
	const op = "productEventCodec.Decode"
	var s schema.ProductEventV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A productCodec used for serde [schema.ProductV1] table values
type productCodec struct {
	serde Serde
}

func newProductCodec(s Serde) productCodec {
	return productCodec{s}
}

func (c productCodec) Encode(v any) ([]byte, error) {
	const op = "productCodec.Encode"
	if _, ok := v.(schema.ProductV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c productCodec) Decode(data []byte) (any, error) {
	const op = "productCodec.Decode"
	var s schema.ProductV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A CatalogProcessorConfig used for setup [CatalogProcessor].
type CatalogProcessorConfig struct {
	SeedBrokers  []string
	EventsTopic  string
	Group        string
	EventSerde   Serde
	ProductSerde Serde
	TLSConfig    *tls.Config
}

// A CatalogProcessor folds catalog events from the stream topic
// into the group table keyed by product ID.
type CatalogProcessor struct {
	opPrefix string
	proc     processor
}

func NewCatalogProcessor(
	config CatalogProcessorConfig,
) (*CatalogProcessor, error) {
	const op = "NewCatalogProcessor"

	applyTLS(config.TLSConfig)

	p := CatalogProcessor{opPrefix: "CatalogProcessor"}

	gg := goka.DefineGroup(goka.Group(config.Group),
		goka.Input(
			goka.Stream(config.EventsTopic),
			newProductEventCodec(config.EventSerde),
			p.processFn,
		),
		goka.Persist(newProductCodec(config.ProductSerde)),
	)

	gp, err := goka.NewProcessor(config.SeedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}

	return &p, nil
}

func (p *CatalogProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *CatalogProcessor) Close() {
	p.proc.close()
}

func (p *CatalogProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"
	log := slog.With("op", makeOp(p.opPrefix, op), "productID", ctx.Key())

	event, ok := msg.(schema.ProductEventV1)
	if !ok {
		log.Error("unexpected message", "err", ErrInvalidValueType)
		return
	}

	switch apply(event) {
	case tableSet:
		ctx.SetValue(*event.Product)
		log.Debug("product is set")
	case tableDelete:
		ctx.Delete()
		log.Debug("product is deleted")
	default:
		log.Warn("skip event", "eventOp", event.Op)
	}
}

type tableAction int

const (
	tableSkip tableAction = iota
	tableSet
	tableDelete
)

// apply resolves what the table must do with the event.
func apply(event schema.ProductEventV1) tableAction {
	switch domain.ProductEventOp(event.Op) {
	case domain.ProductUpserted:
		if event.Product == nil {
			return tableSkip
		}
		return tableSet
	case domain.ProductDeleted:
		return tableDelete
	default:
		return tableSkip
	}
}
