package kafka

import (
	"cmp"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.ProductsReader = (*CatalogView)(nil)

// A CatalogViewConfig used for setup [CatalogView].
//
// All fields except TLSConfig are required.
type CatalogViewConfig struct {
	SeedBrokers  []string
	Group        string
	ProductSerde Serde
	TLSConfig    *tls.Config
}

// A CatalogView serves products from the catalog group table.
type CatalogView struct {
	gv *goka.View
}

func NewCatalogView(config CatalogViewConfig) (*CatalogView, error) {
	const op = "NewCatalogView"

	applyTLS(config.TLSConfig)

	gv, err := goka.NewView(
		config.SeedBrokers,
		goka.GroupTable(goka.Group(config.Group)),
		newProductCodec(config.ProductSerde),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	return &CatalogView{gv}, nil
}

func (v *CatalogView) Run(ctx context.Context) {
	const op = "CatalogView.Run"
	log := slog.With("op", op)

	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
	}
}

// WaitRecovered blocks until the view has caught up with the table
// or the context is done.
func (v *CatalogView) WaitRecovered(ctx context.Context) error {
	const op = "CatalogView.WaitRecovered"

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for !v.gv.Recovered() {
		select {
		case <-ctx.Done():
			return opErr(ctx.Err(), op)
		case <-ticker.C:
		}
	}
	return nil
}

func (v *CatalogView) ReadProducts(
	ctx context.Context,
) ([]domain.Product, error) {
	const op = "CatalogView.ReadProducts"

	if err := ctx.Err(); err != nil {
		return nil, opErr(err, op)
	}

	if !v.gv.Recovered() {
		return nil, opErr(ErrViewNotReady, op)
	}

	it, err := v.gv.Iterator()
	if err != nil {
		return nil, opErr(err, op)
	}
	defer it.Release()

	var vs []schema.ProductV1
	for it.Next() {
		value, err := it.Value()
		if err != nil {
			return nil, opErr(err, op)
		}
		if value == nil {
			continue
		}
		s, ok := value.(schema.ProductV1)
		if !ok {
			return nil, opErr(
				fmt.Errorf("%w: %T", ErrInvalidValueType, value), op,
			)
		}
		vs = append(vs, s)
	}
	if err := it.Err(); err != nil {
		return nil, opErr(err, op)
	}

	return tableToProducts(vs), nil
}

// tableToProducts returns products in storage order,
// oldest first with ID as the tie-break.
func tableToProducts(vs []schema.ProductV1) []domain.Product {
	products := make([]domain.Product, 0, len(vs))
	for _, s := range vs {
		products = append(products, schemaV1ToProduct(s))
	}
	slices.SortFunc(products, func(a, b domain.Product) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return products
}
