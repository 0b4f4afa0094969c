package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/listing"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ProductsLister = (*Service)(nil)
var _ port.ProductsAdmin = (*Service)(nil)
var _ port.ProductsSender = (*Service)(nil)
var _ port.ProductsSaver = (*Service)(nil)
var _ port.UsersDirectory = (*Service)(nil)

// Deps holds the service collaborators.
//
// Reader defaults to ProductsStorage. EventsProducer is optional.
type Deps struct {
	Reader           port.ProductsReader
	ProductsStorage  port.ProductsStorage
	UsersStorage     port.UsersStorage
	ProductsProducer port.ProductsProducer
	EventsProducer   port.ProductEventsProducer
	Exporter         port.ProductsExporter
	AdminEmail       string
}

type Service struct {
	reader           port.ProductsReader
	productsStorage  port.ProductsStorage
	usersStorage     port.UsersStorage
	productsProducer port.ProductsProducer
	eventsProducer   port.ProductEventsProducer
	exporter         port.ProductsExporter
	adminEmail       string
	validate         *validator.Validate
	newID            func() string
	now              func() time.Time
}

func New(d Deps) Service {
	reader := d.Reader
	if reader == nil {
		reader = d.ProductsStorage
	}
	return Service{
		reader:           reader,
		productsStorage:  d.ProductsStorage,
		usersStorage:     d.UsersStorage,
		productsProducer: d.ProductsProducer,
		eventsProducer:   d.EventsProducer,
		exporter:         d.Exporter,
		adminEmail:       d.AdminEmail,
		validate:         validator.New(),
		newID:            uuid.NewString,
		now:              time.Now,
	}
}

func (s Service) ListProducts(
	ctx context.Context, q domain.ListQuery,
) (domain.Listing, error) {
	const op = "Service.ListProducts"

	ps, err := s.readProducts(ctx)
	if err != nil {
		return domain.Listing{}, fmt.Errorf("%s: %w", op, err)
	}
	return listing.Apply(ps, q), nil
}

func (s Service) Categories(ctx context.Context) ([]string, error) {
	const op = "Service.Categories"

	ps, err := s.readProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return listing.Categories(ps), nil
}

func (s Service) GetProduct(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "Service.GetProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.productsStorage.ReadProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s Service) FeaturedProducts(
	ctx context.Context, limit int,
) ([]domain.Product, error) {
	const op = "Service.FeaturedProducts"

	ps, err := s.readProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	featured := make([]domain.Product, 0)
	for _, p := range ps {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	return capped(featured, limit), nil
}

func (s Service) ProductsByCategory(
	ctx context.Context, category string, limit int,
) ([]domain.Product, error) {
	const op = "Service.ProductsByCategory"

	ps, err := s.readProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return capped(listing.Filter(ps, category), limit), nil
}

func (s Service) CreateProduct(
	ctx context.Context, in domain.ProductInput,
) (domain.Product, error) {
	const op = "Service.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	in = normalizeInput(in)
	if err := s.validateStruct(in); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	p := domain.Product{
		ID:        s.newID(),
		Reviews:   []domain.Review{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(&p, in)

	err := s.productsStorage.StoreProducts(ctx, []domain.Product{p})
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, upsertEvent(p))
	return p, nil
}

func (s Service) UpdateProduct(
	ctx context.Context, id string, in domain.ProductInput,
) (domain.Product, error) {
	const op = "Service.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	in = normalizeInput(in)
	if err := s.validateStruct(in); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.productsStorage.ReadProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	applyInput(&p, in)
	p.UpdatedAt = s.now().UTC()

	err = s.productsStorage.StoreProducts(ctx, []domain.Product{p})
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, upsertEvent(p))
	return p, nil
}

func (s Service) DeleteProduct(ctx context.Context, id string) error {
	const op = "Service.DeleteProduct"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.productsStorage.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publish(ctx, domain.ProductEvent{
		Op:        domain.ProductDeleted,
		ProductID: id,
	})
	return nil
}

// SendProducts hands seed products over to the import pipeline.
//
// Products without ID or breaking the product constraints are skipped.
func (s Service) SendProducts(
	ctx context.Context, ps []domain.Product,
) (int, error) {
	const op = "Service.SendProducts"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if len(ps) == 0 {
		return 0, fmt.Errorf("%s: %w", op, domain.ErrEmptySeed)
	}

	accepted := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		if strings.TrimSpace(p.ID) == "" {
			log.Warn("skipping product with no ID", "productName", p.Name)
			continue
		}
		if err := s.validateStruct(p); err != nil {
			log.Warn(
				"skipping invalid product",
				"productID", p.ID, "err", err,
			)
			continue
		}
		accepted = append(accepted, p)
	}

	if len(accepted) == 0 {
		return 0, nil
	}

	err := s.productsProducer.ProduceProducts(ctx, accepted)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return len(accepted), nil
}

// SaveProducts upserts products, overwriting records with the same ID.
//
// Invalid products are not stored. They are reported as an error
// wrapping [domain.ErrInvalidProduct] after the valid ones are saved.
func (s Service) SaveProducts(ctx context.Context, ps []domain.Product) error {
	const op = "Service.SaveProducts"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	stamped := make([]domain.Product, 0, len(ps))
	var invalid []error
	for _, p := range ps {
		if err := s.validateStruct(p); err != nil {
			invalid = append(invalid, fmt.Errorf("product %q: %w", p.ID, err))
			continue
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		stamped = append(stamped, p)
	}

	if len(stamped) != 0 {
		err := s.productsStorage.StoreProducts(ctx, stamped)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		evts := make([]domain.ProductEvent, len(stamped))
		for i, p := range stamped {
			evts[i] = upsertEvent(p)
		}
		s.publish(ctx, evts...)
	}

	if len(invalid) != 0 {
		return fmt.Errorf("%s: %w", op, errors.Join(invalid...))
	}
	return nil
}

func (s Service) ExportProducts(ctx context.Context, w io.Writer) error {
	const op = "Service.ExportProducts"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ps, err := s.productsStorage.ReadProducts(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.exporter.Export(w, ps); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s Service) readProducts(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.reader.ReadProducts(ctx)
}

func (s Service) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}

	errs := make([]error, 0, len(vErrs))
	for _, fe := range vErrs {
		errs = append(errs, fmt.Errorf(
			"%w: %s: failed on %q", domain.ErrInvalidProduct,
			fe.Namespace(), fe.Tag(),
		))
	}
	return errors.Join(errs...)
}

// publish logs failures, the store stays the source of truth.
func (s Service) publish(ctx context.Context, evts ...domain.ProductEvent) {
	const op = "Service.publish"

	if s.eventsProducer == nil || len(evts) == 0 {
		return
	}

	if err := s.eventsProducer.ProduceEvents(ctx, evts...); err != nil {
		slog.Error(
			"failed to publish catalog events",
			"op", op, "nEvents", len(evts), "err", err,
		)
	}
}

func normalizeInput(in domain.ProductInput) domain.ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Images = compactImages(in.Images)
	return in
}

func applyInput(p *domain.Product, in domain.ProductInput) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.Category = in.Category
	p.Featured = in.Featured
	p.Images = in.Images
}

func compactImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}

func upsertEvent(p domain.Product) domain.ProductEvent {
	return domain.ProductEvent{
		Op:        domain.ProductUpserted,
		ProductID: p.ID,
		Product:   &p,
	}
}

func capped(ps []domain.Product, limit int) []domain.Product {
	if limit > 0 && len(ps) > limit {
		return ps[:limit]
	}
	return ps
}
