package port

import (
	"context"
	"io"

	"github.com/niksmo/storefront/internal/core/domain"
)

type ProductsLister interface {
	ListProducts(context.Context, domain.ListQuery) (domain.Listing, error)
	Categories(context.Context) ([]string, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	FeaturedProducts(ctx context.Context, limit int) ([]domain.Product, error)
	ProductsByCategory(
		ctx context.Context, category string, limit int,
	) ([]domain.Product, error)
}

type ProductsAdmin interface {
	CreateProduct(context.Context, domain.ProductInput) (domain.Product, error)
	UpdateProduct(
		ctx context.Context, id string, in domain.ProductInput,
	) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ExportProducts(context.Context, io.Writer) error
}

type ProductsSender interface {
	SendProducts(context.Context, []domain.Product) (accepted int, err error)
}

type ProductsSaver interface {
	SaveProducts(context.Context, []domain.Product) error
}

type UsersDirectory interface {
	Users(context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	SaveUser(context.Context, domain.User) error
	SampleUserID(ctx context.Context, email string) (string, error)
}

// A ProductsReader supplies the input collection of the list view.
type ProductsReader interface {
	ReadProducts(context.Context) ([]domain.Product, error)
}

type ProductsStorage interface {
	ProductsReader
	ReadProduct(ctx context.Context, id string) (domain.Product, error)
	StoreProducts(context.Context, []domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}

type UsersStorage interface {
	ReadUsers(context.Context) ([]domain.User, error)
	ReadUser(ctx context.Context, id string) (domain.User, error)
	ReadUserByEmail(ctx context.Context, email string) (domain.User, error)
	FirstUser(context.Context) (domain.User, error)
	StoreUser(context.Context, domain.User) error
}

type ProductsProducer interface {
	ProduceProducts(context.Context, []domain.Product) error
}

type ProductEventsProducer interface {
	ProduceEvents(context.Context, ...domain.ProductEvent) error
}

type ProductsExporter interface {
	Export(io.Writer, []domain.Product) error
}
