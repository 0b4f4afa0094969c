package domain

import "time"

const (
	StatusInStock    = "In Stock"
	StatusOutOfStock = "Out of Stock"
)

type (
	// A Product is validated on import, fields without tags are free-form.
	Product struct {
		ID          string `validate:"required"`
		Name        string
		Description string
		Price       float64 `validate:"gte=0"`
		Stock       int     `validate:"gte=0"`
		Category    string
		Rating      float64 `validate:"gte=0,lte=5"`
		Featured    bool
		Images      []string `validate:"max=4"`
		Reviews     []Review `validate:"dive"`
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Review struct {
		ID      string
		Author  string
		Rating  float64 `validate:"gte=0,lte=5"`
		Comment string
		Date    string
	}
)

func (p Product) InStock() bool {
	return p.Stock > 0
}

func (p Product) Status() string {
	if p.InStock() {
		return StatusInStock
	}
	return StatusOutOfStock
}

// A ProductInput is the admin form payload for create and update.
type ProductInput struct {
	Name        string   `validate:"required"`
	Description string   `validate:"required"`
	Price       float64  `validate:"gte=0"`
	Stock       int      `validate:"gte=0"`
	Category    string   `validate:"required"`
	Featured    bool     `validate:"-"`
	Images      []string `validate:"min=1,max=4,dive,required,url"`
}

type ProductEventOp string

const (
	ProductUpserted ProductEventOp = "upsert"
	ProductDeleted  ProductEventOp = "delete"
)

// A ProductEvent notifies about a catalog change.
//
// Product is nil for [ProductDeleted].
type ProductEvent struct {
	Op        ProductEventOp
	ProductID string
	Product   *Product
}
