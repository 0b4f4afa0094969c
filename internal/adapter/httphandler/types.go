package httphandler

import (
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	Product struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Price       float64   `json:"price"`
		Stock       int       `json:"stock"`
		Status      string    `json:"status"`
		Category    string    `json:"category"`
		Rating      float64   `json:"rating"`
		Featured    bool      `json:"featured"`
		Images      []string  `json:"images"`
		Reviews     []Review  `json:"reviews"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	Review struct {
		ID      string  `json:"id"`
		Author  string  `json:"author"`
		Rating  float64 `json:"rating"`
		Comment string  `json:"comment"`
		Date    string  `json:"date"`
	}

	// A SeedProduct is a product record of the seed payload.
	SeedProduct struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Price       float64  `json:"price"`
		Stock       int      `json:"stock"`
		Category    string   `json:"category"`
		Rating      float64  `json:"rating"`
		Featured    bool     `json:"featured"`
		Images      []string `json:"images"`
		Reviews     []Review `json:"reviews"`
	}

	ProductInput struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Price       float64  `json:"price"`
		Stock       int      `json:"stock"`
		Category    string   `json:"category"`
		Featured    bool     `json:"featured"`
		Images      []string `json:"images"`
	}
)

type Listing struct {
	Category string    `json:"category"`
	Sort     string    `json:"sort"`
	Total    int       `json:"total"`
	Products []Product `json:"products"`
	Message  string    `json:"message,omitempty"`
	Hint     string    `json:"hint,omitempty"`
}

type Categories struct {
	Categories []string `json:"categories"`
}

type SeedResult struct {
	Received int `json:"received"`
	Accepted int `json:"accepted"`
}

type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Orders     int    `json:"orders"`
	TotalSpent string `json:"totalSpent"`
}

type SampleUser struct {
	UserID string `json:"userId"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func fromDomainProduct(v domain.Product) Product {
	p := Product{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Price:       v.Price,
		Stock:       v.Stock,
		Status:      v.Status(),
		Category:    v.Category,
		Rating:      v.Rating,
		Featured:    v.Featured,
		Images:      v.Images,
		Reviews:     make([]Review, len(v.Reviews)),
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	for i, r := range v.Reviews {
		p.Reviews[i] = Review(r)
	}
	return p
}

func fromDomainProducts(vs []domain.Product) []Product {
	ps := make([]Product, 0, len(vs))
	for _, v := range vs {
		ps = append(ps, fromDomainProduct(v))
	}
	return ps
}

func fromDomainListing(l domain.Listing) Listing {
	res := Listing{
		Category: l.Category,
		Sort:     l.Sort.String(),
		Total:    l.Total(),
		Products: fromDomainProducts(l.Products),
	}
	if l.Empty() {
		res.Message = domain.NoProductsMessage
		res.Hint = domain.NoProductsHint
	}
	return res
}

func (p SeedProduct) toDomain() domain.Product {
	v := domain.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		Rating:      p.Rating,
		Featured:    p.Featured,
		Images:      p.Images,
		Reviews:     make([]domain.Review, len(p.Reviews)),
	}
	for i, r := range p.Reviews {
		v.Reviews[i] = domain.Review(r)
	}
	return v
}

func (in ProductInput) toDomain() domain.ProductInput {
	return domain.ProductInput(in)
}

func fromDomainUser(v domain.User) User {
	return User(v)
}

func (u User) toDomain() domain.User {
	return domain.User(u)
}
