package httphandler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// GET v1/products?category=&sort= (200 OK, 400 Bad request)
// GET v1/products/featured?limit= (200 OK)
// GET v1/products/{id} (200 OK, 404 Not found)
// GET v1/categories (200 OK)
// GET v1/categories/{category}/products?limit= (200 OK)

type ProductsHandler struct {
	lister port.ProductsLister
}

func RegisterProducts(mux *http.ServeMux, lister port.ProductsLister) {
	h := ProductsHandler{lister}
	mux.HandleFunc("GET /v1/products", h.ListProducts)
	mux.HandleFunc("GET /v1/products/featured", h.FeaturedProducts)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /v1/categories", h.Categories)
	mux.HandleFunc("GET /v1/categories/{category}/products", h.CategoryProducts)
}

func (h ProductsHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.ListProducts"
	log := slog.With("op", op)

	query := r.URL.Query()
	sortKey, err := domain.ParseSortKey(query.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		log.Warn("invalid sort key", "err", err)
		return
	}

	l, err := h.lister.ListProducts(r.Context(), domain.ListQuery{
		Category: query.Get("category"),
		Sort:     sortKey,
	})
	if err != nil {
		handleError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, fromDomainListing(l))
}

func (h ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProduct"
	log := slog.With("op", op)

	v, err := h.lister.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, fromDomainProduct(v))
}

func (h ProductsHandler) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.FeaturedProducts"
	log := slog.With("op", op)

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	vs, err := h.lister.FeaturedProducts(r.Context(), limit)
	if err != nil {
		handleError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, fromDomainProducts(vs))
}

func (h ProductsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.Categories"
	log := slog.With("op", op)

	cs, err := h.lister.Categories(r.Context())
	if err != nil {
		handleError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, Categories{Categories: cs})
}

func (h ProductsHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.CategoryProducts"
	log := slog.With("op", op)

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	vs, err := h.lister.ProductsByCategory(
		r.Context(), r.PathValue("category"), limit,
	)
	if err != nil {
		handleError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, fromDomainProducts(vs))
}

// POST v1/admin/products JSON (201 Created, 400 Bad request)
// PUT v1/admin/products/{id} JSON (200 OK, 400 Bad request, 404 Not found)
// DELETE v1/admin/products/{id} (204 No content, 404 Not found)
// POST v1/admin/products/seed JSON (202 Accepted, 400 Bad request)
// GET v1/admin/products/export (200 OK text/csv)

type AdminProductsHandler struct {
	admin  port.ProductsAdmin
	sender port.ProductsSender
}

func RegisterAdminProducts(
	mux *http.ServeMux,
	auth func(http.Handler) http.Handler,
	admin port.ProductsAdmin,
	sender port.ProductsSender,
) {
	h := AdminProductsHandler{admin, sender}
	mux.Handle("POST /v1/admin/products", auth(http.HandlerFunc(h.CreateProduct)))
	mux.Handle("PUT /v1/admin/products/{id}", auth(http.HandlerFunc(h.UpdateProduct)))
	mux.Handle("DELETE /v1/admin/products/{id}", auth(http.HandlerFunc(h.DeleteProduct)))
	mux.Handle("POST /v1/admin/products/seed", auth(http.HandlerFunc(h.SeedProducts)))
	mux.Handle("GET /v1/admin/products/export", auth(http.HandlerFunc(h.ExportProducts)))
}

func (h AdminProductsHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminProductsHandler.CreateProduct"
	log := slog.With("op", op)

	var in ProductInput
	if !decodeJSON(w, r, log, &in) {
		return
	}

	v, err := h.admin.CreateProduct(r.Context(), in.toDomain())
	if err != nil {
		handleError(w, log, err)
		return
	}

	log.Info("product created", "productID", v.ID)
	writeJSON(w, log, http.StatusCreated, fromDomainProduct(v))
}

func (h AdminProductsHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminProductsHandler.UpdateProduct"
	log := slog.With("op", op)

	var in ProductInput
	if !decodeJSON(w, r, log, &in) {
		return
	}

	v, err := h.admin.UpdateProduct(r.Context(), r.PathValue("id"), in.toDomain())
	if err != nil {
		handleError(w, log, err)
		return
	}

	log.Info("product updated", "productID", v.ID)
	writeJSON(w, log, http.StatusOK, fromDomainProduct(v))
}

func (h AdminProductsHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	const op = "AdminProductsHandler.DeleteProduct"
	log := slog.With("op", op)

	id := r.PathValue("id")
	if err := h.admin.DeleteProduct(r.Context(), id); err != nil {
		handleError(w, log, err)
		return
	}

	log.Info("product deleted", "productID", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h AdminProductsHandler) SeedProducts(w http.ResponseWriter, r *http.Request) {
	const op = "AdminProductsHandler.SeedProducts"
	log := slog.With("op", op)

	var ps []SeedProduct
	if !decodeJSON(w, r, log, &ps) {
		return
	}

	vs := make([]domain.Product, 0, len(ps))
	for _, p := range ps {
		vs = append(vs, p.toDomain())
	}

	accepted, err := h.sender.SendProducts(r.Context(), vs)
	if err != nil {
		if errors.Is(err, domain.ErrEmptySeed) {
			writeError(w, http.StatusBadRequest, "no products to seed")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "failed to accept products")
		log.Error("failed to send products", "err", err)
		return
	}

	log.Info("accepted", "nProducts", accepted, "nReceived", len(ps))
	writeJSON(w, log, http.StatusAccepted, SeedResult{
		Received: len(ps),
		Accepted: accepted,
	})
}

func (h AdminProductsHandler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	const op = "AdminProductsHandler.ExportProducts"
	log := slog.With("op", op)

	var buf bytes.Buffer
	if err := h.admin.ExportProducts(r.Context(), &buf); err != nil {
		handleError(w, log, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="products.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

// GET v1/admin/users (200 OK)
// GET v1/admin/users/{id} (200 OK, 404 Not found)
// PUT v1/admin/users/{id} JSON (200 OK, 400 Bad request)
// GET v1/users/sample?email= (200 OK, 204 No content)

type UsersHandler struct {
	users port.UsersDirectory
}

func RegisterUsers(
	mux *http.ServeMux,
	auth func(http.Handler) http.Handler,
	users port.UsersDirectory,
) {
	h := UsersHandler{users}
	mux.Handle("GET /v1/admin/users", auth(http.HandlerFunc(h.ListUsers)))
	mux.Handle("GET /v1/admin/users/{id}", auth(http.HandlerFunc(h.GetUser)))
	mux.Handle("PUT /v1/admin/users/{id}", auth(http.HandlerFunc(h.SaveUser)))
	mux.HandleFunc("GET /v1/users/sample", h.SampleUser)
}

func (h UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	const op = "UsersHandler.ListUsers"
	log := slog.With("op", op)

	us, err := h.users.Users(r.Context())
	if err != nil {
		handleError(w, log, err)
		return
	}

	res := make([]User, 0, len(us))
	for _, u := range us {
		res = append(res, fromDomainUser(u))
	}
	writeJSON(w, log, http.StatusOK, res)
}

func (h UsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	const op = "UsersHandler.GetUser"
	log := slog.With("op", op)

	u, err := h.users.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, fromDomainUser(u))
}

func (h UsersHandler) SaveUser(w http.ResponseWriter, r *http.Request) {
	const op = "UsersHandler.SaveUser"
	log := slog.With("op", op)

	var u User
	if !decodeJSON(w, r, log, &u) {
		return
	}
	u.ID = r.PathValue("id")

	if err := h.users.SaveUser(r.Context(), u.toDomain()); err != nil {
		handleError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, u)
}

func (h UsersHandler) SampleUser(w http.ResponseWriter, r *http.Request) {
	const op = "UsersHandler.SampleUser"
	log := slog.With("op", op)

	id, err := h.users.SampleUserID(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		handleError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, SampleUser{UserID: id})
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(s)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return limit, true
}

func decodeJSON(
	w http.ResponseWriter, r *http.Request, log *slog.Logger, v any,
) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON data")
		log.Warn("failed to parse JSON", "err", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, details ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Details: details})
}

// handleError maps domain errors to statuses, other causes are logged only.
func handleError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidProduct):
		writeError(
			w, http.StatusBadRequest,
			domain.ErrInvalidProduct.Error(), validationDetails(err)...,
		)
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
		log.Error("request failed", "err", err)
	}
}

// validationDetails returns one message per failed field.
func validationDetails(err error) []string {
	var details []string
	var walk func(error)
	walk = func(err error) {
		switch e := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			inner := e.Unwrap()
			if inner == domain.ErrInvalidProduct {
				details = append(details, fieldMessage(err))
				return
			}
			if inner != nil {
				walk(inner)
			}
		}
	}
	walk(err)
	return details
}

func fieldMessage(err error) string {
	prefix := domain.ErrInvalidProduct.Error() + ": "
	return strings.TrimPrefix(err.Error(), prefix)
}
