package httphandler

import (
	"net/http"

	"github.com/niksmo/storefront/internal/core/port"
)

// RouterDeps holds the driving ports served over HTTP.
type RouterDeps struct {
	Lister    port.ProductsLister
	Admin     port.ProductsAdmin
	Sender    port.ProductsSender
	Users     port.UsersDirectory
	AdminUser string
	AdminPass string
}

func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	auth := AdminBasicAuth(d.AdminUser, d.AdminPass)

	RegisterProducts(mux, d.Lister)
	RegisterAdminProducts(mux, auth, d.Admin, d.Sender)
	RegisterUsers(mux, auth, d.Users)

	return AllowJSON(mux)
}
