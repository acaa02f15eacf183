// Package web is the thin UI adapter: it renders the view models produced
// by the presentation layer and turns form posts into controller actions.
// All state lives behind the controller; nothing here mutates the cart
// directly.
package web

import (
	"embed"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"text/template"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/olshop/online-store/internal/checkout"
	"github.com/olshop/online-store/internal/controller"
	"github.com/olshop/online-store/internal/domain/catalog"
	"github.com/olshop/online-store/internal/view"
	"github.com/olshop/online-store/pkg/currency"
)

// Titles in the view models arrive pre-escaped from the projection layer,
// so the templates are plain text templates; rendering them through
// html/template would escape the fields a second time.
//
//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the storefront pages and the action endpoint.
type Handler struct {
	ctrl    *controller.Controller
	catalog *catalog.Cache
	orders  checkout.Repository
	tmpl    *template.Template
}

// NewHandler parses the embedded templates and returns a Handler.
func NewHandler(ctrl *controller.Controller, cache *catalog.Cache, orders checkout.Repository) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	return &Handler{
		ctrl:    ctrl,
		catalog: cache,
		orders:  orders,
		tmpl:    tmpl,
	}, nil
}

// Routes registers the storefront routes on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /action", h.action)
	mux.HandleFunc("GET /orders", h.orderHistory)
}

// indexData is the root page model.
type indexData struct {
	Catalog     view.CatalogView
	Cart        view.CartView
	OverlayOpen bool
	Notice      string
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	res := h.ctrl.Render()
	data := indexData{
		Catalog:     view.ProjectCatalog(h.catalog),
		Cart:        res.Cart,
		OverlayOpen: res.OverlayOpen,
		// Query-sourced text goes through the same escaping contract as
		// catalog titles before it reaches a template.
		Notice: html.EscapeString(r.URL.Query().Get("notice")),
	}
	h.render(w, r, "index.html", data)
}

// action decodes the posted form into a discriminated action, dispatches
// it, and redirects. A successful checkout redirects to the handoff URL
// (the form targets a new browsing context); everything else lands back on
// the storefront.
func (h *Handler) action(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	id, _ := strconv.Atoi(r.PostFormValue("id"))
	a := controller.Action{
		Kind:      controller.Kind(r.PostFormValue("kind")),
		ID:        id,
		Confirmed: r.PostFormValue("confirmed") == "1",
	}

	res := h.ctrl.Dispatch(r.Context(), a)

	switch {
	case res.HandoffURL != "":
		http.Redirect(w, r, res.HandoffURL, http.StatusSeeOther)
	case res.Notice != "":
		http.Redirect(w, r, "/?notice="+url.QueryEscape(res.Notice), http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// ordersData is the order history page model.
type ordersData struct {
	Orders []orderRow
}

type orderRow struct {
	ID        string
	CreatedAt string
	Lines     int
	Total     string
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list orders", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := ordersData{Orders: make([]orderRow, len(orders))}
	for i, o := range orders {
		data.Orders[i] = orderRow{
			ID:        o.ID,
			CreatedAt: o.CreatedAt.Format("2006-01-02 15:04"),
			Lines:     len(o.Lines),
			Total:     currency.USD(o.Total),
		}
	}
	h.render(w, r, "orders.html", data)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		zctx.From(r.Context()).Error("render template", zap.String("template", name), zap.Error(err))
	}
}
