package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	domproduct "example.com/rocketshoes/app/internal/domain/product"
	productuc "example.com/rocketshoes/app/internal/usecase/product"
)

// CatalogAPI serves products and stock to cart services. Responses are the
// bare JSON objects, without an envelope.
type CatalogAPI struct {
	productSvc *productuc.Service
	tokens     TokenParser
	logger     *log.Entry
}

type CatalogDependencies struct {
	ProductService *productuc.Service
	// TokenService, when set, requires a service token on every catalog route.
	TokenService TokenParser
	Logger       *log.Entry
}

func NewCatalogAPI(deps CatalogDependencies) *CatalogAPI {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "catalog_http")
	}
	return &CatalogAPI{
		productSvc: deps.ProductService,
		tokens:     deps.TokenService,
		logger:     logger,
	}
}

func (a *CatalogAPI) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(a.logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(serviceAuth(a.tokens, ScopeCatalogRead))
		pr.Get("/products", a.handleListProducts)
		pr.Get("/products/{id}", a.handleGetProduct)
		pr.Get("/stock/{id}", a.handleGetStock)
	})

	return r
}

func (a *CatalogAPI) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter := domproduct.ListFilter{
		Search: strings.TrimSpace(r.URL.Query().Get("q")),
	}

	products, err := a.productSvc.List(r.Context(), filter)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if products == nil {
		products = []*domproduct.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (a *CatalogAPI) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	p, err := a.productSvc.GetByID(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *CatalogAPI) handleGetStock(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	stock, err := a.productSvc.GetStock(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	a.logger.WithFields(log.Fields{
		"product_id": id,
		"caller":     callerService(r.Context()),
	}).Debug("stock served")
	writeJSON(w, http.StatusOK, stock)
}
