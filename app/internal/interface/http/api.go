package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
	domproduct "example.com/rocketshoes/app/internal/domain/product"
	"example.com/rocketshoes/app/internal/infra/notify"
	cartuc "example.com/rocketshoes/app/internal/usecase/cart"
)

// API is the storefront-facing cart surface.
type API struct {
	store     *cartuc.Store
	inbox     *notify.Inbox
	metrics   http.Handler
	logger    *log.Entry
	validator *validator.Validate
}

type Dependencies struct {
	CartStore *cartuc.Store
	Inbox     *notify.Inbox
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
	Logger         *log.Entry
}

func NewAPI(deps Dependencies) *API {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	return &API{
		store:     deps.CartStore,
		inbox:     deps.Inbox,
		metrics:   deps.MetricsHandler,
		logger:    logger,
		validator: validator.New(),
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(a.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.AllowContentType("application/json", "text/plain"))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(cr chi.Router) {
			cr.Get("/", a.handleGetCart)
			cr.Post("/items", a.handleAddCartItem)
			cr.Put("/items/{id}", a.handleUpdateCartItem)
			cr.Delete("/items/{id}", a.handleRemoveCartItem)
		})
		r.Get("/notifications", a.handleListNotifications)
	})

	return r
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func respondValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Details: details})
}

func parseIDParam(r *http.Request, key string) (int64, error) {
	idStr := chi.URLParam(r, key)
	return strconv.ParseInt(idStr, 10, 64)
}

func mapCart(cart domcart.Cart) map[string]any {
	items := make([]map[string]any, 0, len(cart))
	for _, item := range cart {
		items = append(items, map[string]any{
			"id":       item.ID,
			"name":     item.Name,
			"price":    item.Price,
			"imageUrl": item.ImageURL,
			"amount":   item.Amount,
			"subtotal": item.Subtotal(),
		})
	}
	return map[string]any{
		"items": items,
		"count": cart.Count(),
		"total": cart.Total(),
	}
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domcart.ErrOutOfStock):
		respondError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domcart.ErrProductNotFound):
		respondError(w, http.StatusNotFound, err)
	// catalog failures seen through the cart carry the catalog's own
	// not-found errors, so this must match before them
	case errors.Is(err, domcart.ErrServiceFailure):
		respondError(w, http.StatusBadGateway, err)
	case errors.Is(err, domcart.ErrStorageFailure):
		respondError(w, http.StatusInternalServerError, err)
	case errors.Is(err, domproduct.ErrProductNotFound),
		errors.Is(err, domproduct.ErrStockNotFound):
		respondError(w, http.StatusNotFound, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}
