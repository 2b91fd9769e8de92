package http

import (
	"net/http"

	cartuc "example.com/rocketshoes/app/internal/usecase/cart"
)

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// Amounts below 1 are accepted and ignored by the store.
type updateCartItemRequest struct {
	Amount *int64 `json:"amount" validate:"required"`
}

func (a *API) handleGetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapCart(a.store.Cart()))
}

func (a *API) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondValidationError(w, err)
		return
	}

	if err := a.store.AddProduct(r.Context(), req.ProductID); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapCart(a.store.Cart()))
}

func (a *API) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req updateCartItemRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondValidationError(w, err)
		return
	}

	err = a.store.UpdateProductAmount(r.Context(), cartuc.UpdateProductAmount{
		ProductID: id,
		Amount:    *req.Amount,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapCart(a.store.Cart()))
}

func (a *API) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.store.RemoveProduct(r.Context(), id); err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, mapCart(a.store.Cart()))
}

func (a *API) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if a.inbox == nil {
		writeJSON(w, http.StatusOK, map[string]any{"data": []any{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": a.inbox.Drain()})
}
