package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"tychoorderbook/internal/state"
	"tychoorderbook/internal/valuation"
)

// TokenHandler serves token-valuation lookups against the Valuation
// Router.
type TokenHandler struct {
	store  *state.Store
	router *valuation.Router
}

// NewTokenHandler builds a TokenHandler.
func NewTokenHandler(store *state.Store, router *valuation.Router) *TokenHandler {
	return &TokenHandler{store: store, router: router}
}

type tokenValueResponse struct {
	Address        string  `json:"address"`
	ValueInReference float64 `json:"value_in_reference"`
}

// GetValue handles GET /api/v1/tokens/{address}/value, returning the
// token's price in terms of the configured chain reference token.
func (h *TokenHandler) GetValue(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]

	snap, err := h.store.Read()
	if err != nil {
		writeError(w, err)
		return
	}

	value, err := h.router.ValueInReference(r.Context(), snap, address)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenValueResponse{Address: address, ValueInReference: value})
}
