package controllers

import (
	"net/http"

	"github.com/fsamadov/tezbazar-backend/api/responses"
	"github.com/fsamadov/tezbazar-backend/internal/promo"
)

// ListPromoCodes returns the active promo codes. Used by the storefront to
// render promo banners next to the checkout form.
func ListPromoCodes(registry *promo.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, registry.List())
	}
}
