package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/fsamadov/tezbazar-backend/api/responses"
	"github.com/fsamadov/tezbazar-backend/api/validators"
	"github.com/fsamadov/tezbazar-backend/internal/catalog"
	pkgerrors "github.com/fsamadov/tezbazar-backend/pkg/errors"
	"github.com/fsamadov/tezbazar-backend/pkg/logger"
	"github.com/fsamadov/tezbazar-backend/pkg/types"
)

type productPayload struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Description     *string  `json:"description,omitempty"`
	Price           string   `json:"price" validate:"required"`
	Weight          *string  `json:"weight,omitempty"`
	ImageURL        *string  `json:"imageUrl,omitempty"`
	CategoryID      *string  `json:"categoryId,omitempty"`
	IsPopular       bool     `json:"isPopular"`
	InStock         bool     `json:"inStock"`
	Ingredients     []string `json:"ingredients,omitempty"`
	Manufacturer    *string  `json:"manufacturer,omitempty"`
	CountryOfOrigin *string  `json:"countryOfOrigin,omitempty"`
}

func (p productPayload) toInput() (catalog.ProductInput, error) {
	price, err := types.MoneyFromString(p.Price)
	if err != nil {
		return catalog.ProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be a decimal string")
	}

	input := catalog.ProductInput{
		Name:            p.Name,
		Description:     p.Description,
		Price:           price,
		Weight:          p.Weight,
		ImageURL:        p.ImageURL,
		IsPopular:       p.IsPopular,
		InStock:         p.InStock,
		Ingredients:     p.Ingredients,
		Manufacturer:    p.Manufacturer,
		CountryOfOrigin: p.CountryOfOrigin,
	}
	if p.CategoryID != nil && *p.CategoryID != "" {
		categoryID, err := uuid.Parse(*p.CategoryID)
		if err != nil {
			return catalog.ProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid categoryId")
		}
		input.CategoryID = &categoryID
	}
	return input, nil
}

// ListProducts returns catalog products, optionally filtered by category,
// popularity, or a search term.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := strings.TrimSpace(r.URL.Query().Get("search"))
		if search == "" {
			search = strings.TrimSpace(r.URL.Query().Get("q"))
		}
		filter := catalog.ProductFilter{Search: search}
		if raw := strings.TrimSpace(r.URL.Query().Get("categoryId")); raw != "" {
			categoryID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid categoryId"))
				return
			}
			filter.CategoryID = &categoryID
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("popular")); raw == "true" {
			filter.Popular = true
		}

		products, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

// GetProduct returns a single product by id.
func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// CreateProduct adds a catalog product. Admin surface.
func CreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct replaces a catalog product. Admin surface.
func UpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type categoryPayload struct {
	Name      string  `json:"name" validate:"required,max=100"`
	Slug      string  `json:"slug" validate:"required,max=100"`
	ImageURL  *string `json:"imageUrl,omitempty"`
	SortOrder int     `json:"sortOrder"`
}

// ListCategories returns categories ordered for storefront navigation.
func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// CreateCategory adds a category. Admin surface.
func CreateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload categoryPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := svc.CreateCategory(r.Context(), catalog.CategoryInput{
			Name:      payload.Name,
			Slug:      payload.Slug,
			ImageURL:  payload.ImageURL,
			SortOrder: payload.SortOrder,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}
