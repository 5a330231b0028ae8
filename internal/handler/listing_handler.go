package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"housemarket/internal/auth"
	"housemarket/internal/errors"
	"housemarket/internal/model"
	"housemarket/internal/service"
)

// ListingHandler serves the /houses endpoints.
type ListingHandler struct {
	svc service.ListingService
}

// NewListingHandler creates a listing handler.
func NewListingHandler(svc service.ListingService) *ListingHandler {
	return &ListingHandler{svc: svc}
}

// ListingResponse wraps a created or edited listing.
type ListingResponse struct {
	Message string         `json:"message"`
	House   *model.Listing `json:"house"`
}

// List godoc
// @Summary List all listings
// @Tags houses
// @Produce json
// @Param page query int false "Page number, starting at 1"
// @Param limit query int false "Page size"
// @Success 200 {object} model.Page
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /houses/get [get]
func (h *ListingHandler) List(c echo.Context) error {
	q, err := pageQuery(c)
	if err != nil {
		return errors.ToHTTP(err)
	}
	page, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		return errors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, page)
}

// Filter godoc
// @Summary Filter listings
// @Tags houses
// @Produce json
// @Param priceRange query string false "Inclusive price range, min-max"
// @Param type query string false "Rent or Sell"
// @Param category query string false "Category"
// @Param page query int false "Page number, starting at 1"
// @Param limit query int false "Page size"
// @Success 200 {object} model.Page
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /houses/filter [get]
func (h *ListingHandler) Filter(c echo.Context) error {
	pq, err := pageQuery(c)
	if err != nil {
		return errors.ToHTTP(err)
	}
	page, err := h.svc.Filter(c.Request().Context(), service.FilterQuery{
		PageQuery:  pq,
		PriceRange: c.QueryParam("priceRange"),
		Type:       c.QueryParam("type"),
		Category:   c.QueryParam("category"),
	})
	if err != nil {
		return errors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, page)
}

// Get godoc
// @Summary Get a listing with its owner
// @Tags houses
// @Produce json
// @Param id path string true "Listing ID"
// @Success 200 {object} model.Listing
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /houses/{id} [get]
func (h *ListingHandler) Get(c echo.Context) error {
	listing, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, listing)
}

// Create godoc
// @Summary Create a listing
// @Tags houses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param price formData number true "Price"
// @Param location formData string true "Location"
// @Param category formData string true "Category"
// @Param type formData string true "Rent or Sell"
// @Param bedrooms formData int false "Bedrooms"
// @Param bathrooms formData int false "Bathrooms"
// @Param area formData number false "Area"
// @Param images formData file false "Up to 5 images"
// @Success 201 {object} ListingResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /houses/add [post]
func (h *ListingHandler) Create(c echo.Context) error {
	values, err := formValues(c)
	if err != nil {
		return errors.ToHTTP(err)
	}
	images, err := uploads(c, "images")
	if err != nil {
		return errors.ToHTTP(err)
	}

	listing, err := h.svc.Create(c.Request().Context(), auth.CallerID(c), listingFields(values), images)
	if err != nil {
		return errors.ToHTTP(err)
	}
	return c.JSON(http.StatusCreated, ListingResponse{Message: "listing created successfully", House: listing})
}

// Edit godoc
// @Summary Edit a listing you own
// @Description Sent fields replace stored values. imagesToRemove drops URLs and new images are appended.
// @Tags houses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Param title formData string false "Title"
// @Param description formData string false "Description"
// @Param price formData number false "Price"
// @Param location formData string false "Location"
// @Param category formData string false "Category"
// @Param type formData string false "Rent or Sell"
// @Param bedrooms formData int false "Bedrooms"
// @Param bathrooms formData int false "Bathrooms"
// @Param area formData number false "Area"
// @Param imagesToRemove formData []string false "Image URLs to remove" collectionFormat(multi)
// @Param images formData file false "New images"
// @Success 200 {object} ListingResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /houses/edit/{id} [put]
func (h *ListingHandler) Edit(c echo.Context) error {
	values, err := formValues(c)
	if err != nil {
		return errors.ToHTTP(err)
	}
	images, err := uploads(c, "images")
	if err != nil {
		return errors.ToHTTP(err)
	}
	remove := append(append([]string{}, values["imagesToRemove"]...), values["imagesToRemove[]"]...)

	listing, err := h.svc.Edit(c.Request().Context(), auth.CallerID(c), c.Param("id"), listingFields(values), remove, images)
	if err != nil {
		return errors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, ListingResponse{Message: "listing updated successfully", House: listing})
}

// Delete godoc
// @Summary Delete a listing you own
// @Tags houses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Listing ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /houses/delete/{id} [delete]
func (h *ListingHandler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), auth.CallerID(c), c.Param("id")); err != nil {
		return errors.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "listing deleted successfully"})
}
