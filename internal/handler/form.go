package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"housemarket/internal/errors"
	"housemarket/internal/service"
	"housemarket/internal/storage"
)

// formValues returns the urlencoded or multipart values of the request.
func formValues(c echo.Context) (url.Values, error) {
	values, err := c.FormParams()
	if err != nil {
		return nil, errors.Validation("invalid form body")
	}
	return values, nil
}

// optional returns a pointer to the first value of key, or nil if the key
// was not sent.
func optional(values url.Values, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	s := v[0]
	return &s
}

// uploads reads every file sent under field. Non-multipart requests carry none.
func uploads(c echo.Context, field string) ([]storage.Upload, error) {
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.Validation("invalid multipart body")
	}
	headers := form.File[field]
	out := make([]storage.Upload, 0, len(headers))
	for _, fh := range headers {
		u, err := readUpload(field, fh)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func readUpload(field string, fh *multipart.FileHeader) (storage.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.Upload{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return storage.Upload{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return storage.Upload{
		Field:       field,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Data:        data,
	}, nil
}

func listingFields(values url.Values) service.ListingFields {
	return service.ListingFields{
		Title:       optional(values, "title"),
		Description: optional(values, "description"),
		Price:       optional(values, "price"),
		Location:    optional(values, "location"),
		Category:    optional(values, "category"),
		Type:        optional(values, "type"),
		Bedrooms:    optional(values, "bedrooms"),
		Bathrooms:   optional(values, "bathrooms"),
		Area:        optional(values, "area"),
	}
}

// pageQuery reads page and limit. Only parameters that are sent override
// the defaults.
func pageQuery(c echo.Context) (service.PageQuery, error) {
	var (
		q           service.PageQuery
		page, limit int
	)
	err := echo.QueryParamsBinder(c).
		Int("page", &page).
		Int("limit", &limit).
		BindError()
	if err != nil {
		field := "page"
		if be, ok := err.(*echo.BindingError); ok && be.Field != "" {
			field = be.Field
		}
		return q, errors.Validation(field+" must be an integer", field)
	}
	if c.QueryParam("page") != "" {
		q.Page = &page
	}
	if c.QueryParam("limit") != "" {
		q.Limit = &limit
	}
	return q, nil
}
