package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "housemarket/internal/errors"
	"housemarket/internal/events"
	"housemarket/internal/metrics"
	"housemarket/internal/model"
	"housemarket/internal/repository"
	"housemarket/internal/storage"
)

const (
	defaultBedrooms  = 1
	defaultBathrooms = 1
)

// PageQuery is the pagination part of a listing query. Nil means the
// parameter was absent.
type PageQuery struct {
	Page  *int
	Limit *int
}

// FilterQuery is a filtered listing query. Empty strings do not constrain.
type FilterQuery struct {
	PageQuery
	PriceRange string
	Type       string
	Category   string
}

// ListingFields carries the form values of a create or edit request. A nil
// field was absent from the request.
type ListingFields struct {
	Title       *string
	Description *string
	Price       *string
	Location    *string
	Category    *string
	Type        *string
	Bedrooms    *string
	Bathrooms   *string
	Area        *string
}

// blankRequired names the required fields that are blank. Absent fields
// count as blank only when absentIsBlank is set.
func (f ListingFields) blankRequired(absentIsBlank bool) []string {
	var blank []string
	for _, field := range []struct {
		name  string
		value *string
	}{
		{"title", f.Title},
		{"description", f.Description},
		{"price", f.Price},
		{"location", f.Location},
		{"category", f.Category},
		{"type", f.Type},
	} {
		if field.value == nil {
			if absentIsBlank {
				blank = append(blank, field.name)
			}
			continue
		}
		if strings.TrimSpace(*field.value) == "" {
			blank = append(blank, field.name)
		}
	}
	return blank
}

// ListingOptions tunes paging and edit rules.
type ListingOptions struct {
	DefaultPageSize       int
	MaxPageSize           int
	EnforceImageCapOnEdit bool
}

// ListingService exposes listing queries and owner-scoped mutations.
type ListingService interface {
	List(ctx context.Context, q PageQuery) (*model.Page, error)
	Filter(ctx context.Context, q FilterQuery) (*model.Page, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
	Create(ctx context.Context, callerID string, fields ListingFields, images []storage.Upload) (*model.Listing, error)
	Edit(ctx context.Context, callerID, id string, fields ListingFields, imagesToRemove []string, images []storage.Upload) (*model.Listing, error)
	Delete(ctx context.Context, callerID, id string) error
}

type listingService struct {
	listings  repository.ListingRepository
	users     repository.UserRepository
	images    storage.ImageStore
	publisher events.Publisher
	metrics   *metrics.Manager
	opts      ListingOptions
	log       *zap.Logger
}

// NewListingService builds a ListingService.
func NewListingService(
	listings repository.ListingRepository,
	users repository.UserRepository,
	images storage.ImageStore,
	publisher events.Publisher,
	m *metrics.Manager,
	opts ListingOptions,
	log *zap.Logger,
) ListingService {
	if opts.DefaultPageSize < 1 {
		opts.DefaultPageSize = 20
	}
	if opts.MaxPageSize < opts.DefaultPageSize {
		opts.MaxPageSize = opts.DefaultPageSize
	}
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &listingService{
		listings:  listings,
		users:     users,
		images:    images,
		publisher: publisher,
		metrics:   m,
		opts:      opts,
		log:       log.Named("listing_service"),
	}
}

func (s *listingService) List(ctx context.Context, q PageQuery) (*model.Page, error) {
	return s.page(ctx, repository.ListingFilter{}, q)
}

func (s *listingService) Filter(ctx context.Context, q FilterQuery) (*model.Page, error) {
	filter := repository.ListingFilter{
		Type:     model.ListingType(strings.TrimSpace(q.Type)),
		Category: strings.TrimSpace(q.Category),
	}
	if raw := strings.TrimSpace(q.PriceRange); raw != "" {
		lo, hi, err := ParsePriceRange(raw)
		if err != nil {
			return nil, err
		}
		filter.MinPrice, filter.MaxPrice = &lo, &hi
	}
	return s.page(ctx, filter, q.PageQuery)
}

func (s *listingService) page(ctx context.Context, filter repository.ListingFilter, q PageQuery) (*model.Page, error) {
	page, limit := s.normalizePage(q)

	total, err := s.listings.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}
	items := []model.Listing{}
	if offset, ok := pageOffset(page, limit, total); ok {
		items, err = s.listings.Find(ctx, filter, offset, limit)
		if err != nil {
			return nil, fmt.Errorf("find listings: %w", err)
		}
		if err := s.attachOwners(ctx, items); err != nil {
			return nil, err
		}
	}

	return &model.Page{
		Items:       items,
		TotalItems:  total,
		CurrentPage: page,
		TotalPages:  TotalPages(total, limit),
	}, nil
}

// pageOffset returns the number of rows to skip for page, and false when
// the page starts past the last row.
func pageOffset(page, limit int, total int64) (int, bool) {
	if page < 1 || limit < 1 || page-1 > math.MaxInt/limit {
		return 0, false
	}
	offset := (page - 1) * limit
	if int64(offset) >= total {
		return 0, false
	}
	return offset, true
}

func (s *listingService) normalizePage(q PageQuery) (int, int) {
	page, limit := 1, s.opts.DefaultPageSize
	if q.Page != nil {
		page = *q.Page
	}
	if q.Limit != nil {
		limit = *q.Limit
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > s.opts.MaxPageSize {
		limit = s.opts.MaxPageSize
	}
	return page, limit
}

// attachOwners resolves every distinct owner of items in one lookup.
// Listings whose owner no longer exists keep a nil Owner.
func (s *listingService) attachOwners(ctx context.Context, items []model.Listing) error {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, l := range items {
		if _, ok := seen[l.OwnerID]; !ok {
			seen[l.OwnerID] = struct{}{}
			ids = append(ids, l.OwnerID)
		}
	}
	owners, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve owners: %w", err)
	}
	byID := make(map[string]*model.User, len(owners))
	for i := range owners {
		byID[owners[i].ID] = &owners[i]
	}
	for i := range items {
		if u, ok := byID[items[i].OwnerID]; ok {
			items[i].Owner = u.Summary()
		}
	}
	return nil
}

func (s *listingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.FindByID(ctx, listing.OwnerID)
	switch {
	case err == nil:
		listing.Owner = owner.Detail()
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("resolve owner: %w", err)
	}
	return listing, nil
}

func (s *listingService) find(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("listing not found")
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return listing, nil
}

func (s *listingService) Create(ctx context.Context, callerID string, fields ListingFields, images []storage.Upload) (*model.Listing, error) {
	if missing := fields.blankRequired(true); len(missing) > 0 {
		return nil, apperrors.Validation("", missing...)
	}
	if len(images) > model.MaxListingImages {
		return nil, apperrors.Validation(fmt.Sprintf("a listing can have at most %d images", model.MaxListingImages), "images")
	}

	listing := &model.Listing{
		OwnerID:   callerID,
		Bedrooms:  defaultBedrooms,
		Bathrooms: defaultBathrooms,
		Images:    []string{},
	}
	if err := applyFields(listing, fields); err != nil {
		return nil, err
	}

	urls, err := s.store(ctx, images)
	if err != nil {
		return nil, err
	}
	listing.Images = append(listing.Images, urls...)
	listing.LastUpdated = time.Now().UTC()

	if err := s.listings.Create(ctx, listing); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("listing already exists")
		}
		return nil, fmt.Errorf("create listing: %w", err)
	}

	s.metrics.ListingCreated()
	s.publish(ctx, events.SubjectListingCreated, listing)
	return listing, nil
}

func (s *listingService) Edit(ctx context.Context, callerID, id string, fields ListingFields, imagesToRemove []string, images []storage.Upload) (*model.Listing, error) {
	listing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != callerID {
		return nil, apperrors.Forbidden("you can only edit your own listings")
	}

	if empty := fields.blankRequired(false); len(empty) > 0 {
		return nil, apperrors.Validation("", empty...)
	}
	if err := applyFields(listing, fields); err != nil {
		return nil, err
	}

	kept := RemoveImages(listing.Images, imagesToRemove)
	if s.opts.EnforceImageCapOnEdit && len(kept)+len(images) > model.MaxListingImages {
		return nil, apperrors.Validation(fmt.Sprintf("a listing can have at most %d images", model.MaxListingImages), "images")
	}

	urls, err := s.store(ctx, images)
	if err != nil {
		return nil, err
	}
	listing.Images = append(kept, urls...)
	listing.LastUpdated = time.Now().UTC()
	listing.Owner = nil

	if err := s.listings.Update(ctx, listing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("listing not found")
		}
		return nil, fmt.Errorf("update listing: %w", err)
	}

	s.metrics.ListingUpdated()
	s.publish(ctx, events.SubjectListingUpdated, listing)
	return listing, nil
}

func (s *listingService) Delete(ctx context.Context, callerID, id string) error {
	listing, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if listing.OwnerID != callerID {
		return apperrors.Forbidden("you can only delete your own listings")
	}
	if err := s.listings.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("listing not found")
		}
		return fmt.Errorf("delete listing: %w", err)
	}

	s.metrics.ListingDeleted()
	s.publish(ctx, events.SubjectListingDeleted, listing)
	return nil
}

func (s *listingService) store(ctx context.Context, uploads []storage.Upload) ([]string, error) {
	urls := make([]string, 0, len(uploads))
	for _, u := range uploads {
		url, err := s.images.Save(ctx, u)
		if err != nil {
			if errors.Is(err, apperrors.ErrValidation) {
				return nil, err
			}
			return nil, fmt.Errorf("store image %s: %w", u.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// publish never fails the request. Delivery problems are only logged.
func (s *listingService) publish(ctx context.Context, subject string, l *model.Listing) {
	evt := events.ListingEvent{
		ListingID:  l.ID,
		OwnerID:    l.OwnerID,
		Type:       string(l.Type),
		Category:   l.Category,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, subject, evt); err != nil {
		s.log.Warn("failed to publish listing event",
			zap.String("subject", subject),
			zap.String("listing_id", l.ID),
			zap.Error(err))
	}
}

// applyFields parses the present fields onto l. Malformed values are
// reported together.
func applyFields(l *model.Listing, f ListingFields) error {
	var invalid []string
	if f.Title != nil {
		l.Title = strings.TrimSpace(*f.Title)
	}
	if f.Description != nil {
		l.Description = strings.TrimSpace(*f.Description)
	}
	if f.Location != nil {
		l.Location = strings.TrimSpace(*f.Location)
	}
	if f.Category != nil {
		l.Category = strings.TrimSpace(*f.Category)
	}
	if f.Type != nil {
		t := model.ListingType(strings.TrimSpace(*f.Type))
		if t.Valid() {
			l.Type = t
		} else {
			invalid = append(invalid, "type")
		}
	}
	if f.Price != nil {
		price, err := decimal.NewFromString(strings.TrimSpace(*f.Price))
		if err != nil || !model.ValidPrice(price) {
			invalid = append(invalid, "price")
		} else {
			l.Price = price
		}
	}
	if f.Bedrooms != nil {
		if n, ok := parseCount(*f.Bedrooms); ok {
			l.Bedrooms = n
		} else {
			invalid = append(invalid, "bedrooms")
		}
	}
	if f.Bathrooms != nil {
		if n, ok := parseCount(*f.Bathrooms); ok {
			l.Bathrooms = n
		} else {
			invalid = append(invalid, "bathrooms")
		}
	}
	if f.Area != nil {
		area, err := strconv.ParseFloat(strings.TrimSpace(*f.Area), 64)
		if err != nil || area < 0 {
			invalid = append(invalid, "area")
		} else {
			l.Area = area
		}
	}
	if len(invalid) > 0 {
		return apperrors.Validation("invalid values for: "+strings.Join(invalid, ", "), invalid...)
	}
	return nil
}

func parseCount(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ParsePriceRange parses "min-max" into inclusive decimal bounds.
func ParsePriceRange(raw string) (decimal.Decimal, decimal.Decimal, error) {
	parts := strings.Split(raw, "-")
	if len(parts) != 2 {
		return decimal.Zero, decimal.Zero, apperrors.Validation(`priceRange must look like "min-max"`, "priceRange")
	}
	lo, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
	if err != nil {
		return decimal.Zero, decimal.Zero, apperrors.Validation("priceRange minimum is not a number", "priceRange")
	}
	hi, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		return decimal.Zero, decimal.Zero, apperrors.Validation("priceRange maximum is not a number", "priceRange")
	}
	if !model.ValidPriceBound(lo) || !model.ValidPriceBound(hi) {
		return decimal.Zero, decimal.Zero, apperrors.Validation("priceRange bound is out of range", "priceRange")
	}
	return lo, hi, nil
}

// TotalPages is ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit < 1 || total <= 0 {
		return 0
	}
	l := int64(limit)
	return int((total + l - 1) / l)
}

// RemoveImages returns images without any URL in remove, keeping order.
func RemoveImages(images, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, r := range remove {
		drop[r] = struct{}{}
	}
	kept := make([]string, 0, len(images))
	for _, img := range images {
		if _, ok := drop[img]; !ok {
			kept = append(kept, img)
		}
	}
	return kept
}
