package repository

import (
	"context"

	"gorm.io/gorm"

	"housemarket/internal/model"
)

const insertBatchSize = 100

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository builds a GORM-backed listing repository.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *model.Listing) error {
	return translateGormError(r.db.WithContext(ctx).Create(listing).Error)
}

// Update writes every column of the listing. The row must already exist.
func (r *listingRepository) Update(ctx context.Context, listing *model.Listing) error {
	res := r.db.WithContext(ctx).Model(listing).Select("*").Omit("ID", "CreatedAt").Updates(listing)
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *listingRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Listing{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *listingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	var listing model.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &listing, nil
}

func (r *listingRepository) Find(ctx context.Context, filter ListingFilter, skip, limit int) ([]model.Listing, error) {
	listings := []model.Listing{}
	err := applyListingFilter(r.db.WithContext(ctx), filter).
		Order("created_at ASC").
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) Count(ctx context.Context, filter ListingFilter) (int64, error) {
	var total int64
	if err := applyListingFilter(r.db.WithContext(ctx).Model(&model.Listing{}), filter).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *listingRepository) FindByOwner(ctx context.Context, ownerID string) ([]model.Listing, error) {
	listings := []model.Listing{}
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) ReplaceExternal(ctx context.Context, listings []model.Listing) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("is_external_listing = ?", true).Delete(&model.Listing{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		if len(listings) == 0 {
			return nil
		}
		return tx.CreateInBatches(&listings, insertBatchSize).Error
	})
	if err != nil {
		return 0, translateGormError(err)
	}
	return deleted, nil
}

func applyListingFilter(q *gorm.DB, filter ListingFilter) *gorm.DB {
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", string(filter.Type))
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	return q
}
