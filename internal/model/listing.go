package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// prices are rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// ListingType is either Rent or Sell.
type ListingType string

const (
	ListingTypeRent ListingType = "Rent"
	ListingTypeSell ListingType = "Sell"
)

// Valid reports whether t is a known listing type.
func (t ListingType) Valid() bool {
	return t == ListingTypeRent || t == ListingTypeSell
}

// Known listing categories. Category is free text; these are the values the UI offers.
var Categories = []string{"Apartment", "Villa", "Normal House", "Commercial", "Condominium"}

// Price limits. MaxPriceDigits matches the decimal128 coefficient.
const (
	PriceScale       = 2
	MaxPriceDigits   = 34
	maxPriceExponent = 34
)

// MaxPrice is the exclusive upper bound of the decimal(14,2) price column.
var MaxPrice = decimal.New(1, 12)

// ValidPriceBound reports whether p can be used as a price filter bound
// against every supported store.
func ValidPriceBound(p decimal.Decimal) bool {
	if p.IsNegative() {
		return false
	}
	exp := p.Exponent()
	return exp >= -maxPriceExponent && exp <= maxPriceExponent && p.NumDigits() <= MaxPriceDigits
}

// ValidPrice reports whether p can be stored as a listing price.
func ValidPrice(p decimal.Decimal) bool {
	return ValidPriceBound(p) && p.LessThan(MaxPrice) && p.Equal(p.Truncate(PriceScale))
}

// MaxListingImages is the number of images a listing may carry at creation.
const MaxListingImages = 5

// Listing represents a property offered for rent or sale.
type Listing struct {
	ID                string          `json:"id" gorm:"type:char(36);primaryKey"`
	Title             string          `json:"title" gorm:"size:255;not null"`
	Description       string          `json:"description" gorm:"type:text;not null"`
	Price             decimal.Decimal `json:"price" gorm:"type:decimal(14,2);not null;index"`
	Location          string          `json:"location" gorm:"size:255;not null"`
	Images            []string        `json:"images" gorm:"serializer:json;type:text"`
	OwnerID           string          `json:"ownerId" gorm:"type:char(36);not null;index"`
	Owner             *OwnerSummary   `json:"owner,omitempty" gorm:"-"`
	Category          string          `json:"category" gorm:"size:64;not null;index"`
	Type              ListingType     `json:"type" gorm:"size:8;not null;index"`
	Bedrooms          int             `json:"bedrooms" gorm:"not null"`
	Bathrooms         int             `json:"bathrooms" gorm:"not null"`
	Area              float64         `json:"area" gorm:"not null"`
	IsExternalListing bool            `json:"isExternalListing" gorm:"not null;index"`
	ExternalID        *string         `json:"externalId,omitempty" gorm:"size:128;uniqueIndex"`
	LastUpdated       time.Time       `json:"lastUpdated"`
	CreatedAt         time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Page is the pagination envelope returned by list and filter queries.
type Page struct {
	Items       []Listing `json:"items"`
	TotalItems  int64     `json:"totalItems"`
	CurrentPage int       `json:"currentPage"`
	TotalPages  int       `json:"totalPages"`
}
