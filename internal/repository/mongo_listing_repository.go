package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"housemarket/internal/model"
)

const listingsCollection = "listings"

var listingOrder = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

type listingDocument struct {
	ID                string               `bson:"_id"`
	Title             string               `bson:"title"`
	Description       string               `bson:"description"`
	Price             primitive.Decimal128 `bson:"price"`
	Location          string               `bson:"location"`
	Images            []string             `bson:"images"`
	OwnerID           string               `bson:"owner"`
	Category          string               `bson:"category"`
	Type              string               `bson:"type"`
	Bedrooms          int                  `bson:"bedrooms"`
	Bathrooms         int                  `bson:"bathrooms"`
	Area              float64              `bson:"area"`
	IsExternalListing bool                 `bson:"isExternalListing"`
	ExternalID        *string              `bson:"externalId,omitempty"`
	LastUpdated       time.Time            `bson:"lastUpdated"`
	CreatedAt         time.Time            `bson:"createdAt"`
	UpdatedAt         time.Time            `bson:"updatedAt"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert price %s: %w", d.String(), err)
	}
	return v, nil
}

func newListingDocument(l *model.Listing) (listingDocument, error) {
	price, err := toDecimal128(l.Price)
	if err != nil {
		return listingDocument{}, err
	}
	images := l.Images
	if images == nil {
		images = []string{}
	}
	return listingDocument{
		ID:                l.ID,
		Title:             l.Title,
		Description:       l.Description,
		Price:             price,
		Location:          l.Location,
		Images:            images,
		OwnerID:           l.OwnerID,
		Category:          l.Category,
		Type:              string(l.Type),
		Bedrooms:          l.Bedrooms,
		Bathrooms:         l.Bathrooms,
		Area:              l.Area,
		IsExternalListing: l.IsExternalListing,
		ExternalID:        l.ExternalID,
		LastUpdated:       l.LastUpdated,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}, nil
}

func (d listingDocument) toModel() (model.Listing, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return model.Listing{}, fmt.Errorf("listing %s: parse price: %w", d.ID, err)
	}
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return model.Listing{
		ID:                d.ID,
		Title:             d.Title,
		Description:       d.Description,
		Price:             price,
		Location:          d.Location,
		Images:            images,
		OwnerID:           d.OwnerID,
		Category:          d.Category,
		Type:              model.ListingType(d.Type),
		Bedrooms:          d.Bedrooms,
		Bathrooms:         d.Bathrooms,
		Area:              d.Area,
		IsExternalListing: d.IsExternalListing,
		ExternalID:        d.ExternalID,
		LastUpdated:       d.LastUpdated,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}, nil
}

type mongoListingRepository struct {
	collection *mongo.Collection
}

// NewMongoListingRepository builds a MongoDB-backed listing repository and
// makes sure the query indexes exist.
func NewMongoListingRepository(ctx context.Context, db *mongo.Database, log *zap.Logger) ListingRepository {
	coll := db.Collection(listingsCollection)
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "category", Value: 1}}},
		{Keys: listingOrder},
		{Keys: bson.D{{Key: "isExternalListing", Value: 1}}},
		{Keys: bson.D{{Key: "externalId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	if err != nil {
		log.Warn("failed to create listing indexes", zap.Error(err))
	}
	return &mongoListingRepository{collection: coll}
}

func (r *mongoListingRepository) Create(ctx context.Context, listing *model.Listing) error {
	stampNew(listing, time.Now().UTC())
	doc, err := newListingDocument(listing)
	if err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return translateMongoError(err)
	}
	return nil
}

func (r *mongoListingRepository) Update(ctx context.Context, listing *model.Listing) error {
	listing.UpdatedAt = time.Now().UTC()
	doc, err := newListingDocument(listing)
	if err != nil {
		return err
	}
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": listing.ID}, doc)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoListingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	var doc listingDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	listing, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *mongoListingRepository) Find(ctx context.Context, filter ListingFilter, skip, limit int) ([]model.Listing, error) {
	query, err := mongoListingQuery(filter)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(listingOrder).SetSkip(int64(skip)).SetLimit(int64(limit))
	return r.find(ctx, query, opts)
}

func (r *mongoListingRepository) Count(ctx context.Context, filter ListingFilter) (int64, error) {
	query, err := mongoListingQuery(filter)
	if err != nil {
		return 0, err
	}
	return r.collection.CountDocuments(ctx, query)
}

func (r *mongoListingRepository) FindByOwner(ctx context.Context, ownerID string) ([]model.Listing, error) {
	return r.find(ctx, bson.M{"owner": ownerID}, options.Find().SetSort(listingOrder))
}

func (r *mongoListingRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]model.Listing, error) {
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	listings := make([]model.Listing, 0, len(docs))
	for _, d := range docs {
		l, err := d.toModel()
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// ReplaceExternal is not atomic on a standalone server. Readers may briefly
// observe the catalogue without external listings.
func (r *mongoListingRepository) ReplaceExternal(ctx context.Context, listings []model.Listing) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"isExternalListing": true})
	if err != nil {
		return 0, fmt.Errorf("delete external listings: %w", err)
	}
	if len(listings) == 0 {
		return res.DeletedCount, nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(listings))
	for i := range listings {
		stampNew(&listings[i], now)
		doc, err := newListingDocument(&listings[i])
		if err != nil {
			return res.DeletedCount, err
		}
		docs = append(docs, doc)
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return res.DeletedCount, fmt.Errorf("insert external listings: %w", translateMongoError(err))
	}
	return res.DeletedCount, nil
}

func stampNew(l *model.Listing, now time.Time) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	if l.LastUpdated.IsZero() {
		l.LastUpdated = now
	}
}

func mongoListingQuery(filter ListingFilter) (bson.M, error) {
	query := bson.M{}
	price := bson.M{}
	if filter.MinPrice != nil {
		v, err := toDecimal128(*filter.MinPrice)
		if err != nil {
			return nil, err
		}
		price["$gte"] = v
	}
	if filter.MaxPrice != nil {
		v, err := toDecimal128(*filter.MaxPrice)
		if err != nil {
			return nil, err
		}
		price["$lte"] = v
	}
	if len(price) > 0 {
		query["price"] = price
	}
	if filter.Type != "" {
		query["type"] = string(filter.Type)
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	return query, nil
}
