// Package seed replaces the synthetic catalogue with a fresh generation.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"housemarket/internal/model"
	"housemarket/internal/repository"
)

const imagesPerListing = 4

var (
	cities = []string{
		"New York", "Los Angeles", "Chicago", "Houston", "Phoenix",
		"Philadelphia", "San Antonio", "San Diego", "Dallas", "San Jose",
	}
	neighbourhoods = []string{
		"Downtown", "Midtown", "Uptown", "Westside", "Eastside",
		"Northside", "Southside", "Central", "Riverside", "Hillside",
	}
	sampleImages = []string{
		"https://images.unsplash.com/photo-1564013799919-ab600027ffc6?w=400",
		"https://images.unsplash.com/photo-1570129477492-45c003edd2be?w=400",
		"https://images.unsplash.com/photo-1568605114967-8130f3a36994?w=400",
		"https://images.unsplash.com/photo-1560448204-e02f11c3d0e2?w=400",
		"https://images.unsplash.com/photo-1560448075-bb485b067938?w=400",
		"https://images.unsplash.com/photo-1600596542815-ffad4c1539a9?w=400",
		"https://images.unsplash.com/photo-1600607687939-ce8a6c25118c?w=400",
		"https://images.unsplash.com/photo-1613490493576-7fde63acd811?w=400",
		"https://images.unsplash.com/photo-1545324418-cc1a3fa10c00?w=400",
		"https://images.unsplash.com/photo-1502672260266-1c1ef2d93688?w=400",
		"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?w=400",
		"https://images.unsplash.com/photo-1502005229762-cf1b2da7c5d6?w=400",
		"https://images.unsplash.com/photo-1486406146926-c627a92ad1ab?w=400",
		"https://images.unsplash.com/photo-1560448204-603b3fc33ddc?w=400",
		"https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=400",
		"https://images.unsplash.com/photo-1556909114-f6e7ad7d3136?w=400",
		"https://images.unsplash.com/photo-1600607687920-4e2a09cf159d?w=400",
	}
)

// Generator builds synthetic listings.
type Generator struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator seeds the random source. Equal seeds give equal listings
// apart from externalId timestamps.
func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed)), now: time.Now}
}

// Generate returns count external listings owned by ownerID.
func (g *Generator) Generate(ownerID string, count int) []model.Listing {
	stamp := g.now().UnixNano()
	out := make([]model.Listing, 0, count)
	for i := 1; i <= count; i++ {
		city := pick(g.rnd, cities)
		hood := pick(g.rnd, neighbourhoods)
		category := pick(g.rnd, model.Categories)
		typ := model.ListingTypeRent
		if g.rnd.Intn(2) == 1 {
			typ = model.ListingTypeSell
		}

		var price int64
		if typ == model.ListingTypeRent {
			price = g.rnd.Int63n(3000) + 800
		} else {
			price = g.rnd.Int63n(800000) + 200000
		}
		bedrooms := g.rnd.Intn(4) + 1
		bathrooms := g.rnd.Intn(3) + 1
		area := float64(g.rnd.Intn(2000) + 500)

		purpose := "renting"
		if typ == model.ListingTypeSell {
			purpose = "buying"
		}
		externalID := fmt.Sprintf("sample_%d_%d", i, stamp)

		out = append(out, model.Listing{
			Title: fmt.Sprintf("%d Bedroom %s in %s", bedrooms, category, hood),
			Description: fmt.Sprintf(
				"Beautiful %s located in the heart of %s, %s. This %d-bedroom, %d-bathroom property features modern amenities, spacious rooms, and a prime location. Perfect for %s!",
				strings.ToLower(category), hood, city, bedrooms, bathrooms, purpose),
			Price:             decimal.NewFromInt(price),
			Location:          fmt.Sprintf("%s, %s", hood, city),
			Images:            g.images(),
			OwnerID:           ownerID,
			Category:          category,
			Type:              typ,
			Bedrooms:          bedrooms,
			Bathrooms:         bathrooms,
			Area:              area,
			IsExternalListing: true,
			ExternalID:        &externalID,
			LastUpdated:       g.now().UTC(),
		})
	}
	return out
}

func (g *Generator) images() []string {
	idx := g.rnd.Perm(len(sampleImages))[:imagesPerListing]
	urls := make([]string, 0, imagesPerListing)
	for _, i := range idx {
		urls = append(urls, sampleImages[i])
	}
	return urls
}

func pick(rnd *rand.Rand, values []string) string {
	return values[rnd.Intn(len(values))]
}

// Runner replaces the external catalogue.
type Runner struct {
	users     repository.UserRepository
	listings  repository.ListingRepository
	generator *Generator
	log       *zap.Logger
}

// NewRunner builds a Runner.
func NewRunner(users repository.UserRepository, listings repository.ListingRepository, generator *Generator, log *zap.Logger) *Runner {
	return &Runner{users: users, listings: listings, generator: generator, log: log.Named("seed")}
}

// Result summarises a run.
type Result struct {
	OwnerID  string
	Deleted  int64
	Inserted int
}

// Run makes sure the seed owner exists, deletes every external listing and
// inserts count new ones.
func (r *Runner) Run(ctx context.Context, ownerUsername, ownerEmail string, count int) (Result, error) {
	owner, err := r.ensureOwner(ctx, ownerUsername, ownerEmail)
	if err != nil {
		return Result{}, err
	}

	listings := r.generator.Generate(owner.ID, count)
	deleted, err := r.listings.ReplaceExternal(ctx, listings)
	if err != nil {
		return Result{}, fmt.Errorf("replace external listings: %w", err)
	}
	r.log.Info("seeded listings",
		zap.String("owner_id", owner.ID),
		zap.Int64("deleted", deleted),
		zap.Int("inserted", len(listings)))
	return Result{OwnerID: owner.ID, Deleted: deleted, Inserted: len(listings)}, nil
}

func (r *Runner) ensureOwner(ctx context.Context, username, email string) (*model.User, error) {
	owner, err := r.users.FindByUsername(ctx, username)
	if err == nil {
		return owner, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find seed owner: %w", err)
	}

	// nobody knows this password, so the account cannot log in
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed owner password: %w", err)
	}
	owner = &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		PhoneNumber:  "+10000000000",
		FirstName:    "Sample",
		LastName:     "Listings",
	}
	if err := r.users.Create(ctx, owner); err != nil {
		return nil, fmt.Errorf("create seed owner: %w", err)
	}
	r.log.Info("created seed owner", zap.String("user_id", owner.ID))
	return owner, nil
}
