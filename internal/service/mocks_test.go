package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"housemarket/internal/model"
	"housemarket/internal/repository"
	"housemarket/internal/storage"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfileImage(ctx context.Context, id, imageURL string) error {
	args := m.Called(ctx, id, imageURL)
	return args.Error(0)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID, userID, email string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, email, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (string, string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// memListings is an in-memory ListingRepository ordered like the real stores.
type memListings struct {
	mu    sync.Mutex
	rows  map[string]model.Listing
	clock time.Time
}

func newMemListings() *memListings {
	return &memListings{
		rows:  map[string]model.Listing{},
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *memListings) Create(_ context.Context, l *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		r.clock = r.clock.Add(time.Second)
		l.CreatedAt = r.clock
	}
	row := *l
	row.Images = append([]string(nil), l.Images...)
	row.Owner = nil
	r.rows[l.ID] = row
	return nil
}

func (r *memListings) Update(_ context.Context, l *model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[l.ID]; !ok {
		return repository.ErrNotFound
	}
	row := *l
	row.Images = append([]string(nil), l.Images...)
	row.Owner = nil
	r.rows[l.ID] = row
	return nil
}

func (r *memListings) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *memListings) FindByID(_ context.Context, id string) (*model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	row.Images = append([]string(nil), row.Images...)
	return &row, nil
}

func (r *memListings) matching(filter repository.ListingFilter) []model.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Listing{}
	for _, l := range r.rows {
		if filter.MinPrice != nil && l.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && l.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		if filter.Type != "" && l.Type != filter.Type {
			continue
		}
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *memListings) Find(_ context.Context, filter repository.ListingFilter, skip, limit int) ([]model.Listing, error) {
	all := r.matching(filter)
	if skip >= len(all) {
		return []model.Listing{}, nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], nil
}

func (r *memListings) Count(_ context.Context, filter repository.ListingFilter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *memListings) FindByOwner(_ context.Context, ownerID string) ([]model.Listing, error) {
	var out []model.Listing
	for _, l := range r.matching(repository.ListingFilter{}) {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memListings) ReplaceExternal(ctx context.Context, listings []model.Listing) (int64, error) {
	r.mu.Lock()
	var deleted int64
	for id, l := range r.rows {
		if l.IsExternalListing {
			delete(r.rows, id)
			deleted++
		}
	}
	r.mu.Unlock()
	for i := range listings {
		if err := r.Create(ctx, &listings[i]); err != nil {
			return 0, err
		}
	}
	return deleted, nil
}

// memUsers is an in-memory UserRepository.
type memUsers struct {
	mu   sync.Mutex
	rows map[string]model.User
}

func newMemUsers(users ...model.User) *memUsers {
	r := &memUsers{rows: map[string]model.User{}}
	for _, u := range users {
		r.rows[u.ID] = u
	}
	return r
}

func (r *memUsers) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Email == u.Email || existing.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	r.rows[u.ID] = *u
	return nil
}

func (r *memUsers) find(match func(model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.rows {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.ID == id })
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r *memUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

func (r *memUsers) FindByIDs(_ context.Context, ids []string) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := r.rows[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *memUsers) UpdateProfileImage(_ context.Context, id, imageURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ProfileImage = &imageURL
	r.rows[id] = u
	return nil
}

// fakeImages returns a URL derived from the upload's filename.
type fakeImages struct {
	err   error
	saved []string
}

func (f *fakeImages) Save(_ context.Context, u storage.Upload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	url := "http://img/" + u.Filename
	f.saved = append(f.saved, url)
	return url, nil
}

// recordingPublisher keeps every subject it is asked to publish.
type recordingPublisher struct {
	err      error
	subjects []string
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *recordingPublisher) Close() {}

var errBrokerDown = errors.New("broker down")
