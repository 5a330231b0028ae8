package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"housemarket/internal/config"
	"housemarket/internal/db"
)

// Store bundles the repositories of one backend.
type Store struct {
	Users    UserRepository
	Listings ListingRepository
	close    func(ctx context.Context) error
}

// Close releases the backend connection.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// NewGormStore wraps an open GORM connection. The caller owns migrations.
func NewGormStore(gormDB *gorm.DB) *Store {
	return &Store{
		Users:    NewUserRepository(gormDB),
		Listings: NewListingRepository(gormDB),
		close: func(context.Context) error {
			sqlDB, err := gormDB.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

// Open connects to the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		gormDB, err := db.NewMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(gormDB); err != nil {
			return nil, err
		}
		log.Info("using mysql store")
		return NewGormStore(gormDB), nil
	case config.StoreMongo:
		client, err := db.NewMongo(cfg.MongoURI, cfg.MongoConnectTimeout)
		if err != nil {
			return nil, err
		}
		database := client.Database(cfg.MongoDatabase)
		log.Info("using mongo store", zap.String("database", cfg.MongoDatabase))
		return &Store{
			Users:    NewMongoUserRepository(ctx, database, log),
			Listings: NewMongoListingRepository(ctx, database, log),
			close:    client.Disconnect,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
