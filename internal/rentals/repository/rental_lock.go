package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	rentalserrors "fairway/internal/rentals/errors"
	"fairway/pkg/config"
	"fairway/pkg/model"
)

const (
	LockCollectionName = "Rental_locks"
)

// RentalLockRepository provides per-cart advisory locks backed by a unique
// _id insert. A duplicate key means another commit attempt holds the lock.
type RentalLockRepository interface {
	Create(ctx context.Context, cartID int) (*model.RentalLock, error)
	Delete(ctx context.Context, lockID string) error
}

type mongoRentalLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRentalLockRepository(cfg *config.Config) RentalLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRentalLockRepository{
		cfg:        cfg,
		collection: db.Collection(LockCollectionName),
	}
}

func LockID(cartID int) string {
	return fmt.Sprintf("cart_lock_%d", cartID)
}

func (r *mongoRentalLockRepository) Create(ctx context.Context, cartID int) (*model.RentalLock, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	lock := &model.RentalLock{
		ID:        LockID(cartID),
		ExpiresAt: now.Add(r.cfg.LockTTL),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, rentalserrors.ErrLockHeld
		}
		return nil, fmt.Errorf("failed to acquire rental lock: %w", err)
	}

	return lock, nil
}

func (r *mongoRentalLockRepository) Delete(ctx context.Context, lockID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	if err != nil {
		return fmt.Errorf("failed to release rental lock: %w", err)
	}
	return nil
}
