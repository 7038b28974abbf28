package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	cartserrors "fairway/internal/carts/errors"
	"fairway/pkg/config"
	"fairway/pkg/model"
)

const (
	CollectionName = "Carts"
)

type CartRepository interface {
	FindAll(ctx context.Context) ([]*model.Cart, error)
	FindByID(ctx context.Context, id int) (*model.Cart, error)
	// UpdateStatus writes the stored status hint. currentRentalID may be
	// empty to clear the reference.
	UpdateStatus(ctx context.Context, id int, status string, currentRentalID string) error
}

type mongoCartRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCartRepository(cfg *config.Config) CartRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCartRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoCartRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoCartRepository) FindAll(ctx context.Context) ([]*model.Cart, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find carts: %w", err)
	}
	defer cursor.Close(ctx)

	var carts []*model.Cart
	if err = cursor.All(ctx, &carts); err != nil {
		return nil, fmt.Errorf("failed to decode carts: %w", err)
	}

	return carts, nil
}

func (r *mongoCartRepository) FindByID(ctx context.Context, id int) (*model.Cart, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var cart model.Cart
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, cartserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	return &cart, nil
}

func (r *mongoCartRepository) UpdateStatus(ctx context.Context, id int, status string, currentRentalID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":            status,
			"current_rental_id": currentRentalID,
		},
	}
	if currentRentalID == "" {
		update = bson.M{
			"$set":   bson.M{"status": status},
			"$unset": bson.M{"current_rental_id": ""},
		}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update cart status: %w", err)
	}
	if result.MatchedCount == 0 {
		return cartserrors.ErrNotFound
	}

	return nil
}
