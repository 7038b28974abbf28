package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	rentalserrors "fairway/internal/rentals/errors"
	"fairway/pkg/config"
	mongotx "fairway/pkg/db/mongo"
	"fairway/pkg/model"
	"fairway/pkg/slot"
)

const (
	CollectionName = "Rentals"
)

type RentalRepository interface {
	Create(ctx context.Context, rental *model.Rental) error
	FindByID(ctx context.Context, id string) (*model.Rental, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Rental, error)
	Count(ctx context.Context) (int64, error)
	// FindConfirmedOverlapping returns confirmed rentals for one cart whose
	// stored block intersects the candidate interval.
	FindConfirmedOverlapping(ctx context.Context, cartID int, candidate slot.Interval) ([]*model.Rental, error)
	// FindConfirmedInWindow is the all-carts variant used by availability.
	FindConfirmedInWindow(ctx context.Context, window slot.Interval) ([]*model.Rental, error)
	// FindActiveAt returns confirmed rentals whose block contains the instant.
	FindActiveAt(ctx context.Context, at time.Time) ([]*model.Rental, error)
	FindActiveForCart(ctx context.Context, cartID int, at time.Time) ([]*model.Rental, error)
	FindByCart(ctx context.Context, cartID int, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Rental, error)
	CountByCart(ctx context.Context, cartID int, startTime, endTime *time.Time) (int64, error)
	// Cancel flips a confirmed rental to cancelled and returns the updated
	// document. Returns ErrAlreadyCancelled or ErrNotFound accordingly.
	Cancel(ctx context.Context, id string) (*model.Rental, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoRentalRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoRentalRepository(cfg *config.Config) RentalRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRentalRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless we are already inside a
// transaction; a SessionContext cannot be wrapped without breaking the
// transaction semantics.
func (r *mongoRentalRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoRentalRepository) Create(ctx context.Context, rental *model.Rental) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	rental.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, rental)
	if err != nil {
		return fmt.Errorf("failed to create rental: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rental.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRentalRepository) FindByID(ctx context.Context, id string) (*model.Rental, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", rentalserrors.ErrInvalidID, id)
	}

	var rental model.Rental
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&rental)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, rentalserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find rental: %w", err)
	}

	return &rental, nil
}

func (r *mongoRentalRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Rental, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rentals: %w", err)
	}
	defer cursor.Close(ctx)

	var rentals []*model.Rental
	if err = cursor.All(ctx, &rentals); err != nil {
		return nil, fmt.Errorf("failed to decode rentals: %w", err)
	}

	return rentals, nil
}

func (r *mongoRentalRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count rentals: %w", err)
	}
	return count, nil
}

func (r *mongoRentalRepository) FindConfirmedOverlapping(ctx context.Context, cartID int, candidate slot.Interval) ([]*model.Rental, error) {
	filter := bson.M{
		"cart_id":    cartID,
		"status":     model.RentalStatusConfirmed,
		"start_time": bson.M{"$lt": candidate.End},
		"block_end":  bson.M{"$gt": candidate.Start},
	}
	return r.find(ctx, filter)
}

func (r *mongoRentalRepository) FindConfirmedInWindow(ctx context.Context, window slot.Interval) ([]*model.Rental, error) {
	filter := bson.M{
		"status":     model.RentalStatusConfirmed,
		"start_time": bson.M{"$lt": window.End},
		"block_end":  bson.M{"$gt": window.Start},
	}
	return r.find(ctx, filter)
}

func (r *mongoRentalRepository) FindActiveAt(ctx context.Context, at time.Time) ([]*model.Rental, error) {
	filter := bson.M{
		"status":     model.RentalStatusConfirmed,
		"start_time": bson.M{"$lte": at},
		"block_end":  bson.M{"$gt": at},
	}
	return r.find(ctx, filter)
}

func (r *mongoRentalRepository) FindActiveForCart(ctx context.Context, cartID int, at time.Time) ([]*model.Rental, error) {
	filter := bson.M{
		"cart_id":    cartID,
		"status":     model.RentalStatusConfirmed,
		"start_time": bson.M{"$lte": at},
		"block_end":  bson.M{"$gt": at},
	}
	return r.find(ctx, filter)
}

func (r *mongoRentalRepository) find(ctx context.Context, filter bson.M) ([]*model.Rental, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rentals: %w", err)
	}
	defer cursor.Close(ctx)

	var rentals []*model.Rental
	if err = cursor.All(ctx, &rentals); err != nil {
		return nil, fmt.Errorf("failed to decode rentals: %w", err)
	}

	return rentals, nil
}

func (r *mongoRentalRepository) FindByCart(ctx context.Context, cartID int, startTime, endTime *time.Time, limit int, offset int64) ([]*model.Rental, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildCartSearchFilter(cartID, startTime, endTime), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search rentals: %w", err)
	}
	defer cursor.Close(ctx)

	var rentals []*model.Rental
	if err = cursor.All(ctx, &rentals); err != nil {
		return nil, fmt.Errorf("failed to decode rentals: %w", err)
	}

	return rentals, nil
}

func (r *mongoRentalRepository) CountByCart(ctx context.Context, cartID int, startTime, endTime *time.Time) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildCartSearchFilter(cartID, startTime, endTime))
	if err != nil {
		return 0, fmt.Errorf("failed to count rentals by cart: %w", err)
	}
	return count, nil
}

func buildCartSearchFilter(cartID int, startTime, endTime *time.Time) bson.M {
	filter := bson.M{"cart_id": cartID}

	switch {
	case startTime != nil && endTime != nil:
		filter["start_time"] = bson.M{"$lt": *endTime}
		filter["block_end"] = bson.M{"$gt": *startTime}
	case startTime != nil:
		filter["block_end"] = bson.M{"$gt": *startTime}
	case endTime != nil:
		filter["start_time"] = bson.M{"$lt": *endTime}
	}

	return filter
}

func (r *mongoRentalRepository) Cancel(ctx context.Context, id string) (*model.Rental, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", rentalserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID, "status": model.RentalStatusConfirmed}
	update := bson.M{"$set": bson.M{"status": model.RentalStatusCancelled}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rental model.Rental
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rental)
	if err == nil {
		return &rental, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to cancel rental: %w", err)
	}

	// No confirmed rental matched; tell already-cancelled apart from missing.
	var existing model.Rental
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&existing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, rentalserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to cancel rental: %w", err)
	}
	return nil, rentalserrors.ErrAlreadyCancelled
}

func (r *mongoRentalRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
