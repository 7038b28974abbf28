package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fairway/internal/migrations/mongo/validators"
	"fairway/pkg/model"
)

const (
	DB_NAME = "fairway"
)

var (
	RentalsIndexes = []mongo.IndexModel{
		// Conflict check and availability both range over the stored block.
		{Keys: bson.D{
			{Key: "cart_id", Value: 1},
			{Key: "status", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "block_end", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "start_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "phone", Value: 1}}},
	}

	CartsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	RentalLocksIndexes = []mongo.IndexModel{
		// TTL reaper for locks abandoned by crashed commit attempts.
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	// The five carts of the fleet. Seeded once; operators manage status
	// through the API afterwards.
	SeedCarts = []model.Cart{
		{ID: 1, Name: "Blå 4", Status: model.CartStatusAvailable},
		{ID: 2, Name: "Blå 5", Status: model.CartStatusAvailable},
		{ID: 3, Name: "Grønn", Status: model.CartStatusAvailable},
		{ID: 4, Name: "Hvit", Status: model.CartStatusAvailable},
		{ID: 5, Name: "Svart", Status: model.CartStatusAvailable},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client) error {
	db := client.Database(DB_NAME)
	fmt.Printf("🚀 Running Fairway Mongo migrations on database: %s\n", DB_NAME)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Rentals": {
			Indexes:   RentalsIndexes,
			Validator: validators.RentalValidator,
		},
		"Carts": {
			Indexes:   CartsIndexes,
			Validator: validators.CartValidator,
		},
		"Rental_locks": {
			Indexes:   RentalLocksIndexes,
			Validator: validators.RentalLockValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	if err := seedCarts(ctx, db); err != nil {
		return fmt.Errorf("failed to seed carts: %w", err)
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else {
		fmt.Printf("ℹ️ Collection %s already exists — updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}

func seedCarts(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection("Carts")
	for _, cart := range SeedCarts {
		_, err := coll.InsertOne(ctx, cart)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return err
		}
		fmt.Printf("🛺 Seeded cart %d (%s)\n", cart.ID, cart.Name)
	}
	return nil
}
