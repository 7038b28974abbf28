package model

import "time"

// RentalLock is an advisory lock serializing commit attempts per cart.
// Expired locks are reaped by a TTL index on expires_at.
type RentalLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
