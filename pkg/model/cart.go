package model

// Stored cart statuses. Only OutOfOrder is authoritative (as an override);
// Available and Rented are advisory hints kept roughly in sync after commits.
const (
	CartStatusAvailable  = "available"
	CartStatusRented     = "rented"
	CartStatusOutOfOrder = "out_of_order"
)

// Projected cart states, derived from the rental set at a given instant.
const (
	CartStateAvailable  = "available"
	CartStateRented     = "rented"
	CartStateCharging   = "charging"
	CartStateOutOfOrder = "out_of_order"
)

type Cart struct {
	ID              int    `json:"id" bson:"_id" validate:"required,min=1"`
	Name            string `json:"name" bson:"name" validate:"required,min=1,max=50"`
	Status          string `json:"status" bson:"status" validate:"required,oneof=available rented out_of_order"`
	CurrentRentalID string `json:"current_rental_id,omitempty" bson:"current_rental_id,omitempty"`
}

// CartStatusUpdate is the payload for the status override endpoint. Rented is
// deliberately absent: it is only ever derived or set by the commit path.
type CartStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=available out_of_order"`
}

// CartView is a cart together with its projected state at a reference instant.
type CartView struct {
	Cart
	State string `json:"state"`
}
